package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Status  string `validate:"required,oneof=pending shipped delivered"`
	PerPage int    `validate:"gt=0,max=100"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(sampleInput{Status: "shipped", PerPage: 20})
	assert.NoError(t, err)
}

func TestValidate_FailsWithFields(t *testing.T) {
	err := Validate(sampleInput{Status: "teleported", PerPage: 0})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	fields := vErr.Fields()
	assert.Contains(t, fields, "Status")
	assert.Contains(t, fields, "PerPage")
	assert.Contains(t, vErr.Error(), "Status")
}
