package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	p := FromRequest(req)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_CustomValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders?page=3&per_page=50", nil)
	p := FromRequest(req)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PerPage)
	assert.Equal(t, 100, p.Offset)
}

func TestFromRequest_InvalidValues_FallBackToDefaults(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"negative page", "page=-1"},
		{"zero page", "page=0"},
		{"non-numeric page", "page=abc"},
		{"per_page above cap", "per_page=200"},
		{"zero per_page", "per_page=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders?"+tt.query, nil)
			p := FromRequest(req)
			assert.Equal(t, 1, p.Page)
			assert.Equal(t, 20, p.PerPage)
		})
	}
}

func TestFromRequest_PerPage_Exactly100(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders?per_page=100", nil)
	p := FromRequest(req)
	assert.Equal(t, 100, p.PerPage)
}

func TestNewResult_TotalPages(t *testing.T) {
	p := Params{Page: 2, PerPage: 10}
	res := NewResult([]string{"a", "b"}, 25, p)

	assert.Equal(t, 25, res.TotalCount)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 10, res.PerPage)
	assert.Equal(t, 3, res.TotalPages)
	assert.Len(t, res.Data, 2)
}

func TestNewResult_Empty(t *testing.T) {
	res := NewResult([]int{}, 0, DefaultParams())
	assert.Equal(t, 0, res.TotalPages)
	assert.Empty(t, res.Data)
}
