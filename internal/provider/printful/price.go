package printful

import (
	"strings"
)

// parsePriceMinorUnits converts Printful's decimal string price ("24.99")
// to minor currency units (2499). Malformed prices parse to 0 rather than
// failing the whole catalog fetch.
func parsePriceMinorUnits(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	whole, frac, _ := strings.Cut(s, ".")
	var total int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0
		}
		total = total*10 + int64(r-'0')
	}
	total *= 100

	// Two fractional digits at most; "24.9" means 90 cents.
	for i, r := range frac {
		if i >= 2 {
			break
		}
		if r < '0' || r > '9' {
			return 0
		}
		digit := int64(r - '0')
		if i == 0 {
			total += digit * 10
		} else {
			total += digit
		}
	}
	return total
}
