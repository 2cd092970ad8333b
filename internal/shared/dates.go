package shared

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted date representation. Ledger cutoffs compare
// dates as strings, which is only correct for zero-padded values.
const DateLayout = "2006-01-02"

// ParseDate validates an ISO date and returns its canonical YYYY-MM-DD form.
// A datetime such as 2025-01-01T00:00:00 is truncated to its date part.
func ParseDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, 'T'); i >= 0 {
		value = value[:i]
	}
	if len(value) != len(DateLayout) {
		return "", fmt.Errorf("%w: %q", ErrMalformedDate, value)
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedDate, value)
	}
	return t.Format(DateLayout), nil
}

// FormatDate renders t using DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
