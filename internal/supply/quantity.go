package supply

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paperdesk/backoffice/internal/shared"
)

func parseQuantity(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("supply: quantity %q: %w", raw, shared.ErrValidation)
	}
	return n, nil
}
