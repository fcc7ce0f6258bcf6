package report

import (
	"fmt"
	"time"
)

// FormatElapsed renders a wall-clock duration as HH:MM:SS, prefixed with the
// day count ("2d03:04:05") once it reaches a full day. Sub-second parts are
// dropped.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	if days == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dd%02d:%02d:%02d", days, hours, minutes, seconds)
}
