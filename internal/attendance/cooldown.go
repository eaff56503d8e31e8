package attendance

import (
	"fmt"
	"math"
	"time"

	"CipherGate-backend/internal/platform/apierr"
)

const MinPunchInterval = 2 * time.Minute

// CheckCooldown: 直前の打刻から 2 分以内なら 429
func CheckCooldown(last *Attendance, now time.Time) error {
	if last == nil {
		return nil
	}
	elapsed := now.Sub(last.CreatedAt).Minutes()
	limit := MinPunchInterval.Minutes()
	if elapsed >= limit {
		return nil
	}
	wait := int(math.Ceil(limit - elapsed))
	return apierr.ErrRateLimited(
		fmt.Sprintf("Please wait %d more minute(s) before punching again. Minimum interval between punches is 2 minutes.", wait),
		wait,
	).WithSuggestion("Wait for the required time interval before attempting to mark attendance again.")
}
