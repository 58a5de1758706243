package expiry

import "time"

// IsExpired reports whether the bidding window ending at endsAt is over at the
// given instant. now is always supplied by the caller, never read here, so the
// decision stays deterministic.
func IsExpired(endsAt, now time.Time) bool {
	return !now.Before(endsAt)
}
