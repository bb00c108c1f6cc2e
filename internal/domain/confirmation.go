package domain

import "time"

// Confirmation is a time-boxed, single-use proof of email ownership that
// gates login. IDs are random 128-bit values so links cannot be enumerated.
type Confirmation struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpireAt  time.Time
	Confirmed bool
}

// IsExpired reports whether the confirmation window has passed.
func (c *Confirmation) IsExpired(now time.Time) bool {
	return now.After(c.ExpireAt)
}

// IsActive reports whether the record still gates a pending confirmation:
// not yet confirmed and not yet expired.
func (c *Confirmation) IsActive(now time.Time) bool {
	return !c.Confirmed && !c.IsExpired(now)
}
