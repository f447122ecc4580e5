package models

import "time"

// Warn represents a single warning issued to a member.
// ExpiresAt is zero for permanent warnings.
type Warn struct {
	ID        string `bson:"id" json:"id"`
	Reason    string `bson:"reason" json:"reason"`
	Points    int    `bson:"points" json:"points"`
	Permanent bool   `bson:"permanent" json:"permanent"`
	ExpiresAt int64  `bson:"expires,omitempty" json:"expires,omitempty"`
	Moderator string `bson:"moderator" json:"moderator"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
}

// ActiveAt reports whether the warning still counts towards points at now.
func (w Warn) ActiveAt(now time.Time) bool {
	return w.Permanent || w.ExpiresAt > now.Unix()
}

// ExpiryUnix converts an expiry instant to the stored unix seconds, rounding
// up so a warning never expires before its full duration.
func ExpiryUnix(t time.Time) int64 {
	s := t.Unix()
	if t.Nanosecond() > 0 {
		s++
	}
	return s
}

// CreatedAt returns the issue time of the warning.
func (w Warn) CreatedAt() time.Time {
	return time.Unix(w.Timestamp, 0)
}

// Expiry returns the expiry time, or the zero time for permanent warnings.
func (w Warn) Expiry() time.Time {
	if w.Permanent || w.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(w.ExpiresAt, 0)
}

// WarnsDocument is the per-member document in the "warns" collection.
type WarnsDocument struct {
	GuildID string `bson:"guildId" json:"guildId"`
	UserID  string `bson:"userId" json:"userId"`
	Warns   []Warn `bson:"warns" json:"warns"`
}
