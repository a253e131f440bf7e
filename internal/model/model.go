package model

import "time"

// LinkRecord is the single persisted entity: one row per distinct long URL.
// JSON names keep the original ShortLinks document vocabulary.
type LinkRecord struct {
	ID            int64      `db:"id" json:"id"`
	LongURL       string     `db:"grue_url" json:"grue_url"`
	ShortCode     string     `db:"short" json:"short"`
	CreatedAt     time.Time  `db:"date" json:"date"`
	LastVisitedAt time.Time  `db:"last_visit" json:"last_visit"`
	ExpiresAt     *time.Time `db:"remove_dt" json:"remove_dt,omitempty"` // nil = never expires
}

// Expired reports whether the record is past its removal time.
func (r *LinkRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}
