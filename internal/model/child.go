package model

import "time"

// Child is a viewer profile owned by a guardian.
type Child struct {
	ID         int       `db:"id"          json:"id"`
	GuardianID int       `db:"guardian_id" json:"guardian_id"`
	Name       string    `db:"name"        json:"name"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}
