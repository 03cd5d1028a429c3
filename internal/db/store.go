// exposes a Store interface that is passed to services and API modules
package db

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

type Store interface {
	// guardian functions
	CreateGuardian(email, hashedPassword string, name *string) (int, error)
	GetGuardianByEmail(email string) (*model.Guardian, error)
	GetGuardianByID(id int) (*model.Guardian, error)
	UpdateGuardianProfile(id int, email string, name *string) error

	// children and approved content (owned by the profile and approval features)
	CreateChild(guardianID int, name string) (model.Child, error)
	GetChild(id int) (model.Child, error)
	ListChildrenForGuardian(guardianID int) ([]model.Child, error)
	CreateApprovedItem(item model.ApprovedItem) (model.ApprovedItem, error)
	GetApprovedItem(id int) (model.ApprovedItem, error)

	// schedule repository
	InsertScheduleRecord(rec model.ScheduleRecord) (model.ScheduleRecord, bool, error)
	CreateScheduleRecords(recs []model.ScheduleRecord) ([]model.ScheduleRecord, error)
	GetScheduleRecord(id int) (model.ScheduleRecord, error)
	HasActiveSchedule(childID, approvedItemID int, date model.Date) (bool, error)
	ListCarryoverCandidates(filter CandidateFilter) ([]model.ScheduleRecord, error)
	ListChildIDsWithCandidates(filter CandidateFilter) ([]int, error)
	CarryOverRecord(stale model.ScheduleRecord, target model.Date) (CarryoverOutcome, error)
	ListDeliverable(childID int, date model.Date) ([]model.ScheduledItem, error)
	ListGuardianSchedule(guardianID int, filter GuardianScheduleFilter) ([]model.ScheduledItem, error)
	ListScheduleHistory(childID, approvedItemID int) ([]model.ScheduleRecord, error)
	MarkScheduleWatched(id int, at time.Time) (bool, error)
	DeleteScheduleRecord(id int) (bool, error)

	// carryover watermarks
	AdvanceWatermark(childID int, closedThrough model.Date, trigger string) error
	AdvanceWatermarkAll(closedThrough model.Date, trigger string) error
	GetWatermark(childID int) (model.Watermark, error)
}

type sqlStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// compile-time check that sqlStore implements Store
var _ Store = (*sqlStore)(nil)

// NewStore wraps an open connection. The same SQL runs on Postgres and, in
// tests, SQLite: queries use "?" placeholders and go through Rebind.
func NewStore(conn *sqlx.DB) Store {
	return &sqlStore{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

// NewStoreWithClock is NewStore with an injectable clock for audit timestamps.
func NewStoreWithClock(conn *sqlx.DB, now func() time.Time) Store {
	return &sqlStore{db: conn, now: func() time.Time { return now().UTC() }}
}

func (s *sqlStore) q(query string) string {
	return s.db.Rebind(query)
}
