package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

const scheduleColumns = `id, child_id, approved_item_id, scheduled_date, original_date,
	is_active, is_watched, watched_at, carried_over, created_at, updated_at`

const scheduledItemColumns = `s.id, s.child_id, s.approved_item_id, s.scheduled_date, s.original_date,
	s.is_active, s.is_watched, s.watched_at, s.carried_over, s.created_at, s.updated_at,
	a.video_id, a.title, a.thumbnail_url, a.duration_seconds`

// CandidateFilter selects active, unwatched records that are due for carryover.
// Exactly one of Before or On should be set.
type CandidateFilter struct {
	ChildID *int
	Before  *model.Date // scheduled_date < Before
	On      *model.Date // scheduled_date = On
}

func (f CandidateFilter) where() (string, []any, error) {
	clauses := []string{"is_active = TRUE", "is_watched = FALSE"}
	var args []any
	switch {
	case f.Before != nil && f.On == nil:
		clauses = append(clauses, "scheduled_date < ?")
		args = append(args, *f.Before)
	case f.On != nil && f.Before == nil:
		clauses = append(clauses, "scheduled_date = ?")
		args = append(args, *f.On)
	default:
		return "", nil, errors.New("candidate filter needs exactly one of Before or On")
	}
	if f.ChildID != nil {
		clauses = append(clauses, "child_id = ?")
		args = append(args, *f.ChildID)
	}
	return strings.Join(clauses, " AND "), args, nil
}

// GuardianScheduleFilter narrows the guardian's view of active schedules.
type GuardianScheduleFilter struct {
	ChildID *int
	Date    *model.Date
}

// CarryoverOutcome reports what CarryOverRecord did with a stale record.
type CarryoverOutcome int

const (
	// OutcomeCreated: a descendant was inserted and the stale record deactivated.
	OutcomeCreated CarryoverOutcome = iota
	// OutcomeMerged: an active record already existed on the target date; the
	// stale record was deactivated without inserting.
	OutcomeMerged
	// OutcomeStale: the record was no longer active and unwatched by the time
	// the transaction ran (another pass or a watch got there first).
	OutcomeStale
)

func (o CarryoverOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeMerged:
		return "merged"
	case OutcomeStale:
		return "stale"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// getter is satisfied by both *sqlx.DB and *sqlx.Tx.
type getter interface {
	Get(dest any, query string, args ...any) error
	Rebind(query string) string
}

// insertIfAbsent inserts rec unless an active record already exists for the
// same (child, item, date). The partial unique index on active records makes
// this a single atomic statement.
func (s *sqlStore) insertIfAbsent(g getter, rec model.ScheduleRecord) (model.ScheduleRecord, bool, error) {
	now := s.now()
	var out model.ScheduleRecord
	err := g.Get(&out, g.Rebind(`
	INSERT INTO schedule_records
	  (child_id, approved_item_id, scheduled_date, original_date,
	   is_active, is_watched, watched_at, carried_over, created_at, updated_at)
	VALUES (?, ?, ?, ?, TRUE, FALSE, NULL, ?, ?, ?)
	ON CONFLICT DO NOTHING
	RETURNING `+scheduleColumns+`;`),
		rec.ChildID, rec.ApprovedItemID, rec.ScheduledDate, rec.OriginalDate, rec.CarriedOver, now, now)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScheduleRecord{}, false, nil
	}
	if err != nil {
		return model.ScheduleRecord{}, false, err
	}
	return out, true, nil
}

// InsertScheduleRecord creates one active record. The bool is false when an
// active record for the same (child, item, date) already existed.
func (s *sqlStore) InsertScheduleRecord(rec model.ScheduleRecord) (model.ScheduleRecord, bool, error) {
	out, inserted, err := s.insertIfAbsent(s.db, rec)
	if err != nil {
		log.Error().Err(err).
			Int("child_id", rec.ChildID).
			Int("approved_item_id", rec.ApprovedItemID).
			Str("date", rec.ScheduledDate.String()).
			Msg("InsertScheduleRecord failed")
	}
	return out, inserted, err
}

// CreateScheduleRecords inserts a batch in one transaction and returns the
// records that were actually created.
func (s *sqlStore) CreateScheduleRecords(recs []model.ScheduleRecord) ([]model.ScheduleRecord, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		log.Error().Err(err).Msg("CreateScheduleRecords begin failed")
		return nil, err
	}
	defer tx.Rollback()

	created := make([]model.ScheduleRecord, 0, len(recs))
	for _, rec := range recs {
		out, inserted, err := s.insertIfAbsent(tx, rec)
		if err != nil {
			log.Error().Err(err).
				Int("child_id", rec.ChildID).
				Int("approved_item_id", rec.ApprovedItemID).
				Msg("CreateScheduleRecords insert failed")
			return nil, err
		}
		if inserted {
			created = append(created, out)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("CreateScheduleRecords commit failed")
		return nil, err
	}
	return created, nil
}

func (s *sqlStore) GetScheduleRecord(id int) (model.ScheduleRecord, error) {
	var rec model.ScheduleRecord
	err := s.db.Get(&rec, s.q(`SELECT `+scheduleColumns+` FROM schedule_records WHERE id = ?;`), id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("schedule_id", id).Msg("GetScheduleRecord failed")
	}
	return rec, err
}

func (s *sqlStore) HasActiveSchedule(childID, approvedItemID int, date model.Date) (bool, error) {
	var n int
	err := s.db.Get(&n, s.q(`
	SELECT COUNT(*)
	  FROM schedule_records
	 WHERE child_id = ? AND approved_item_id = ? AND scheduled_date = ? AND is_active = TRUE;`),
		childID, approvedItemID, date)
	if err != nil {
		log.Error().Err(err).Int("child_id", childID).Int("approved_item_id", approvedItemID).Msg("HasActiveSchedule failed")
		return false, err
	}
	return n > 0, nil
}

func (s *sqlStore) ListCarryoverCandidates(filter CandidateFilter) ([]model.ScheduleRecord, error) {
	where, args, err := filter.where()
	if err != nil {
		return nil, err
	}
	var out []model.ScheduleRecord
	query := `SELECT ` + scheduleColumns + ` FROM schedule_records WHERE ` + where +
		` ORDER BY scheduled_date ASC, id ASC;`
	if err := s.db.Select(&out, s.q(query), args...); err != nil {
		log.Error().Err(err).Msg("ListCarryoverCandidates failed")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) ListChildIDsWithCandidates(filter CandidateFilter) ([]int, error) {
	where, args, err := filter.where()
	if err != nil {
		return nil, err
	}
	var out []int
	query := `SELECT DISTINCT child_id FROM schedule_records WHERE ` + where + ` ORDER BY child_id;`
	if err := s.db.Select(&out, s.q(query), args...); err != nil {
		log.Error().Err(err).Msg("ListChildIDsWithCandidates failed")
		return nil, err
	}
	return out, nil
}

// CarryOverRecord retires stale and, unless an active record already exists on
// target, inserts its descendant. Both writes share one transaction. The stale
// record is claimed first with a conditional update, so two concurrent passes
// over the same record cannot both proceed.
func (s *sqlStore) CarryOverRecord(stale model.ScheduleRecord, target model.Date) (CarryoverOutcome, error) {
	if !target.After(stale.ScheduledDate) {
		return OutcomeStale, fmt.Errorf("carryover target %s is not after %s", target, stale.ScheduledDate)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return OutcomeStale, err
	}
	defer tx.Rollback()

	claimed, err := s.deactivate(tx, stale.ID)
	if err != nil {
		return OutcomeStale, err
	}
	if !claimed {
		return OutcomeStale, nil
	}

	_, inserted, err := s.insertIfAbsent(tx, model.ScheduleRecord{
		ChildID:        stale.ChildID,
		ApprovedItemID: stale.ApprovedItemID,
		ScheduledDate:  target,
		OriginalDate:   stale.OriginalDate,
		CarriedOver:    true,
	})
	if err != nil {
		return OutcomeStale, err
	}

	if err := tx.Commit(); err != nil {
		return OutcomeStale, err
	}
	if inserted {
		return OutcomeCreated, nil
	}
	return OutcomeMerged, nil
}

func (s *sqlStore) deactivate(tx *sqlx.Tx, id int) (bool, error) {
	res, err := tx.Exec(tx.Rebind(`
	UPDATE schedule_records
	   SET is_active = FALSE,
	       updated_at = ?
	 WHERE id = ? AND is_active = TRUE AND is_watched = FALSE;`), s.now(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListDeliverable returns what a child should see on date: active, unwatched,
// fresh items before carried-over backlog, each group oldest first.
func (s *sqlStore) ListDeliverable(childID int, date model.Date) ([]model.ScheduledItem, error) {
	var out []model.ScheduledItem
	err := s.db.Select(&out, s.q(`
	SELECT `+scheduledItemColumns+`
	  FROM schedule_records s
	  JOIN approved_items a ON a.id = s.approved_item_id
	 WHERE s.child_id = ?
	   AND s.scheduled_date = ?
	   AND s.is_active = TRUE
	   AND s.is_watched = FALSE
	 ORDER BY s.carried_over ASC, s.created_at ASC, s.id ASC;`), childID, date)
	if err != nil {
		log.Error().Err(err).Int("child_id", childID).Str("date", date.String()).Msg("ListDeliverable failed")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) ListGuardianSchedule(guardianID int, filter GuardianScheduleFilter) ([]model.ScheduledItem, error) {
	query := `
	SELECT ` + scheduledItemColumns + `
	  FROM schedule_records s
	  JOIN approved_items a ON a.id = s.approved_item_id
	  JOIN children c ON c.id = s.child_id
	 WHERE c.guardian_id = ?
	   AND s.is_active = TRUE`
	args := []any{guardianID}
	if filter.ChildID != nil {
		query += ` AND s.child_id = ?`
		args = append(args, *filter.ChildID)
	}
	if filter.Date != nil {
		query += ` AND s.scheduled_date = ?`
		args = append(args, *filter.Date)
	}
	query += ` ORDER BY s.scheduled_date ASC, s.child_id ASC, s.carried_over ASC, s.created_at ASC, s.id ASC;`

	var out []model.ScheduledItem
	if err := s.db.Select(&out, s.q(query), args...); err != nil {
		log.Error().Err(err).Int("guardian_id", guardianID).Msg("ListGuardianSchedule failed")
		return nil, err
	}
	return out, nil
}

// ListScheduleHistory returns every record, active or not, for one child and item.
func (s *sqlStore) ListScheduleHistory(childID, approvedItemID int) ([]model.ScheduleRecord, error) {
	var out []model.ScheduleRecord
	err := s.db.Select(&out, s.q(`
	SELECT `+scheduleColumns+`
	  FROM schedule_records
	 WHERE child_id = ? AND approved_item_id = ?
	 ORDER BY scheduled_date ASC, id ASC;`), childID, approvedItemID)
	if err != nil {
		log.Error().Err(err).Int("child_id", childID).Int("approved_item_id", approvedItemID).Msg("ListScheduleHistory failed")
		return nil, err
	}
	return out, nil
}

// MarkScheduleWatched flips is_watched once on an active record. It reports
// false when the record was already watched, superseded or missing, leaving
// watched_at untouched.
func (s *sqlStore) MarkScheduleWatched(id int, at time.Time) (bool, error) {
	res, err := s.db.Exec(s.q(`
	UPDATE schedule_records
	   SET is_watched = TRUE,
	       watched_at = ?,
	       updated_at = ?
	 WHERE id = ? AND is_active = TRUE AND is_watched = FALSE;`), at.UTC(), s.now(), id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("MarkScheduleWatched failed")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteScheduleRecord removes a record only while it is still pending:
// active and never watched.
func (s *sqlStore) DeleteScheduleRecord(id int) (bool, error) {
	res, err := s.db.Exec(s.q(`
	DELETE FROM schedule_records
	 WHERE id = ? AND is_active = TRUE AND is_watched = FALSE;`), id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("DeleteScheduleRecord failed")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
