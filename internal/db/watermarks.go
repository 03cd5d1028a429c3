package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

// watermarks never move backwards: the update only fires for a later date.
const upsertWatermark = `
	INSERT INTO carryover_watermarks (child_id, closed_through, trigger_name, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (child_id) DO UPDATE
	   SET closed_through = excluded.closed_through,
	       trigger_name   = excluded.trigger_name,
	       updated_at     = excluded.updated_at
	 WHERE excluded.closed_through > carryover_watermarks.closed_through;`

func (s *sqlStore) AdvanceWatermark(childID int, closedThrough model.Date, trigger string) error {
	_, err := s.db.Exec(s.q(upsertWatermark), childID, closedThrough, trigger, s.now())
	if err != nil {
		log.Error().Err(err).Int("child_id", childID).Str("date", closedThrough.String()).Msg("AdvanceWatermark failed")
	}
	return err
}

// openBacklog pairs every child with the oldest active, unwatched record
// dated on or before the given day. oldest_open is NULL when there is none.
const openBacklog = `
	SELECT c.id AS child_id, MIN(r.scheduled_date) AS oldest_open
	  FROM children c
	  LEFT JOIN schedule_records r
	    ON r.child_id = c.id
	   AND r.is_active = TRUE
	   AND r.is_watched = FALSE
	   AND r.scheduled_date <= ?
	 GROUP BY c.id
	 ORDER BY c.id;`

type childBacklog struct {
	ChildID    int        `db:"child_id"`
	OldestOpen model.Date `db:"oldest_open"`
}

// AdvanceWatermarkAll closes closedThrough out for every child with nothing
// left open on or before it. A child still holding older backlog only moves
// to the day before its oldest open record. One transaction.
func (s *sqlStore) AdvanceWatermarkAll(closedThrough model.Date, trigger string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var rows []childBacklog
	if err := tx.Select(&rows, tx.Rebind(openBacklog), closedThrough); err != nil {
		log.Error().Err(err).Str("date", closedThrough.String()).Msg("AdvanceWatermarkAll list backlog failed")
		return err
	}

	stmt, err := tx.Preparex(tx.Rebind(upsertWatermark))
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := s.now()
	for _, row := range rows {
		through := closedThrough
		if !row.OldestOpen.IsZero() {
			through = row.OldestOpen.AddDays(-1)
		}
		if _, err := stmt.Exec(row.ChildID, through, trigger, now); err != nil {
			log.Error().Err(err).Int("child_id", row.ChildID).Str("date", through.String()).Msg("AdvanceWatermarkAll failed")
			return err
		}
	}
	return tx.Commit()
}

func (s *sqlStore) GetWatermark(childID int) (model.Watermark, error) {
	var w model.Watermark
	err := s.db.Get(&w, s.q(`
	SELECT child_id, closed_through, trigger_name, updated_at
	  FROM carryover_watermarks
	 WHERE child_id = ?;`), childID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("child_id", childID).Msg("GetWatermark failed")
	}
	return w, err
}
