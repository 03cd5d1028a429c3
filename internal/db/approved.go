package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

const approvedColumns = `id, guardian_id, video_id, title, thumbnail_url, duration_seconds, created_at`

// CreateApprovedItem records a guardian's approval. The approval workflow
// itself lives elsewhere; this exists so the scheduler has something to join.
func (s *sqlStore) CreateApprovedItem(item model.ApprovedItem) (model.ApprovedItem, error) {
	var out model.ApprovedItem
	err := s.db.Get(&out, s.q(`
	INSERT INTO approved_items (guardian_id, video_id, title, thumbnail_url, duration_seconds, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	RETURNING `+approvedColumns+`;`),
		item.GuardianID, item.VideoID, item.Title, item.ThumbnailURL, item.DurationSeconds, s.now())
	if err != nil {
		log.Error().Err(err).Int("guardian_id", item.GuardianID).Str("video_id", item.VideoID).Msg("CreateApprovedItem failed")
		return model.ApprovedItem{}, err
	}
	return out, nil
}

func (s *sqlStore) GetApprovedItem(id int) (model.ApprovedItem, error) {
	var out model.ApprovedItem
	err := s.db.Get(&out, s.q(`SELECT `+approvedColumns+` FROM approved_items WHERE id = ?;`), id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("approved_item_id", id).Msg("GetApprovedItem failed")
	}
	return out, err
}
