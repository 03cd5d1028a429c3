package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

const childColumns = `id, guardian_id, name, created_at, updated_at`

func (s *sqlStore) CreateChild(guardianID int, name string) (model.Child, error) {
	var c model.Child
	now := s.now()
	err := s.db.Get(&c, s.q(`
	INSERT INTO children (guardian_id, name, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	RETURNING `+childColumns+`;`), guardianID, name, now, now)
	if err != nil {
		log.Error().Err(err).Int("guardian_id", guardianID).Msg("CreateChild failed")
		return model.Child{}, err
	}
	return c, nil
}

func (s *sqlStore) GetChild(id int) (model.Child, error) {
	var c model.Child
	err := s.db.Get(&c, s.q(`SELECT `+childColumns+` FROM children WHERE id = ?;`), id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("child_id", id).Msg("GetChild failed")
	}
	return c, err
}

func (s *sqlStore) ListChildrenForGuardian(guardianID int) ([]model.Child, error) {
	var out []model.Child
	err := s.db.Select(&out, s.q(`
	SELECT `+childColumns+`
	  FROM children
	 WHERE guardian_id = ?
	 ORDER BY name ASC, id ASC;`), guardianID)
	if err != nil {
		log.Error().Err(err).Int("guardian_id", guardianID).Msg("ListChildrenForGuardian failed")
		return nil, err
	}
	return out, nil
}
