package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

const guardianColumns = `id, email, hashed_password, name, created_at, updated_at`

// inserts a new guardian, returns the new ID.
func (s *sqlStore) CreateGuardian(email, hashedPassword string, name *string) (int, error) {
	now := s.now()
	query := s.q(`
	INSERT INTO guardians (email, hashed_password, name, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	RETURNING id;
	`)
	var newID int
	if err := s.db.QueryRow(query, email, hashedPassword, name, now, now).Scan(&newID); err != nil {
		log.Error().Err(err).Msg("failed to create guardian")
		return 0, err
	}
	return newID, nil
}

// fetches a guardian by email. returns nil, sql.ErrNoRows if not found.
func (s *sqlStore) GetGuardianByEmail(email string) (*model.Guardian, error) {
	var g model.Guardian
	err := s.db.Get(&g, s.q(`SELECT `+guardianColumns+` FROM guardians WHERE email = ?;`), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Msg("failed to get guardian by email")
		return nil, err
	}
	return &g, nil
}

// fetches a guardian by ID. returns nil, sql.ErrNoRows if not found.
func (s *sqlStore) GetGuardianByID(id int) (*model.Guardian, error) {
	var g model.Guardian
	err := s.db.Get(&g, s.q(`SELECT `+guardianColumns+` FROM guardians WHERE id = ?;`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Int("guardian_id", id).Msg("failed to get guardian by id")
		return nil, err
	}
	return &g, nil
}

// updates a guardian's email and name, and bumps updated_at.
// returns sql.ErrNoRows if the guardian doesn't exist.
func (s *sqlStore) UpdateGuardianProfile(id int, email string, name *string) error {
	res, err := s.db.Exec(s.q(`
	UPDATE guardians
	SET email = ?,
	name = ?,
	updated_at = ?
	WHERE id = ?;
	`), email, name, s.now(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to update guardian profile - exec")
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		log.Error().Err(err).Msg("failed to update guardian profile - rows affected")
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
