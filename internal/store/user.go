package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var householdID sql.NullString

	err := scanner.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&householdID, &u.ProfilePhoto, &u.DateCreated,
	)
	if err != nil {
		return nil, err
	}

	if householdID.Valid {
		u.HouseholdID = &householdID.String
	}
	return &u, nil
}

const userCols = `id, name, email, password_hash, household_id, profile_photo, date_created`

func (s *UserStore) Create(name, email, passwordHash string) (*model.User, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
		id, name, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// SetHouseholdID updates the user's household affiliation; nil clears it.
func (s *UserStore) SetHouseholdID(userID string, householdID *string) error {
	var hID sql.NullString
	if householdID != nil {
		hID = sql.NullString{String: *householdID, Valid: true}
	}
	_, err := s.db.Exec(`UPDATE users SET household_id = ? WHERE id = ?`, hID, userID)
	if err != nil {
		return fmt.Errorf("set household id: %w", err)
	}
	return nil
}

func (s *UserStore) SetProfilePhoto(userID string, photo int) error {
	_, err := s.db.Exec(`UPDATE users SET profile_photo = ? WHERE id = ?`, photo, userID)
	if err != nil {
		return fmt.Errorf("set profile photo: %w", err)
	}
	return nil
}

// ListSummaries returns the member projection for the given user IDs,
// preserving the order of ids.
func (s *UserStore) ListSummaries(ids []string) ([]model.MemberSummary, error) {
	byID := make(map[string]model.MemberSummary, len(ids))
	for _, id := range ids {
		row := s.db.QueryRow(`SELECT id, name, profile_photo FROM users WHERE id = ?`, id)
		var m model.MemberSummary
		err := row.Scan(&m.ID, &m.Name, &m.ProfilePhoto)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get user summary: %w", err)
		}
		byID[id] = m
	}

	summaries := make([]model.MemberSummary, 0, len(byID))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			summaries = append(summaries, m)
		}
	}
	return summaries, nil
}
