package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

// Create inserts a household whose member list and rotation pool both start
// as [creatorID], in a single transaction.
func (s *HouseholdStore) Create(name, creatorID string) (*model.Household, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO households (id, name) VALUES (?, ?)`, id, name); err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO household_members (household_id, user_id, position) VALUES (?, ?, 0)`,
		id, creatorID,
	); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO household_chore_assignees (household_id, user_id, position) VALUES (?, ?, 0)`,
		id, creatorID,
	); err != nil {
		return nil, fmt.Errorf("insert chore assignee: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// GetByID loads the household row plus its ordered member, chore, and
// rotation-pool lists.
func (s *HouseholdStore) GetByID(id string) (*model.Household, error) {
	row := s.db.QueryRow(
		`SELECT id, name, completed_chore_counter, completed_chore_streak, last_completed_chore_date, date_created
		 FROM households WHERE id = ?`, id)

	var h model.Household
	var lastCompleted sql.NullTime
	err := row.Scan(&h.ID, &h.Name, &h.CompletedChoreCounter, &h.CompletedChoreStreak, &lastCompleted, &h.DateCreated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	if lastCompleted.Valid {
		h.LastCompletedChoreDate = &lastCompleted.Time
	}

	if h.Members, err = s.listIDs(`SELECT user_id FROM household_members WHERE household_id = ? ORDER BY position ASC`, id); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if h.Chores, err = s.listIDs(`SELECT chore_id FROM household_chores WHERE household_id = ? ORDER BY position ASC`, id); err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	if h.ChoreAssignees, err = s.listIDs(`SELECT user_id FROM household_chore_assignees WHERE household_id = ? ORDER BY position ASC`, id); err != nil {
		return nil, fmt.Errorf("list chore assignees: %w", err)
	}

	return &h, nil
}

func (s *HouseholdStore) listIDs(query, householdID string) ([]string, error) {
	rows, err := s.db.Query(query, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddMember appends the user to the member list and, if absent, to the
// rotation pool.
func (s *HouseholdStore) AddMember(householdID, userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO household_members (household_id, user_id, position)
		 SELECT ?, ?, COALESCE(MAX(position) + 1, 0) FROM household_members WHERE household_id = ?`,
		householdID, userID, householdID,
	); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO household_chore_assignees (household_id, user_id, position)
		 SELECT ?, ?, COALESCE(MAX(position) + 1, 0) FROM household_chore_assignees WHERE household_id = ?`,
		householdID, userID, householdID,
	); err != nil {
		return fmt.Errorf("add chore assignee: %w", err)
	}

	return tx.Commit()
}

// RemoveMember removes the user from both the member list and the rotation pool.
func (s *HouseholdStore) RemoveMember(householdID, userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM household_chore_assignees WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	); err != nil {
		return fmt.Errorf("remove chore assignee: %w", err)
	}

	return tx.Commit()
}

// AppendChore adds the chore reference to the end of the display order.
func (s *HouseholdStore) AppendChore(householdID, choreID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO household_chores (household_id, chore_id, position)
		 SELECT ?, ?, COALESCE(MAX(position) + 1, 0) FROM household_chores WHERE household_id = ?`,
		householdID, choreID, householdID,
	)
	if err != nil {
		return fmt.Errorf("append chore: %w", err)
	}
	return nil
}

func (s *HouseholdStore) RemoveChore(householdID, choreID string) error {
	_, err := s.db.Exec(
		`DELETE FROM household_chores WHERE household_id = ? AND chore_id = ?`,
		householdID, choreID,
	)
	if err != nil {
		return fmt.Errorf("remove chore: %w", err)
	}
	return nil
}

// SetChoreOrder rewrites display positions to match ids. Callers validate
// that ids is a permutation of the current list.
func (s *HouseholdStore) SetChoreOrder(householdID string, ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		if _, err := tx.Exec(
			`UPDATE household_chores SET position = ? WHERE household_id = ? AND chore_id = ?`,
			i, householdID, id,
		); err != nil {
			return fmt.Errorf("update chore position: %w", err)
		}
	}
	return tx.Commit()
}

// SetChoreAssignees replaces the rotation pool with ids.
func (s *HouseholdStore) SetChoreAssignees(householdID string, ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM household_chore_assignees WHERE household_id = ?`, householdID,
	); err != nil {
		return fmt.Errorf("clear chore assignees: %w", err)
	}
	for i, id := range ids {
		if _, err := tx.Exec(
			`INSERT INTO household_chore_assignees (household_id, user_id, position) VALUES (?, ?, ?)`,
			householdID, id, i,
		); err != nil {
			return fmt.Errorf("insert chore assignee: %w", err)
		}
	}
	return tx.Commit()
}

// IncrementCompletedCounter bumps the all-time completion count by one.
func (s *HouseholdStore) IncrementCompletedCounter(householdID string) error {
	_, err := s.db.Exec(
		`UPDATE households SET completed_chore_counter = completed_chore_counter + 1 WHERE id = ?`,
		householdID,
	)
	if err != nil {
		return fmt.Errorf("increment completed counter: %w", err)
	}
	return nil
}

// SetStreak records the streak value and the completion timestamp it was
// computed at.
func (s *HouseholdStore) SetStreak(householdID string, streak int, lastCompleted time.Time) error {
	_, err := s.db.Exec(
		`UPDATE households SET completed_chore_streak = ?, last_completed_chore_date = ? WHERE id = ?`,
		streak, lastCompleted.UTC(), householdID,
	)
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}

// NewHouseholdID mints an opaque household ID. Exposed for tests that build
// fixtures without going through Create.
func NewHouseholdID() string {
	return uuid.NewString()
}
