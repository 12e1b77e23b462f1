package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var description, assignee, pending, completedBy, updatedBy sql.NullString
	var dateDue, dateCompleted, lastUpdated sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.Title, &description, &c.Priority, &dateDue,
		&assignee, &pending, &c.IsRandomAssignment,
		&c.IsCompleted, &completedBy, &dateCompleted,
		&c.CreatedBy, &updatedBy, &lastUpdated, &c.DateCreated,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		c.Description = &description.String
	}
	if assignee.Valid {
		c.Assignee = &assignee.String
	}
	if pending.Valid {
		c.AssigneeRequestPending = &pending.String
	}
	if completedBy.Valid {
		c.CompletedBy = &completedBy.String
	}
	if updatedBy.Valid {
		c.UpdatedBy = &updatedBy.String
	}
	if dateDue.Valid {
		c.DateDue = &dateDue.Time
	}
	if dateCompleted.Valid {
		c.DateCompleted = &dateCompleted.Time
	}
	if lastUpdated.Valid {
		c.LastUpdated = &lastUpdated.Time
	}
	return &c, nil
}

const choreCols = `id, title, description, priority, date_due, assignee_id, assignee_request_pending,
	is_random_assignment, is_completed, completed_by, date_completed, created_by, updated_by, last_updated, date_created`

// Create inserts a new unassigned, incomplete chore.
func (s *ChoreStore) Create(title, createdBy string) (*model.Chore, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO chores (id, title, created_by) VALUES (?, ?, ?)`,
		id, title, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id string) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ListByIDs returns the chores for ids, preserving the order of ids.
func (s *ChoreStore) ListByIDs(ids []string) ([]model.Chore, error) {
	byID := make(map[string]model.Chore, len(ids))
	for _, id := range ids {
		c, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			byID[id] = *c
		}
	}

	chores := make([]model.Chore, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			chores = append(chores, c)
		}
	}
	return chores, nil
}

// UpdateDetails overwrites the mutable detail fields with the merged values
// the caller computed, stamping updated_by and last_updated.
func (s *ChoreStore) UpdateDetails(id, title string, description *string, priority model.Priority, dateDue *time.Time, updatedBy string, at time.Time) (*model.Chore, error) {
	var desc sql.NullString
	if description != nil {
		desc = sql.NullString{String: *description, Valid: true}
	}
	var due sql.NullTime
	if dateDue != nil {
		due = sql.NullTime{Time: dateDue.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE chores SET title = ?, description = ?, priority = ?, date_due = ?, updated_by = ?, last_updated = ? WHERE id = ?`,
		title, desc, priority, due, updatedBy, at.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(id)
}

// AssignIfUnassigned sets the assignee only when the chore is currently
// unassigned and incomplete. Returns false when the guard did not match,
// which means another request won the transition.
func (s *ChoreStore) AssignIfUnassigned(id, assigneeID string, isRandom bool) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE chores SET assignee_id = ?, is_random_assignment = ?
		 WHERE id = ? AND assignee_id IS NULL AND is_completed = 0`,
		assigneeID, isRandom, id,
	)
	if err != nil {
		return false, fmt.Errorf("assign chore: %w", err)
	}
	return applied(result)
}

// SetPendingIfNone records a takeover request only when the chore is
// assigned, incomplete, and has no pending request.
func (s *ChoreStore) SetPendingIfNone(id, requesterID string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE chores SET assignee_request_pending = ?
		 WHERE id = ? AND assignee_id IS NOT NULL AND assignee_request_pending IS NULL AND is_completed = 0`,
		requesterID, id,
	)
	if err != nil {
		return false, fmt.Errorf("set pending request: %w", err)
	}
	return applied(result)
}

// ClearPending voids any pending takeover request.
func (s *ChoreStore) ClearPending(id string) error {
	_, err := s.db.Exec(
		`UPDATE chores SET assignee_request_pending = NULL WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("clear pending request: %w", err)
	}
	return nil
}

// Reassign hands the chore to a new holder, clearing any pending request.
// The result is always a deliberate (non-random) assignment.
func (s *ChoreStore) Reassign(id, newAssignee string) error {
	_, err := s.db.Exec(
		`UPDATE chores SET assignee_id = ?, assignee_request_pending = NULL, is_random_assignment = 0 WHERE id = ?`,
		newAssignee, id,
	)
	if err != nil {
		return fmt.Errorf("reassign chore: %w", err)
	}
	return nil
}

// Unassign returns the chore to the unassigned state.
func (s *ChoreStore) Unassign(id string) error {
	_, err := s.db.Exec(
		`UPDATE chores SET assignee_id = NULL, assignee_request_pending = NULL, is_random_assignment = 0 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("unassign chore: %w", err)
	}
	return nil
}

// CompleteIfIncomplete marks the chore completed only when it isn't already.
// Completion is terminal; no store method undoes it.
func (s *ChoreStore) CompleteIfIncomplete(id, completedBy string, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE chores SET is_completed = 1, completed_by = ?, date_completed = ? WHERE id = ? AND is_completed = 0`,
		completedBy, at.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("complete chore: %w", err)
	}
	return applied(result)
}

func (s *ChoreStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

func applied(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
