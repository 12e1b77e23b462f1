package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Create persists the notification and returns it with its stored timestamp.
func (s *NotificationStore) Create(n model.Notification) (*model.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Date.IsZero() {
		n.Date = time.Now().UTC()
	}

	var choreID, declineReason, userID sql.NullString
	if n.ChoreID != nil {
		choreID = sql.NullString{String: *n.ChoreID, Valid: true}
	}
	if n.DeclineChoreReason != nil {
		declineReason = sql.NullString{String: *n.DeclineChoreReason, Valid: true}
	}
	if n.UserID != nil {
		userID = sql.NullString{String: *n.UserID, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO notifications (id, title, description, date, notification_type, chore_id, decline_chore_reason, user_id, num_of_supporters)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Description, n.Date.UTC(), n.NotificationType,
		choreID, declineReason, userID, n.NumOfSupporters,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return s.GetByID(n.ID)
}

func (s *NotificationStore) GetByID(id string) (*model.Notification, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, date, notification_type, chore_id, decline_chore_reason, user_id, num_of_supporters
		 FROM notifications WHERE id = ?`, id)

	n, err := s.scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var choreID, declineReason, userID sql.NullString

	err := scanner.Scan(
		&n.ID, &n.Title, &n.Description, &n.Date, &n.NotificationType,
		&choreID, &declineReason, &userID, &n.NumOfSupporters,
	)
	if err != nil {
		return nil, err
	}

	if choreID.Valid {
		n.ChoreID = &choreID.String
	}
	if declineReason.Valid {
		n.DeclineChoreReason = &declineReason.String
	}
	if userID.Valid {
		n.UserID = &userID.String
	}

	if n.IsRead, err = s.listUserIDs(`SELECT user_id FROM notification_reads WHERE notification_id = ?`, n.ID); err != nil {
		return nil, fmt.Errorf("list reads: %w", err)
	}
	if n.SupportingUsers, err = s.listUserIDs(`SELECT user_id FROM notification_supporters WHERE notification_id = ?`, n.ID); err != nil {
		return nil, fmt.Errorf("list supporters: %w", err)
	}
	return &n, nil
}

func (s *NotificationStore) listUserIDs(query, notificationID string) ([]string, error) {
	rows, err := s.db.Query(query, notificationID)
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

// AppendToUsers adds the notification to each user's list in one transaction.
func (s *NotificationStore) AppendToUsers(notificationID string, userIDs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, userID := range userIDs {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO user_notifications (user_id, notification_id, position)
			 SELECT ?, ?, COALESCE(MAX(position) + 1, 0) FROM user_notifications WHERE user_id = ?`,
			userID, notificationID, userID,
		); err != nil {
			return fmt.Errorf("append notification: %w", err)
		}
	}
	return tx.Commit()
}

// IDsForUser returns the user's notification IDs in list order.
func (s *NotificationStore) IDsForUser(userID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT notification_id FROM user_notifications WHERE user_id = ? ORDER BY position ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notification ids: %w", err)
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

// ListForUser loads the user's notifications in list order.
func (s *NotificationStore) ListForUser(userID string) ([]model.Notification, error) {
	ids, err := s.IDsForUser(userID)
	if err != nil {
		return nil, err
	}

	notifications := make([]model.Notification, 0, len(ids))
	for _, id := range ids {
		n, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		if n != nil {
			notifications = append(notifications, *n)
		}
	}
	return notifications, nil
}

// ClearForUser empties the user's notification list. The notification rows
// themselves stay, since other users may still reference them.
func (s *NotificationStore) ClearForUser(userID string) error {
	_, err := s.db.Exec(`DELETE FROM user_notifications WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

// MarkRead records that the user has seen the notification. Idempotent.
func (s *NotificationStore) MarkRead(notificationID, userID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO notification_reads (notification_id, user_id) VALUES (?, ?)`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// AddSupporter records the user's support and bumps the counter, only if the
// user has not supported it before.
func (s *NotificationStore) AddSupporter(notificationID, userID string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT OR IGNORE INTO notification_supporters (notification_id, user_id) VALUES (?, ?)`,
		notificationID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("add supporter: %w", err)
	}
	added, err := applied(result)
	if err != nil {
		return false, err
	}
	if !added {
		return false, nil
	}

	if _, err := tx.Exec(
		`UPDATE notifications SET num_of_supporters = num_of_supporters + 1 WHERE id = ?`,
		notificationID,
	); err != nil {
		return false, fmt.Errorf("increment supporters: %w", err)
	}
	return true, tx.Commit()
}
