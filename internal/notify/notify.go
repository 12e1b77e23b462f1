// Package notify creates notifications, fans them out to household members,
// and serves the user-facing notification operations.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/push"
	"github.com/dukerupert/hearth/internal/store"
)

// Service persists notifications and delivers them over web push. Push
// delivery is best-effort; failures are logged and never fail the operation
// that triggered the notification.
type Service struct {
	notifications *store.NotificationStore
	pushSubs      *store.PushStore
	pushSvc       *push.Service
	logger        *slog.Logger
}

func NewService(notifications *store.NotificationStore, pushSubs *store.PushStore, pushSvc *push.Service, logger *slog.Logger) *Service {
	return &Service{
		notifications: notifications,
		pushSubs:      pushSubs,
		pushSvc:       pushSvc,
		logger:        logger.With("component", "notify"),
	}
}

// Emit persists the notification, appends it to each recipient's list, and
// pushes it to their subscribed browsers.
func (s *Service) Emit(ctx context.Context, n model.Notification, recipients []string) (*model.Notification, error) {
	created, err := s.notifications.Create(n)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if err := s.notifications.AppendToUsers(created.ID, recipients); err != nil {
		return nil, apperr.StoreError(err)
	}

	if s.pushSvc != nil && s.pushSvc.Configured() {
		s.sendPush(created, recipients)
	}
	return created, nil
}

func (s *Service) sendPush(n *model.Notification, recipients []string) {
	payload := push.Payload{
		Title: n.Title,
		Body:  n.Description,
		Tag:   string(n.NotificationType),
	}

	for _, userID := range recipients {
		subs, err := s.pushSubs.ListByUser(userID)
		if err != nil {
			s.logger.Error("list push subscriptions", "user_id", userID, "error", err)
			continue
		}
		for i := range subs {
			sub := subs[i]
			if err := s.pushSvc.Send(&sub, payload); err != nil {
				if errors.Is(err, push.ErrExpired) {
					if err := s.pushSubs.DeleteByEndpoint(sub.Endpoint); err != nil {
						s.logger.Error("delete expired subscription", "error", err)
					}
					continue
				}
				s.logger.Error("send push", "user_id", userID, "error", err)
			}
		}
	}
}

// List returns the user's notifications in list order.
func (s *Service) List(ctx context.Context, userID string) ([]model.Notification, error) {
	notifications, err := s.notifications.ListForUser(userID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	return notifications, nil
}

// ClearAll empties the user's notification list.
func (s *Service) ClearAll(ctx context.Context, userID string) error {
	ids, err := s.notifications.IDsForUser(userID)
	if err != nil {
		return apperr.StoreError(err)
	}
	if len(ids) < 1 {
		return apperr.Validationf("The specified user does not have any notifications")
	}
	if err := s.notifications.ClearForUser(userID); err != nil {
		return apperr.StoreError(err)
	}
	return nil
}

// MarkRead records that the user has read the notification and returns their
// refreshed list.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) ([]model.Notification, error) {
	ids, err := s.notifications.IDsForUser(userID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if len(ids) < 1 {
		return nil, apperr.Validationf("The specified user does not have any notifications")
	}
	if notificationID == "" {
		return nil, apperr.Validationf("A notification ID was not provided")
	}

	n, err := s.notifications.GetByID(notificationID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if n == nil {
		return nil, apperr.NotFoundf("The specified notification does not exist")
	}
	if n.ReadBy(userID) {
		return nil, apperr.Validationf("The specified notification has already been read")
	}
	if !contains(ids, notificationID) {
		return nil, apperr.Validationf("The specified notification does not belong to the specified user")
	}

	if err := s.notifications.MarkRead(notificationID, userID); err != nil {
		return nil, apperr.StoreError(err)
	}
	return s.List(ctx, userID)
}

// Support records the user's support for a housemate's chore decline and
// returns their refreshed list. Only decline notifications accept support,
// at most once per user, and never from the decliner.
func (s *Service) Support(ctx context.Context, userID, notificationID string) ([]model.Notification, error) {
	ids, err := s.notifications.IDsForUser(userID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if len(ids) < 1 {
		return nil, apperr.Validationf("The specified user does not have any notifications")
	}
	if notificationID == "" {
		return nil, apperr.Validationf("A notification ID was not provided")
	}

	n, err := s.notifications.GetByID(notificationID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if n == nil {
		return nil, apperr.NotFoundf("The specified notification does not exist")
	}
	if !contains(ids, notificationID) {
		return nil, apperr.Validationf("The specified notification does not belong to the specified user")
	}
	if n.NotificationType != model.NotificationDeclineChore {
		return nil, apperr.Validationf("Cannot show support for this type of notificaiton")
	}
	if n.SupportedBy(userID) {
		return nil, apperr.Validationf("Cannot show support more than once for the same notification")
	}
	if n.UserID != nil && *n.UserID == userID {
		return nil, apperr.Validationf("Cannot show support for your own chore decline")
	}

	if _, err := s.notifications.AddSupporter(notificationID, userID); err != nil {
		return nil, apperr.StoreError(err)
	}
	return s.List(ctx, userID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
