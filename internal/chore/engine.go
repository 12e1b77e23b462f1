// Package chore implements the chore lifecycle: creation, assignment,
// takeover requests, completion, and deletion. All transitions run as guarded
// updates so two concurrent requests cannot both win the same transition.
package chore

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/notify"
	"github.com/dukerupert/hearth/internal/store"
	"github.com/dukerupert/hearth/internal/streak"
)

// Engine coordinates chore transitions across the chore, household, and
// notification stores. randIndex and now are injectable for tests.
type Engine struct {
	chores     *store.ChoreStore
	households *store.HouseholdStore
	notify     *notify.Service
	logger     *slog.Logger

	maxChores int
	randIndex func(n int) int
	now       func() time.Time
}

func NewEngine(chores *store.ChoreStore, households *store.HouseholdStore, notifySvc *notify.Service, maxChores int, logger *slog.Logger) *Engine {
	return &Engine{
		chores:     chores,
		households: households,
		notify:     notifySvc,
		logger:     logger.With("component", "chore"),
		maxChores:  maxChores,
		randIndex:  rand.Intn,
		now:        time.Now,
	}
}

// Get returns a single chore belonging to the household.
func (e *Engine) Get(ctx context.Context, household *model.Household, choreID string) (*model.Chore, error) {
	c, err := e.loadChore(choreID)
	if err != nil {
		return nil, err
	}
	if !household.HasChore(choreID) {
		return nil, apperr.Validationf("The specified chore does not belong to the specified household")
	}
	return c, nil
}

// List returns all of the household's chores in display order.
func (e *Engine) List(ctx context.Context, household *model.Household) ([]model.Chore, error) {
	chores, err := e.chores.ListByIDs(household.Chores)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	return chores, nil
}

// Create adds a new unassigned chore to the household.
func (e *Engine) Create(ctx context.Context, household *model.Household, actor *model.User, title string) (*model.Chore, error) {
	if len(household.Chores) >= e.maxChores {
		return nil, apperr.Validationf("The specified household has reached the maximum amount of chores")
	}

	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	c, err := e.chores.Create(title, actor.ID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if err := e.households.AppendChore(household.ID, c.ID); err != nil {
		return nil, apperr.StoreError(err)
	}
	return c, nil
}

// UpdateParams carries the optional detail changes for Update. Nil fields
// keep the current value, except Description, where nil clears it.
type UpdateParams struct {
	Title       *string
	Description *string
	Priority    *model.Priority
	DateDue     *time.Time
}

// Update edits a chore's details. Completed chores are immutable.
func (e *Engine) Update(ctx context.Context, household *model.Household, actor *model.User, choreID string, params UpdateParams) (*model.Chore, error) {
	c, err := e.loadChore(choreID)
	if err != nil {
		return nil, err
	}
	if c.IsCompleted {
		return nil, apperr.Validationf("Cannot update a chore which has already been completed")
	}
	if !household.HasChore(choreID) {
		return nil, apperr.Validationf("The specified chore does not belong to the specified household")
	}

	title := c.Title
	if params.Title != nil && strings.TrimSpace(*params.Title) != "" {
		title = strings.TrimSpace(*params.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
	}

	description := params.Description
	if description != nil {
		trimmed := strings.TrimSpace(*description)
		if trimmed == "" {
			description = nil
		} else {
			if len(trimmed) > 2000 {
				return nil, apperr.Validationf(`"description" length must be less than or equal to 2000 characters long`)
			}
			description = &trimmed
		}
	}

	priority := c.Priority
	if params.Priority != nil {
		if !model.ValidPriority(*params.Priority) {
			return nil, apperr.Validationf(`"priority" must be one of [None, Low, Medium, High]`)
		}
		priority = *params.Priority
	}

	dateDue := c.DateDue
	if params.DateDue != nil {
		if params.DateDue.Before(startOfDay(e.now())) {
			return nil, apperr.Validationf(`"dateDue" must be greater than or equal to today`)
		}
		dateDue = params.DateDue
	}

	updated, err := e.chores.UpdateDetails(choreID, title, description, priority, dateDue, actor.ID, e.now())
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	return updated, nil
}

// AssignRandom assigns the chore to a member drawn from the household's
// rotation pool. The drawn member leaves the pool; when the pool empties it
// is refilled with the full member list so everyone becomes drawable again.
func (e *Engine) AssignRandom(ctx context.Context, household *model.Household, choreID string) (*model.Chore, error) {
	c, err := e.loadChore(choreID)
	if err != nil {
		return nil, err
	}
	if c.IsCompleted {
		return nil, apperr.Validationf("Cannot assign a chore which has already been completed")
	}
	if c.Assignee != nil {
		return nil, apperr.Validationf("Cannot assign a chore which is already assigned")
	}
	if !household.HasChore(choreID) {
		return nil, apperr.Validationf("The specified chore does not belong to the specified household")
	}

	pool := household.ChoreAssignees
	if len(pool) == 0 {
		return nil, apperr.Validationf("There are no assignees available within the household")
	}

	i := e.randIndex(len(pool))
	assignee := pool[i]

	ok, err := e.chores.AssignIfUnassigned(choreID, assignee, true)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if !ok {
		return nil, apperr.Preconditionf("Cannot assign a chore which is already assigned")
	}

	remaining := make([]string, 0, len(pool)-1)
	remaining = append(remaining, pool[:i]...)
	remaining = append(remaining, pool[i+1:]...)
	if len(remaining) == 0 {
		remaining = household.Members
	}
	if err := e.households.SetChoreAssignees(household.ID, remaining); err != nil {
		return nil, apperr.StoreError(err)
	}

	updated, err := e.chores.GetByID(choreID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}

	n := model.NewTypedNotification(
		model.NotificationRandomAssignment,
		"A chore was randomly assigned to you",
		"Chore title: "+updated.Title,
		choreID,
	)
	if _, err := e.notify.Emit(ctx, n, []string{assignee}); err != nil {
		return nil, err
	}
	return updated, nil
}

// AssignSelf assigns the chore to the caller.
func (e *Engine) AssignSelf(ctx context.Context, household *model.Household, actor *model.User, choreID string) (*model.Chore, error) {
	c, err := e.loadChore(choreID)
	if err != nil {
		return nil, err
	}
	if c.IsCompleted {
		return nil, apperr.Validationf("Cannot assign a chore which has already been completed")
	}
	if c.Assignee != nil {
		return nil, apperr.Validationf("Cannot assign a chore which is already assigned")
	}
	if !household.HasChore(choreID) {
		return nil, apperr.Validationf("The specified chore does not belong to the specified household")
	}

	ok, err := e.chores.AssignIfUnassigned(choreID, actor.ID, false)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if !ok {
		return nil, apperr.Preconditionf("Cannot assign a chore which is already assigned")
	}

	updated, err := e.chores.GetByID(choreID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}

	n := model.NewNotification("You assigned a chore to yourself", "Chore title: "+updated.Title, choreID)
	if _, err := e.notify.Emit(ctx, n, []string{actor.ID}); err != nil {
		return nil, err
	}
	return updated, nil
}

// RequestAssignment asks the current assignee to hand the chore over. If the
// assignee has since left the household the chore transfers immediately.
func (e *Engine) RequestAssignment(ctx context.Context, household *model.Household, actor *model.User, choreID string) (*model.Chore, error) {
	c, err := e.loadChore(choreID)
	if err != nil {
		return nil, err
	}
	if c.IsCompleted {
		return nil, apperr.Validationf("Cannot request assignment for a chore which has already been completed")
	}
	if c.Assignee == nil {
		return nil, apperr.Validationf("Cannot request assignment for a chore which is unassigned")
	}
	if c.AssigneeRequestPending != nil {
		return nil, apperr.Validationf("The specified chore already has a pending assignee request")
	}
	if *c.Assignee == actor.ID {
		return nil, apperr.Validationf("The specified chore is already assigned to the specified user")
	}
	if !household.HasChore(choreID) {
		return nil, apperr.Validationf("The specified chore does not belong to the specified household")
	}

	// Departed assignees cannot respond, so the chore transfers directly.
	if !household.HasMember(*c.Assignee) {
		if err := e.chores.Reassign(choreID, actor.ID); err != nil {
			return nil, apperr.StoreError(err)
		}
		updated, err := e.chores.GetByID(choreID)
		if err != nil {
			return nil, apperr.StoreError(err)
		}
		return updated, nil
	}

	ok, err := e.chores.SetPendingIfNone(choreID, actor.ID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if !ok {
		return nil, apperr.Preconditionf("The specified chore already has a pending assignee request")
	}

	updated, err := e.chores.GetByID(choreID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}

	n := model.NewTypedNotification(
		model.NotificationChoreRequest,
		actor.Name+" requested assignment of your chore",
		"Chore title: "+updated.Title,
		choreID,
	)
	if _, err := e.notify.Emit(ctx, n, []string{*updated.Assignee}); err != nil {
		return nil, err
	}
	return updated, nil
}

// RespondToRequest lets the assignee accept or decline a pending takeover
// request. A request from a member who has since left is simply voided.
func (e *Engine) RespondToRequest(ctx context.Context, household *model.Household, actor *model.User, choreID, response string) (*model.Chore, error) {
	if response != "accept" && response != "decline" {
		return nil, apperr.Validationf("Request response must be 'accept' or 'decline'")
	}

	c, err := e.loadChore(choreID)
	if err != nil {
		return nil, err
	}
	if c.IsCompleted {
		return nil, apperr.Validationf("Cannot alter assignment for a chore which has already been completed")
	}
	if c.Assignee == nil {
		return nil, apperr.Validationf("Cannot request assignment for a chore which is unassigned")
	}
	if c.AssigneeRequestPending == nil {
		return nil, apperr.Validationf("The specified chore does not have a pending assignee request")
	}
	if *c.Assignee == *c.AssigneeRequestPending {
		return nil, apperr.Validationf("The specified chore is already assigned to the requesting user")
	}
	if !household.HasChore(choreID) {
		return nil, apperr.Validationf("The specified chore does not belong to the specified household")
	}

	requester := *c.AssigneeRequestPending

	// The requester left the household, so the request is void.
	if !household.HasMember(requester) {
		if err := e.chores.ClearPending(choreID); err != nil {
			return nil, apperr.StoreError(err)
		}
		updated, err := e.chores.GetByID(choreID)
		if err != nil {
			return nil, apperr.StoreError(err)
		}
		return updated, nil
	}

	if response == "accept" {
		if err := e.chores.Reassign(choreID, requester); err != nil {
			return nil, apperr.StoreError(err)
		}
	} else {
		if err := e.chores.ClearPending(choreID); err != nil {
			return nil, apperr.StoreError(err)
		}
	}

	updated, err := e.chores.GetByID(choreID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}

	verb := "declined"
	if response == "accept" {
		verb = "accepted"
	}
	n := model.NewNotification(
		fmt.Sprintf("%s %s your request", actor.Name, verb),
		"Chore title: "+updated.Title,
		choreID,
	)
	if _, err := e.notify.Emit(ctx, n, []string{requester}); err != nil {
		return nil, err
	}
	return updated, nil
}

// Complete marks the chore done, bumps the household counters and streak,
// and notifies every member except the completer. Completion is terminal.
func (e *Engine) Complete(ctx context.Context, household *model.Household, actor *model.User, choreID string) (*model.Chore, error) {
	c, err := e.loadChore(choreID)
	if err != nil {
		return nil, err
	}
	if c.IsCompleted {
		return nil, apperr.Validationf("The specified chore has already been completed")
	}
	if !household.HasChore(choreID) {
		return nil, apperr.Validationf("The specified chore does not belong to the specified household")
	}

	now := e.now()
	ok, err := e.chores.CompleteIfIncomplete(choreID, actor.ID, now)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if !ok {
		return nil, apperr.Preconditionf("The specified chore has already been completed")
	}

	if err := e.households.IncrementCompletedCounter(household.ID); err != nil {
		return nil, apperr.StoreError(err)
	}
	newStreak := streak.Advance(household.LastCompletedChoreDate, household.CompletedChoreStreak, now)
	if err := e.households.SetStreak(household.ID, newStreak, now); err != nil {
		return nil, apperr.StoreError(err)
	}

	updated, err := e.chores.GetByID(choreID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}

	recipients := make([]string, 0, len(household.Members))
	for _, memberID := range household.Members {
		if memberID != actor.ID {
			recipients = append(recipients, memberID)
		}
	}
	if len(recipients) > 0 {
		n := model.NewNotification(actor.Name+" completed a chore", "Chore title: "+updated.Title, choreID)
		if _, err := e.notify.Emit(ctx, n, recipients); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// DeclineAssignment lets the assignee give a chore back with a reason. The
// whole household is notified and can show support. A pending requester who
// is still a member inherits the chore and is told their request was
// accepted.
func (e *Engine) DeclineAssignment(ctx context.Context, household *model.Household, actor *model.User, choreID, reason string) (*model.Chore, error) {
	if reason == "" {
		return nil, apperr.Validationf("A reason must be provided to decline a random chore assignment")
	}

	c, err := e.loadChore(choreID)
	if err != nil {
		return nil, err
	}
	if c.IsCompleted {
		return nil, apperr.Validationf("Cannot alter assignment for a chore which has already been completed")
	}
	if c.Assignee == nil {
		return nil, apperr.Validationf("Cannot decline assignment for a chore which is unassigned")
	}
	if *c.Assignee != actor.ID {
		return nil, apperr.Validationf("The specified user is not assigned to the specified chore")
	}
	if !household.HasChore(choreID) {
		return nil, apperr.Validationf("The specified chore does not belong to the specified household")
	}

	var newAssignee string
	if c.AssigneeRequestPending != nil && household.HasMember(*c.AssigneeRequestPending) {
		newAssignee = *c.AssigneeRequestPending
	}

	if newAssignee != "" {
		if err := e.chores.Reassign(choreID, newAssignee); err != nil {
			return nil, apperr.StoreError(err)
		}
	} else {
		if err := e.chores.Unassign(choreID); err != nil {
			return nil, apperr.StoreError(err)
		}
	}

	updated, err := e.chores.GetByID(choreID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}

	decline := model.NewDeclineNotification(
		actor.Name+" declined a chore",
		"Chore title: "+updated.Title,
		choreID,
		actor.ID,
		reason,
	)
	if _, err := e.notify.Emit(ctx, decline, household.Members); err != nil {
		return nil, err
	}

	if newAssignee != "" {
		accepted := model.NewNotification(actor.Name+" accepted your request", "Chore title: "+updated.Title, choreID)
		if _, err := e.notify.Emit(ctx, accepted, []string{newAssignee}); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Delete removes the chore and its reference from the household list.
func (e *Engine) Delete(ctx context.Context, household *model.Household, choreID string) error {
	_, err := e.loadChore(choreID)
	if err != nil {
		return err
	}
	if !household.HasChore(choreID) {
		return apperr.Validationf("The specified chore does not belong to the specified household")
	}

	if err := e.chores.Delete(choreID); err != nil {
		return apperr.StoreError(err)
	}
	if err := e.households.RemoveChore(household.ID, choreID); err != nil {
		return apperr.StoreError(err)
	}
	return nil
}

func (e *Engine) loadChore(choreID string) (*model.Chore, error) {
	if choreID == "" {
		return nil, apperr.Validationf("A chore ID was not provided")
	}
	c, err := e.chores.GetByID(choreID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if c == nil {
		return nil, apperr.NotFoundf("The specified chore does not exist")
	}
	return c, nil
}

func validateTitle(title string) error {
	switch {
	case title == "":
		return apperr.Validationf(`"title" is not allowed to be empty`)
	case len(title) < 2:
		return apperr.Validationf(`"title" length must be at least 2 characters long`)
	case len(title) > 255:
		return apperr.Validationf(`"title" length must be less than or equal to 255 characters long`)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
