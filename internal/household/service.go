// Package household implements the roster: creating and joining households,
// leaving them, inviting new members, chore display order, and member
// profiles.
package household

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/notify"
	"github.com/dukerupert/hearth/internal/store"
	"github.com/dukerupert/hearth/internal/streak"
)

// View is the household read model: member summaries instead of bare IDs,
// and the streak as it should display right now.
type View struct {
	ID                     string                `json:"_id"`
	Name                   string                `json:"name"`
	Members                []model.MemberSummary `json:"members"`
	Chores                 []string              `json:"chores"`
	ChoreAssignees         []string              `json:"choreAssignees"`
	CompletedChoreCounter  int                   `json:"completedChoreCounter"`
	CompletedChoreStreak   int                   `json:"completedChoreStreak"`
	LastCompletedChoreDate *time.Time            `json:"lastCompletedChoreDate"`
	DateCreated            time.Time             `json:"dateCreated"`
}

type Service struct {
	households *store.HouseholdStore
	users      *store.UserStore
	notify     *notify.Service
	email      *email.Client
	logger     *slog.Logger

	maxMembers int
	now        func() time.Time
}

func NewService(households *store.HouseholdStore, users *store.UserStore, notifySvc *notify.Service, emailClient *email.Client, maxMembers int, logger *slog.Logger) *Service {
	return &Service{
		households: households,
		users:      users,
		notify:     notifySvc,
		email:      emailClient,
		logger:     logger.With("component", "household"),
		maxMembers: maxMembers,
		now:        time.Now,
	}
}

// Create makes a new household with the caller as its first member.
func (s *Service) Create(ctx context.Context, actor *model.User, name string) (*model.Household, error) {
	if actor.HouseholdID != nil {
		return nil, apperr.Validationf("The specified user already belongs to a household")
	}

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, apperr.Validationf(`"name" is not allowed to be empty`)
	case len(name) < 6:
		return nil, apperr.Validationf(`"name" length must be at least 6 characters long`)
	}

	h, err := s.households.Create(name, actor.ID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if err := s.users.SetHouseholdID(actor.ID, &h.ID); err != nil {
		return nil, apperr.StoreError(err)
	}
	return h, nil
}

// Get builds the household view with member summaries and the display streak.
func (s *Service) Get(ctx context.Context, household *model.Household) (*View, error) {
	members, err := s.users.ListSummaries(household.Members)
	if err != nil {
		return nil, apperr.StoreError(err)
	}

	return &View{
		ID:                     household.ID,
		Name:                   household.Name,
		Members:                members,
		Chores:                 household.Chores,
		ChoreAssignees:         household.ChoreAssignees,
		CompletedChoreCounter:  household.CompletedChoreCounter,
		CompletedChoreStreak:   streak.Display(household.LastCompletedChoreDate, household.CompletedChoreStreak, s.now()),
		LastCompletedChoreDate: household.LastCompletedChoreDate,
		DateCreated:            household.DateCreated,
	}, nil
}

// Join adds the caller to an existing household and notifies the members
// already in it.
func (s *Service) Join(ctx context.Context, actor *model.User, householdID string) (*model.Household, error) {
	if actor.HouseholdID != nil {
		return nil, apperr.Validationf("The specified user already belongs to a household")
	}
	if householdID == "" {
		return nil, apperr.Validationf("A household ID was not provided")
	}

	h, err := s.households.GetByID(householdID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}
	if h == nil {
		return nil, apperr.NotFoundf("The specified household does not exist")
	}
	if len(h.Members) >= s.maxMembers {
		return nil, apperr.Validationf("The specified household has reached capacity")
	}

	existingMembers := h.Members

	if err := s.households.AddMember(householdID, actor.ID); err != nil {
		return nil, apperr.StoreError(err)
	}
	if err := s.users.SetHouseholdID(actor.ID, &householdID); err != nil {
		return nil, apperr.StoreError(err)
	}

	h, err = s.households.GetByID(householdID)
	if err != nil {
		return nil, apperr.StoreError(err)
	}

	n := model.NewNotification(
		actor.Name+" joined the household",
		fmt.Sprintf("There are now %d members", len(h.Members)),
		"",
	)
	if _, err := s.notify.Emit(ctx, n, existingMembers); err != nil {
		return nil, err
	}
	return h, nil
}

// Leave removes the caller from their household and notifies whoever stays.
func (s *Service) Leave(ctx context.Context, actor *model.User, household *model.Household) error {
	if len(household.Members) == 0 {
		return apperr.Validationf("The specified household does not have any members to remove")
	}
	if !household.HasMember(actor.ID) {
		return apperr.Validationf("The specified user does not belong to the specified household")
	}

	if err := s.households.RemoveMember(household.ID, actor.ID); err != nil {
		return apperr.StoreError(err)
	}
	if err := s.users.SetHouseholdID(actor.ID, nil); err != nil {
		return apperr.StoreError(err)
	}

	h, err := s.households.GetByID(household.ID)
	if err != nil {
		return apperr.StoreError(err)
	}

	if len(h.Members) > 0 {
		n := model.NewNotification(
			actor.Name+" left the household",
			fmt.Sprintf("There are now %d members", len(h.Members)),
			"",
		)
		if _, err := s.notify.Emit(ctx, n, h.Members); err != nil {
			return err
		}
	}
	return nil
}

// Invite emails someone an invitation carrying the household's join
// identifier. The wording adapts to whether the recipient already has an
// account or a household.
func (s *Service) Invite(ctx context.Context, actor *model.User, household *model.Household, toEmail string) error {
	toEmail = strings.ToLower(strings.TrimSpace(toEmail))
	switch {
	case toEmail == "":
		return apperr.Validationf(`"email" is not allowed to be empty`)
	case !validEmail(toEmail):
		return apperr.Validationf(`"email" must be a valid email`)
	}
	if actor.Email == toEmail {
		return apperr.Validationf("You cannot send an invite to yourself")
	}
	if len(household.Members) >= s.maxMembers {
		return apperr.Validationf("The specified household does not have room for any more members")
	}
	if !household.HasMember(actor.ID) {
		return apperr.Validationf("The specified user does not belong to the specified household")
	}

	recipient, err := s.users.GetByEmail(toEmail)
	if err != nil {
		return apperr.StoreError(err)
	}

	state := email.RecipientNew
	if recipient != nil {
		if recipient.HouseholdID != nil {
			if *recipient.HouseholdID == household.ID {
				return apperr.Validationf("The specified recipient is already a member of this household")
			}
			state = email.RecipientHasHousehold
		} else {
			state = email.RecipientNoHousehold
		}
	}

	if err := s.email.SendInvite(ctx, toEmail, actor.Name, household.Name, household.ID, state); err != nil {
		s.logger.Error("send invite", "to", toEmail, "error", err)
		return apperr.Validationf("The invitiation request failed")
	}
	return nil
}

// ReorderChores replaces the chore display order. The new list must be a
// permutation of the current one.
func (s *Service) ReorderChores(ctx context.Context, household *model.Household, ids []string) error {
	if ids == nil {
		return apperr.Validationf("A list of chores must be provided")
	}
	if len(ids) != len(household.Chores) {
		return apperr.Validationf("'chores' parameter must be the same length as the household chores list")
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !household.HasChore(id) {
			return apperr.Validationf("An unexpected chore ID was specified")
		}
		if seen[id] {
			return apperr.Validationf("A duplicate chore ID was specified")
		}
		seen[id] = true
	}

	if err := s.households.SetChoreOrder(household.ID, ids); err != nil {
		return apperr.StoreError(err)
	}
	return nil
}

// UpdateProfilePhoto sets the caller's avatar selection. -1 means no photo.
func (s *Service) UpdateProfilePhoto(ctx context.Context, actor *model.User, photo int) error {
	if photo < -1 || photo > 53 {
		return apperr.Validationf("Profile photo selection is out of range")
	}
	if err := s.users.SetProfilePhoto(actor.ID, photo); err != nil {
		return apperr.StoreError(err)
	}
	return nil
}

func validEmail(address string) bool {
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}
