// Package identity handles account registration and login. Passwords are
// stored as bcrypt hashes; sessions are stateless bearer tokens.
package identity

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const bcryptCost = 10

type Service struct {
	users  *store.UserStore
	tokens *auth.TokenManager
	email  *email.Client
	logger *slog.Logger
}

func NewService(users *store.UserStore, tokens *auth.TokenManager, emailClient *email.Client, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		email:  emailClient,
		logger: logger.With("component", "identity"),
	}
}

// Register creates an account and returns the user plus a signed token. The
// welcome email is best-effort.
func (s *Service) Register(ctx context.Context, name, emailAddr, password string) (*model.User, string, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	name = CanonicalName(name)

	if err := validateRegistration(name, emailAddr, password); err != nil {
		return nil, "", err
	}

	existing, err := s.users.GetByEmail(emailAddr)
	if err != nil {
		return nil, "", apperr.StoreError(err)
	}
	if existing != nil {
		return nil, "", apperr.Validationf("An account using this email address already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", apperr.StoreError(err)
	}

	user, err := s.users.Create(name, emailAddr, string(hash))
	if err != nil {
		return nil, "", apperr.StoreError(err)
	}

	if s.email != nil && s.email.Configured() {
		if err := s.email.SendWelcome(ctx, emailAddr, name); err != nil {
			s.logger.Error("send welcome email", "email", emailAddr, "error", err)
		}
	}

	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, "", apperr.StoreError(err)
	}
	return user, token, nil
}

// Login verifies the credentials and returns the user plus a signed token.
// The same error covers an unknown address and a wrong password.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*model.User, string, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	if err := validateLogin(emailAddr, password); err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByEmail(emailAddr)
	if err != nil {
		return nil, "", apperr.StoreError(err)
	}
	if user == nil {
		return nil, "", apperr.Validationf("Email address or password is incorrect")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.Validationf("Email address or password is incorrect")
	}

	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, "", apperr.StoreError(err)
	}
	return user, token, nil
}

// CanonicalName lowercases the name and capitalises each word, so "joe
// BLOGGS" becomes "Joe Bloggs".
func CanonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	words := strings.Split(name, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func validateRegistration(name, emailAddr, password string) error {
	switch {
	case name == "":
		return apperr.Validationf(`"name" is required`)
	case len(name) < 2:
		return apperr.Validationf(`"name" length must be at least 2 characters long`)
	}
	if err := validateLogin(emailAddr, password); err != nil {
		return err
	}
	if len(password) < 6 {
		return apperr.Validationf(`"password" length must be at least 6 characters long`)
	}
	return nil
}

func validateLogin(emailAddr, password string) error {
	switch {
	case emailAddr == "":
		return apperr.Validationf(`"email" is required`)
	case !validEmail(emailAddr):
		return apperr.Validationf(`"email" must be a valid email`)
	case password == "":
		return apperr.Validationf(`"password" is required`)
	}
	return nil
}

func validEmail(address string) bool {
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}
