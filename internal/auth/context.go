package auth

import (
	"context"

	"github.com/dukerupert/hearth/internal/model"
)

type contextKey struct{}

// AuthContext carries the authenticated caller through a request. User is
// always set; Household is nil for users who have not joined one yet.
type AuthContext struct {
	User      *model.User
	Household *model.Household
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok || ac.User == nil {
		return ""
	}
	return ac.User.ID
}

func HouseholdID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok || ac.Household == nil {
		return ""
	}
	return ac.Household.ID
}
