package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/store"
)

const tokenHeader = "auth-token"

// RequireAuth validates the bearer token in the auth-token header, loads the
// caller and their household, and populates AuthContext.
func RequireAuth(tokens *auth.TokenManager, users *store.UserStore, households *store.HouseholdStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(tokenHeader)
			if token == "" {
				http.Error(w, "Access Denied", http.StatusUnauthorized)
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				http.Error(w, "Invalid Token", http.StatusBadRequest)
				return
			}

			user, err := users.GetByID(userID)
			if err != nil || user == nil {
				writeAuthError(w, http.StatusUnauthorized, "User no longer exists")
				return
			}

			ac := auth.AuthContext{User: user}
			if user.HouseholdID != nil {
				household, err := households.GetByID(*user.HouseholdID)
				if err != nil {
					writeAuthError(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				ac.Household = household
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireHousehold rejects callers who have not joined a household. It must
// run after RequireAuth.
func RequireHousehold(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.HouseholdID(r.Context()) == "" {
			writeAuthError(w, http.StatusBadRequest, "The specified user does not belong to a household")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": true, "message": message})
}
