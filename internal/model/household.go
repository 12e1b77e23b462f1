package model

import "time"

// Household owns the member roster, the user-ordered chore list, and the
// rotation pool used for random assignment. Members and chores preserve
// insertion order; ChoreAssignees is the subset of members not yet randomly
// assigned a chore in the current rotation cycle.
type Household struct {
	ID                     string     `json:"_id"`
	Name                   string     `json:"name"`
	Members                []string   `json:"members"`
	Chores                 []string   `json:"chores"`
	ChoreAssignees         []string   `json:"choreAssignees"`
	CompletedChoreCounter  int        `json:"completedChoreCounter"`
	CompletedChoreStreak   int        `json:"completedChoreStreak"`
	LastCompletedChoreDate *time.Time `json:"lastCompletedChoreDate"`
	DateCreated            time.Time  `json:"dateCreated"`
}

// HasMember reports whether userID is in the member list.
func (h *Household) HasMember(userID string) bool {
	for _, m := range h.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// HasChore reports whether choreID is in the household's chore list.
func (h *Household) HasChore(choreID string) bool {
	for _, c := range h.Chores {
		if c == choreID {
			return true
		}
	}
	return false
}

// MemberSummary is the member projection returned by the household read path.
type MemberSummary struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	ProfilePhoto int    `json:"profilePhoto"`
}
