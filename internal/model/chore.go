package model

import "time"

// Priority is the four-value chore priority enum.
type Priority string

const (
	PriorityNone   Priority = "None"
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ValidPriority reports whether p is one of the four allowed values.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Chore struct {
	ID                     string     `json:"_id"`
	Title                  string     `json:"title"`
	Description            *string    `json:"description"`
	Priority               Priority   `json:"priority"`
	DateDue                *time.Time `json:"dateDue"`
	Assignee               *string    `json:"assignee"`
	AssigneeRequestPending *string    `json:"assigneeRequestPending"`
	IsRandomAssignment     bool       `json:"isRandomAssignment"`
	IsCompleted            bool       `json:"isCompleted"`
	CompletedBy            *string    `json:"completedBy"`
	DateCompleted          *time.Time `json:"dateCompleted"`
	CreatedBy              string     `json:"createdBy"`
	UpdatedBy              *string    `json:"updatedBy"`
	LastUpdated            *time.Time `json:"lastUpdated"`
	DateCreated            time.Time  `json:"dateCreated"`
}
