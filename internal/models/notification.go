package models

import "time"

// NotificationAudience selects who a notification is for.
type NotificationAudience string

const (
	NotificationAudienceRequester NotificationAudience = "REQUESTER"
	NotificationAudienceAdmins    NotificationAudience = "ADMINS"
)

// NotificationPriority orders delivery urgency.
type NotificationPriority string

const (
	NotificationPriorityNormal NotificationPriority = "NORMAL"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
)

// Notification is a persisted outbound message about an allocation outcome.
// Actual delivery (email, push) is an external collaborator; the engine only
// records what should be said and to whom.
type Notification struct {
	ID           string               `db:"id" json:"id"`
	Audience     NotificationAudience `db:"audience" json:"audience"`
	RequesterRef *string              `db:"requester_ref" json:"requester_ref,omitempty"`
	Title        string               `db:"title" json:"title"`
	Body         string               `db:"body" json:"body"`
	Priority     NotificationPriority `db:"priority" json:"priority"`
	RelatedType  string               `db:"related_type" json:"related_type"`
	RelatedID    string               `db:"related_id" json:"related_id"`
	CreatedAt    time.Time            `db:"created_at" json:"created_at"`
}
