package models

import "time"

// RSVPStatus is a member's answer to an event invitation
type RSVPStatus string

const (
	RSVPYes   RSVPStatus = "yes"
	RSVPMaybe RSVPStatus = "maybe"
	RSVPNo    RSVPStatus = "no"
)

// ValidRSVPStatus reports whether s is one of the accepted answers
func ValidRSVPStatus(s RSVPStatus) bool {
	switch s {
	case RSVPYes, RSVPMaybe, RSVPNo:
		return true
	}
	return false
}

// Event represents a scheduled club run
type Event struct {
	ID          string    `json:"id"`
	RunNumber   int       `json:"run_number"`
	Descriptor  string    `json:"descriptor"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Address     string    `json:"address"`
	EventDate   time.Time `json:"event_date"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RSVP records one member's answer for one event. A member has at most
// one RSVP per event; answering again replaces the previous answer.
type RSVP struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	UserID    string     `json:"user_id"`
	Status    RSVPStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
