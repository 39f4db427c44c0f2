package events

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lh3/db"
	"lh3/internal/auth"
	"lh3/models"
)

// EventService wraps run listings and RSVPs
type EventService struct {
	events db.EventRepository
	rsvps  db.RSVPRepository
}

// NewEventService creates a new EventService
func NewEventService(events db.EventRepository, rsvps db.RSVPRepository) *EventService {
	return &EventService{events: events, rsvps: rsvps}
}

// List returns every run ordered by date
func (s *EventService) List(ctx context.Context) ([]*models.Event, error) {
	events, err := s.events.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].EventDate.Before(events[j].EventDate)
	})
	return events, nil
}

// Get returns one run
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	return s.events.FindByID(ctx, id)
}

// CreateInput is the new-run form
type CreateInput struct {
	RunNumber   int
	Descriptor  string
	Description string
	Location    string
	Address     string
	EventDate   time.Time
}

// Create validates the input and records a new run with creator as owner
func (s *EventService) Create(ctx context.Context, creator *models.User, input CreateInput) (*models.Event, error) {
	if creator == nil {
		return nil, auth.ErrForbidden
	}
	if input.RunNumber <= 0 || input.Descriptor == "" || input.Address == "" || input.EventDate.IsZero() {
		return nil, &auth.ValidationError{Message: "Run number, descriptor, date and address are required"}
	}

	event := &models.Event{
		RunNumber:   input.RunNumber,
		Descriptor:  input.Descriptor,
		Description: input.Description,
		Location:    input.Location,
		Address:     input.Address,
		EventDate:   input.EventDate,
		CreatedBy:   creator.ID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return event, nil
}

// Update applies an edit if user is the creator or an admin
func (s *EventService) Update(ctx context.Context, user *models.User, event *models.Event) error {
	if !auth.CanManageEvent(user, event) {
		return auth.ErrForbidden
	}
	return s.events.Update(ctx, event)
}

// RSVP records a member's answer for a run. Answering a second time
// replaces the previous answer.
func (s *EventService) RSVP(ctx context.Context, user *models.User, eventID string, status models.RSVPStatus) (*models.RSVP, error) {
	if user == nil {
		return nil, auth.ErrForbidden
	}
	if !models.ValidRSVPStatus(status) {
		return nil, &auth.ValidationError{Message: "RSVP must be yes, maybe or no"}
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.rsvps.Upsert(ctx, &models.RSVP{
		EventID: eventID,
		UserID:  user.ID,
		Status:  status,
	})
}

// RSVPs returns every answer for a run
func (s *EventService) RSVPs(ctx context.Context, eventID string) ([]*models.RSVP, error) {
	return s.rsvps.FindByEvent(ctx, eventID)
}
