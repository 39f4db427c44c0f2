package events

import (
	"context"
	"testing"
	"time"

	"lh3/db"
	"lh3/internal/auth"
	"lh3/models"
	"lh3/tests/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*EventService, db.UserRepository) {
	factory := testutils.SetupTestRepositoryFactory(t)
	service := NewEventService(factory.NewEventRepository(), factory.NewRSVPRepository())
	return service, factory.NewUserRepository()
}

func TestEventService_CreateAndList(t *testing.T) {
	service, userRepo := setupService(t)
	ctx := context.Background()

	creator := testutils.CreateTestUser("hare")
	require.NoError(t, userRepo.Create(ctx, creator))

	later, err := service.Create(ctx, creator, CreateInput{
		RunNumber:  101,
		Descriptor: "Red Dress Run",
		Address:    "Market Square",
		EventDate:  time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, creator.ID, later.CreatedBy)

	earlier, err := service.Create(ctx, creator, CreateInput{
		RunNumber:  100,
		Descriptor: "Full Moon Run",
		Address:    "Town Hall",
		EventDate:  time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	listed, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, earlier.ID, listed[0].ID)
	assert.Equal(t, later.ID, listed[1].ID)
}

func TestEventService_CreateValidation(t *testing.T) {
	service, userRepo := setupService(t)
	ctx := context.Background()

	creator := testutils.CreateTestUser("hare")
	require.NoError(t, userRepo.Create(ctx, creator))

	_, err := service.Create(ctx, creator, CreateInput{Descriptor: "No number"})
	var validationErr *auth.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = service.Create(ctx, nil, CreateInput{
		RunNumber:  1,
		Descriptor: "Anonymous",
		Address:    "Nowhere",
		EventDate:  time.Now(),
	})
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestEventService_RSVP(t *testing.T) {
	service, userRepo := setupService(t)
	ctx := context.Background()

	creator := testutils.CreateTestUser("hare")
	require.NoError(t, userRepo.Create(ctx, creator))
	runner := testutils.CreateTestUser("runner")
	require.NoError(t, userRepo.Create(ctx, runner))

	event, err := service.Create(ctx, creator, CreateInput{
		RunNumber:  1,
		Descriptor: "Inaugural Run",
		Address:    "Trail head",
		EventDate:  time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	first, err := service.RSVP(ctx, runner, event.ID, models.RSVPYes)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPYes, first.Status)

	// A second answer replaces the first instead of adding a row
	second, err := service.RSVP(ctx, runner, event.ID, models.RSVPMaybe)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPMaybe, second.Status)

	all, err := service.RSVPs(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEventService_RSVPValidation(t *testing.T) {
	service, userRepo := setupService(t)
	ctx := context.Background()

	runner := testutils.CreateTestUser("runner")
	require.NoError(t, userRepo.Create(ctx, runner))

	_, err := service.RSVP(ctx, runner, "missing-event", models.RSVPStatus("banana"))
	var validationErr *auth.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = service.RSVP(ctx, runner, "missing-event", models.RSVPYes)
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = service.RSVP(ctx, nil, "missing-event", models.RSVPYes)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}
