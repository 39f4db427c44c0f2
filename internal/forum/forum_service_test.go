package forum

import (
	"context"
	"errors"
	"testing"

	"lh3/db"
	"lh3/internal/auth"
	"lh3/tests/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*ForumService, db.UserRepository) {
	factory := testutils.SetupTestRepositoryFactory(t)
	return NewForumService(factory.NewForumPostRepository()), factory.NewUserRepository()
}

func TestCreateAndList(t *testing.T) {
	service, userRepo := setupService(t)
	ctx := context.Background()
	author := testutils.CreateTestUser("alice")
	require.NoError(t, userRepo.Create(ctx, author))

	first, err := service.Create(ctx, author, "Trail suggestions", "Anyone know the quarry loop?")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, author.ID, first.UserID)

	_, err = service.Create(ctx, author, "Circle etiquette", "Down-downs are not optional.")
	require.NoError(t, err)

	posts, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.False(t, posts[0].CreatedAt.Before(posts[1].CreatedAt))
}

func TestCreate_Validation(t *testing.T) {
	service, userRepo := setupService(t)
	ctx := context.Background()
	author := testutils.CreateTestUser("alice")
	require.NoError(t, userRepo.Create(ctx, author))

	_, err := service.Create(ctx, nil, "Title", "Content")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	var validationErr *auth.ValidationError
	_, err = service.Create(ctx, author, "", "Content")
	assert.True(t, errors.As(err, &validationErr))

	_, err = service.Create(ctx, author, "Title", "")
	assert.True(t, errors.As(err, &validationErr))
}

func TestGet(t *testing.T) {
	service, userRepo := setupService(t)
	ctx := context.Background()
	author := testutils.CreateTestUser("alice")
	require.NoError(t, userRepo.Create(ctx, author))

	created, err := service.Create(ctx, author, "Lost property", "Found a whistle at the finish.")
	require.NoError(t, err)

	got, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lost property", got.Title)
}
