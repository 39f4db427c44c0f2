package forum

import (
	"context"
	"fmt"
	"sort"

	"lh3/db"
	"lh3/internal/auth"
	"lh3/models"
)

// ForumService wraps the club forum
type ForumService struct {
	posts db.ForumPostRepository
}

// NewForumService creates a new ForumService
func NewForumService(posts db.ForumPostRepository) *ForumService {
	return &ForumService{posts: posts}
}

// List returns every post newest first
func (s *ForumService) List(ctx context.Context) ([]*models.ForumPost, error) {
	posts, err := s.posts.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// Get returns one post
func (s *ForumService) Get(ctx context.Context, id string) (*models.ForumPost, error) {
	return s.posts.FindByID(ctx, id)
}

// Create records a new post by author
func (s *ForumService) Create(ctx context.Context, author *models.User, title, content string) (*models.ForumPost, error) {
	if author == nil {
		return nil, auth.ErrForbidden
	}
	if title == "" || content == "" {
		return nil, &auth.ValidationError{Message: "Title and content are required"}
	}

	post := &models.ForumPost{
		Title:   title,
		Content: content,
		UserID:  author.ID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating forum post: %w", err)
	}
	return post, nil
}
