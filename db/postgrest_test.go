package db

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lh3/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userRowJSON = `{
	"id": "u-1",
	"username": "alice",
	"email": "alice@x.com",
	"password_hash": "$2a$10$digest",
	"role": "member",
	"privacy_settings": {"profile": "public", "runs": "private", "stats": "public"},
	"created_at": "2025-05-01T10:00:00Z",
	"updated_at": "2025-05-01T10:00:00Z"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *PostgRESTClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewPostgRESTClient(server.URL, "test-api-key")
}

func TestPostgRESTUserRepository_FindByUsername(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/users", r.URL.Path)
		assert.Equal(t, "eq.alice", r.URL.Query().Get("username"))
		assert.Equal(t, "test-api-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		fmt.Fprintf(w, "[%s]", userRowJSON)
	})
	repo := NewPostgRESTUserRepository(client)

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleMember, user.Role)
	assert.Equal(t, models.VisibilityPrivate, user.PrivacySettings[models.PrivacyFieldRuns])
}

func TestPostgRESTUserRepository_EmptyResultIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	})
	repo := NewPostgRESTUserRepository(client)

	_, err := repo.FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestPostgRESTUserRepository_ServerErrorIsStoreUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	repo := NewPostgRESTUserRepository(client)

	_, err := repo.FindByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestPostgRESTUserRepository_UnreachableIsStoreUnavailable(t *testing.T) {
	client := NewPostgRESTClient("http://127.0.0.1:1", "key")
	repo := NewPostgRESTUserRepository(client)

	_, err := repo.FindByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestPostgRESTUserRepository_ConflictIsDuplicate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	repo := NewPostgRESTUserRepository(client)

	user := &models.User{Username: "alice", Email: "alice@x.com", Role: models.RoleMember}
	assert.ErrorIs(t, repo.Create(context.Background(), user), ErrDuplicate)
}

func TestPostgRESTUserRepository_MalformedRows(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing username", `[{"id": "u-1", "email": "a@x.com", "role": "member"}]`},
		{"missing role", `[{"id": "u-1", "username": "a", "email": "a@x.com"}]`},
		{"mis-typed username", `[{"id": "u-1", "username": 42, "email": "a@x.com", "role": "member"}]`},
		{"not an array", `{"id": "u-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			repo := NewPostgRESTUserRepository(client)

			_, err := repo.FindByUsername(context.Background(), "a")
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestPostgRESTUserRepository_MissingPrivacyKeysNormalized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": "u-1", "username": "a", "email": "a@x.com", "role": "member", "privacy_settings": {"stats": "private"}}]`)
	})
	repo := NewPostgRESTUserRepository(client)

	user, err := repo.FindByUsername(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, user.PrivacySettings[models.PrivacyFieldProfile])
	assert.Equal(t, models.VisibilityPublic, user.PrivacySettings[models.PrivacyFieldRuns])
	assert.Equal(t, models.VisibilityPrivate, user.PrivacySettings[models.PrivacyFieldStats])
}

func TestPostgRESTUserRepository_AbsentPasswordHashAllowed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": "u-1", "username": "a", "email": "a@x.com", "role": "member"}]`)
	})
	repo := NewPostgRESTUserRepository(client)

	user, err := repo.FindByUsername(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
}

func TestPostgRESTRSVPRepository_UpsertReplaces(t *testing.T) {
	var patched bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `[{"id": "r-1", "event_id": "e-1", "user_id": "u-1", "status": "yes"}]`)
		case http.MethodPatch:
			patched = true
			assert.Equal(t, "eq.r-1", r.URL.Query().Get("id"))
			fmt.Fprint(w, `[{"id": "r-1", "event_id": "e-1", "user_id": "u-1", "status": "no"}]`)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})
	repo := NewPostgRESTRSVPRepository(client)

	rsvp, err := repo.Upsert(context.Background(), &models.RSVP{EventID: "e-1", UserID: "u-1", Status: models.RSVPNo})
	require.NoError(t, err)
	assert.True(t, patched)
	assert.Equal(t, models.RSVPNo, rsvp.Status)
}

func TestPostgRESTClient_InsertSendsRepresentationHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		fmt.Fprintf(w, "[%s]", userRowJSON)
	})

	_, err := client.Insert(context.Background(), "users", map[string]interface{}{"username": "alice"})
	require.NoError(t, err)
}
