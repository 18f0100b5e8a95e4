package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mauryajatin45/blogfront/blog/domain"
	"github.com/mauryajatin45/blogfront/shared/auth"
)

func newSession(t *testing.T, token string) *auth.Session {
	t.Helper()
	session, err := auth.NewSession(auth.NewStore(filepath.Join(t.TempDir(), "token")))
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, session.Login(token))
	}
	return session
}

func TestListPosts(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"page":   r.URL.Query().Get("page"),
			"search": r.URL.Query().Get("search"),
			"sort":   r.URL.Query().Get("sort"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"posts":[{"_id":"p1","title":"First"}],"page":2,"pages":5,"total":42}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, ""))
	page, err := client.ListPosts(context.Background(), domain.ListQuery{
		Page:   2,
		Search: "go",
		Sort:   domain.SortTitle,
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"page": "2", "search": "go", "sort": "title"}, gotQuery)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "First", page.Posts[0].Title)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.Pages)
	assert.Equal(t, 42, page.Total)
}

func TestListPosts_MissingPaginationDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"posts":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, ""))
	page, err := client.ListPosts(context.Background(), domain.ListQuery{Page: 1})

	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Pages)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Posts)
}

// A body without the posts field is a malformed envelope: it normalizes to
// exactly the same empty result as a network failure.
func TestListPosts_MalformedEnvelopeMatchesNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":3,"pages":9}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, ""))
	fromMalformed, err := client.ListPosts(context.Background(), domain.ListQuery{Page: 1})
	require.Error(t, err)

	down := NewClient("http://127.0.0.1:1", newSession(t, ""), WithTimeout(200*time.Millisecond))
	fromFailure, err := down.ListPosts(context.Background(), domain.ListQuery{Page: 1})
	require.Error(t, err)

	assert.Equal(t, fromFailure, fromMalformed)
	assert.Equal(t, domain.EmptyPage(), fromMalformed)
}

func TestGetPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/p1", r.URL.Path)
		w.Write([]byte(`{"post":{"_id":"p1","title":"First","content":"# Hi"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, ""))
	post, err := client.GetPost(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "First", post.Title)
	assert.Equal(t, "# Hi", post.Content)
}

func TestGetPost_FailuresResolveToNotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "Malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"unexpected":true}`))
			},
		},
		{
			name: "Invalid JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, newSession(t, ""))
			_, err := client.GetPost(context.Background(), "p1")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestGetPost_NetworkFailureResolvesToNotFound(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", newSession(t, ""), WithTimeout(200*time.Millisecond))
	_, err := client.GetPost(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreatePost(t *testing.T) {
	var gotAuth string
	var gotFields map[string]string
	var hadImagePart bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{
			"title":    r.FormValue("title"),
			"content":  r.FormValue("content"),
			"category": r.FormValue("category"),
		}
		_, _, err := r.FormFile("image")
		hadImagePart = err == nil
		w.Write([]byte(`{"_id":"new1","title":"Created"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, "token123"))
	post, err := client.CreatePost(context.Background(), domain.PostDraft{
		Title:    "Created",
		Content:  "# Created\n\nBody.",
		Category: "General",
		Image:    &domain.ImageFile{Name: "cover.png", Data: []byte{1, 2, 3}},
	})

	require.NoError(t, err)
	assert.Equal(t, "new1", post.ID)
	assert.Equal(t, "Bearer token123", gotAuth)
	assert.Equal(t, "Created", gotFields["title"])
	assert.Equal(t, "# Created\n\nBody.", gotFields["content"])
	assert.Equal(t, "General", gotFields["category"])
	assert.True(t, hadImagePart, "image part missing from multipart body")
}

// A draft without a newly chosen file must omit the image part entirely:
// keep-existing, not remove.
func TestUpdatePost_NoNewImageOmitsPart(t *testing.T) {
	var hadImagePart bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/posts/p1", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("image")
		hadImagePart = err == nil
		w.Write([]byte(`{"_id":"p1","title":"Updated"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, "token123"))
	_, err := client.UpdatePost(context.Background(), "p1", domain.PostDraft{
		Title:    "Updated",
		Content:  "body",
		Category: "General",
	})

	require.NoError(t, err)
	assert.False(t, hadImagePart, "image part present for a keep-existing submit")
}

func TestSubmit_WithoutCredential(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, ""))
	_, err := client.CreatePost(context.Background(), domain.PostDraft{Title: "T"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, requests, "no network call should be made without a credential")
}

func TestSubmit_RejectedCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, "expired-token"))
	_, err := client.CreatePost(context.Background(), domain.PostDraft{Title: "T"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSubmit_GenericFailureIsNotUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, "token123"))
	_, err := client.CreatePost(context.Background(), domain.PostDraft{Title: "T"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "boom")
}

func TestListUserPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/user", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"posts":[{"_id":"m1","title":"Mine"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, "token123"))
	posts, err := client.ListUserPosts(context.Background())

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Mine", posts[0].Title)
}

func TestListUserPosts_WithoutCredential(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, ""))
	posts, err := client.ListUserPosts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Zero(t, requests)
}

func TestListUserPosts_RejectedCredentialYieldsEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, "stale"))
	posts, err := client.ListUserPosts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"token":"fresh-token"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, ""))
	token, err := client.Login(context.Background(), "me@example.com", "hunter2")

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
}

func TestLogin_BadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, newSession(t, ""))
	_, err := client.Login(context.Background(), "me@example.com", "wrong")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
