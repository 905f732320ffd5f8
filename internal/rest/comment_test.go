package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/Guyuepp/go-comment-engine/internal/auth"
	"github.com/Guyuepp/go-comment-engine/internal/repository/memory"
	"github.com/Guyuepp/go-comment-engine/internal/rest"
	"github.com/Guyuepp/go-comment-engine/internal/rest/middleware"
	"github.com/Guyuepp/go-comment-engine/internal/rest/response"
	"github.com/Guyuepp/go-comment-engine/internal/usecase/comment"
	"github.com/gin-gonic/gin"
	"github.com/go-faker/faker/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtSecret = []byte("test-secret")

func newServer(t *testing.T) (*gin.Engine, *memory.Storage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	storage := memory.New()
	resolver, err := auth.NewResolver(domain.AuthModeDatabase, storage, nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.BearerAuth(jwtSecret))
	rest.NewCommentHandler(comment.NewService(storage, resolver, nil)).Register(r)
	return r, storage
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(jwtSecret)
	require.NoError(t, err)
	return signed
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func commentBody(text string) map[string]any {
	return map[string]any{
		"content": map[string]any{
			"type": "doc",
			"content": []map[string]any{
				{"type": "paragraph", "content": []map[string]any{
					{"type": "text", "text": text},
				}},
			},
		},
	}
}

func TestList_AnonymousEmptyPage(t *testing.T) {
	r, _ := newServer(t)

	w := do(r, http.MethodGet, "/comments/blog-1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestList_LimitTooLarge(t *testing.T) {
	r, _ := newServer(t)

	w := do(r, http.MethodGet, "/comments/blog-1?limit=51", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var res rest.ResponseError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Message, "limit")
}

func TestPost_AnonymousRejected(t *testing.T) {
	r, _ := newServer(t)

	w := do(r, http.MethodPost, "/comments/blog-1", "", commentBody("hi"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_InvalidTokenRejected(t *testing.T) {
	r, _ := newServer(t)

	w := do(r, http.MethodGet, "/comments/blog-1", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommentLifecycle(t *testing.T) {
	r, _ := newServer(t)
	userID := faker.UUIDHyphenated()
	token := signToken(t, userID)

	// post
	w := do(r, http.MethodPost, "/comments/blog-1", token, commentBody("first!"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var posted response.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posted))
	assert.NotEmpty(t, posted.ID)
	assert.Equal(t, "blog-1", posted.Page)
	assert.Equal(t, userID, posted.Author)
	assert.Zero(t, posted.Likes)
	assert.Zero(t, posted.Dislikes)
	assert.Zero(t, posted.Replies)
	assert.Nil(t, posted.Liked)

	// rate it
	w = do(r, http.MethodPost, fmt.Sprintf("/comments/blog-1/%s/rate", posted.ID), token,
		map[string]any{"like": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the authed listing carries the aggregate and the caller's own vote
	w = do(r, http.MethodGet, "/comments/blog-1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []response.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, int64(1), listed[0].Likes)
	require.NotNil(t, listed[0].Liked)
	assert.True(t, *listed[0].Liked)

	// anonymous listing sees the count but no personal vote
	w = do(r, http.MethodGet, "/comments/blog-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed = nil // Unmarshal leaves absent fields of reused elements intact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, int64(1), listed[0].Likes)
	assert.Nil(t, listed[0].Liked)

	// drop the vote
	w = do(r, http.MethodDelete, fmt.Sprintf("/comments/blog-1/%s/rate", posted.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/comments/blog-1", token, nil)
	listed = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Zero(t, listed[0].Likes)
	assert.Nil(t, listed[0].Liked)

	// delete the comment
	w = do(r, http.MethodDelete, fmt.Sprintf("/comments/blog-1/%s", posted.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/comments/blog-1", "", nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestReplies(t *testing.T) {
	r, _ := newServer(t)
	token := signToken(t, faker.UUIDHyphenated())

	w := do(r, http.MethodPost, "/comments/blog-1", token, commentBody("root"))
	require.Equal(t, http.StatusOK, w.Code)
	var root response.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &root))

	reply := commentBody("reply")
	reply["thread"] = root.ID
	w = do(r, http.MethodPost, "/comments/blog-1", token, reply)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var child response.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &child))
	require.NotNil(t, child.Thread)
	assert.Equal(t, root.ID, *child.Thread)

	// replying to a reply is rejected
	nested := commentBody("nested")
	nested["thread"] = child.ID
	w = do(r, http.MethodPost, "/comments/blog-1", token, nested)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the top-level listing excludes the reply but counts it
	w = do(r, http.MethodGet, "/comments/blog-1", "", nil)
	var listed []response.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, int64(1), listed[0].Replies)

	// the thread listing holds the reply
	w = do(r, http.MethodGet, "/comments/blog-1?thread="+root.ID, "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, child.ID, listed[0].ID)
}

func TestUpdate_ForeignCommentRejected(t *testing.T) {
	r, _ := newServer(t)
	author := signToken(t, "author")
	intruder := signToken(t, "intruder")

	w := do(r, http.MethodPost, "/comments/blog-1", author, commentBody("mine"))
	require.Equal(t, http.StatusOK, w.Code)
	var posted response.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posted))

	w = do(r, http.MethodPatch, fmt.Sprintf("/comments/blog-1/%s", posted.ID), intruder, commentBody("defaced"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPatch, fmt.Sprintf("/comments/blog-1/%s", posted.ID), author, commentBody("edited"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPost_InvalidContent(t *testing.T) {
	r, _ := newServer(t)
	token := signToken(t, "u1")

	body := map[string]any{"content": map[string]any{"type": "doc"}}
	w := do(r, http.MethodPost, "/comments/blog-1", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var res rest.ResponseError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotNil(t, res.Info)
}

func TestRate_MissingLike(t *testing.T) {
	r, _ := newServer(t)
	token := signToken(t, "u1")

	w := do(r, http.MethodPost, "/comments/blog-1/c1/rate", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveAuth(t *testing.T) {
	r, storage := newServer(t)
	storage.SeedRole("mod", "blog-1", domain.Role{Name: "moderator", CanDelete: true})

	w := do(r, http.MethodGet, "/comments/blog-1/auth", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/comments/blog-1/auth", signToken(t, "mod"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var session response.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "mod", session.ID)
	require.NotNil(t, session.Role)
	assert.True(t, session.Role.CanDelete)
}

// failingUsecase returns the same error from every operation.
type failingUsecase struct {
	err error
}

func (f *failingUsecase) List(ctx context.Context, auth *domain.AuthInfo, in domain.ListInput) ([]domain.Comment, error) {
	return nil, f.err
}

func (f *failingUsecase) ResolveAuth(ctx context.Context, auth *domain.AuthInfo, page string) (*domain.Session, error) {
	return nil, f.err
}

func (f *failingUsecase) Post(ctx context.Context, auth *domain.AuthInfo, in domain.PostInput) (*domain.Comment, error) {
	return nil, f.err
}

func (f *failingUsecase) Update(ctx context.Context, auth *domain.AuthInfo, in domain.UpdateInput) error {
	return f.err
}

func (f *failingUsecase) Delete(ctx context.Context, auth *domain.AuthInfo, page, id string) error {
	return f.err
}

func (f *failingUsecase) SetRate(ctx context.Context, auth *domain.AuthInfo, in domain.RateInput) error {
	return f.err
}

func (f *failingUsecase) DeleteRate(ctx context.Context, auth *domain.AuthInfo, page, id string) error {
	return f.err
}

func TestErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrBadParamInput, http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrInternalServerError, http.StatusInternalServerError},
		{errors.New("the backend caught fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			r := gin.New()
			rest.NewCommentHandler(&failingUsecase{err: tc.err}).Register(r)

			w := do(r, http.MethodGet, "/comments/blog-1", "", nil)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestList_CursorHeader(t *testing.T) {
	r, storage := newServer(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	storage.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	token := signToken(t, "u1")

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/comments/blog-1", token, commentBody(faker.Word()))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(r, http.MethodGet, "/comments/blog-1?sort=oldest&limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cursor := w.Header().Get("X-cursor")
	require.NotEmpty(t, cursor)

	var first []response.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, first, 2)

	w = do(r, http.MethodGet, "/comments/blog-1?sort=oldest&limit=2&after="+cursor, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var next []response.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &next))
	require.Len(t, next, 1)
	assert.NotEqual(t, first[0].ID, next[0].ID)
	assert.NotEqual(t, first[1].ID, next[0].ID)
}
