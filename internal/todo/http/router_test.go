package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tasklet-dev/tasklet/internal/todo/domain"
	"github.com/tasklet-dev/tasklet/internal/todo/metrics"
	"github.com/tasklet-dev/tasklet/internal/todo/service"
	"github.com/tasklet-dev/tasklet/internal/todo/store/drivers/sqlite"
	"github.com/tasklet-dev/tasklet/pkg/cryptox"
	"github.com/tasklet-dev/tasklet/pkg/idx"
	"github.com/tasklet-dev/tasklet/pkg/slogx"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	sessions := service.NewSessionService(time.Hour)
	logger := slogx.New(slogx.Config{Service: "tasklet-test", Format: "text", Level: "error"})

	r := NewRouter("test", st, metrics.NewCollector(sessions.Count), logger)
	r.UserService = &service.UserService{Store: st}
	r.TaskService = &service.TaskService{Store: st}
	r.SessionService = sessions
	r.AuthorizeService = &service.AuthorizeService{Sessions: sessions}
	r.ApplyRoutes()
	return r
}

// seedAdmin writes an ADMIN account straight into the store so the admin
// endpoints can be exercised without a bootstrap flow.
func seedAdmin(t *testing.T, r *Router, username, password string) {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	err = r.store.Users().CreateUser(context.Background(), domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
}

func doJSON(t *testing.T, r *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func signupAndLogin(t *testing.T, r *Router, username, password string) (string, domain.PublicUser) {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/v1/users", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[loginResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User
}

func TestSignupForcesUserRole(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/users", "", map[string]string{
		"username": "alice.w",
		"email":    "alice@example.com",
		"password": "hunter22",
		"role":     "ADMIN",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	user := decodeBody[domain.PublicUser](t, rec)
	require.Equal(t, domain.RoleUser, user.Role)
	require.NotEmpty(t, user.ID)
}

func TestSignupDuplicateUsernameConflicts(t *testing.T) {
	r := newTestRouter(t)

	payload := map[string]string{
		"username": "duplicate",
		"email":    "first@example.com",
		"password": "hunter22",
	}
	rec := doJSON(t, r, http.MethodPost, "/v1/users", "", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	payload["email"] = "second@example.com"
	rec = doJSON(t, r, http.MethodPost, "/v1/users", "", payload)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r := newTestRouter(t)
	signupAndLogin(t, r, "bob.builder", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "bob.builder",
		"password": "not-the-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresSession(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = doJSON(t, r, http.MethodGet, "/v1/auth/me", "no-such-token", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMeReturnsSnapshotWithoutHash(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signupAndLogin(t, r, "carol.c", "hunter22")

	rec := doJSON(t, r, http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decodeBody[domain.PublicUser](t, rec)
	require.Equal(t, "carol.c", me.Username)
	require.NotContains(t, rec.Body.String(), "hash")
}

func TestLogoutInvalidatesSession(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signupAndLogin(t, r, "dave.d", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenewKeepsSessionAlive(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signupAndLogin(t, r, "erin.e", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/renew", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskLifecycle(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signupAndLogin(t, r, "frank.f", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/tasks", token, map[string]any{
		"name":       "write report",
		"difficulty": "high",
		"priority":   4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody[taskResponse](t, rec)
	require.Equal(t, "write report", created.Name)
	require.NotNil(t, created.Difficulty)
	require.Equal(t, "HIGH", *created.Difficulty)
	require.False(t, created.Done)

	rec = doJSON(t, r, http.MethodGet, "/v1/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]taskResponse](t, rec)
	require.Len(t, list, 1)

	rec = doJSON(t, r, http.MethodPatch, "/v1/tasks/"+created.ID, token, map[string]any{
		"done":     true,
		"priority": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[taskResponse](t, rec)
	require.True(t, updated.Done)
	require.Equal(t, 1, updated.Priority)
	// untouched fields survive the patch
	require.Equal(t, "write report", updated.Name)

	rec = doJSON(t, r, http.MethodDelete, "/v1/tasks/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/v1/tasks/"+created.ID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskValidationErrors(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signupAndLogin(t, r, "grace.g", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/tasks", token, map[string]any{
		"name":       "bad difficulty",
		"difficulty": "EXTREME",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/tasks", token, map[string]any{
		"priority": 3,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/tasks", token, map[string]any{
		"name":     "bad priority",
		"priority": 9,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTasksAreOwnerScoped(t *testing.T) {
	r := newTestRouter(t)
	ownerToken, _ := signupAndLogin(t, r, "henry.h", "hunter22")
	otherToken, _ := signupAndLogin(t, r, "iris.i", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/tasks", ownerToken, map[string]any{
		"name": "private task",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[taskResponse](t, rec)

	// another user's id never reveals someone else's task
	rec = doJSON(t, r, http.MethodGet, "/v1/tasks/"+created.ID, otherToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/v1/tasks/"+created.ID, otherToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/v1/tasks", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeBody[[]taskResponse](t, rec))
}

func TestDeleteAllTasks(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signupAndLogin(t, r, "jack.j", "hunter22")

	for _, name := range []string{"one", "two", "three"} {
		rec := doJSON(t, r, http.MethodPost, "/v1/tasks", token, map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, r, http.MethodDelete, "/v1/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]taskResponse](t, rec), 3)

	rec = doJSON(t, r, http.MethodGet, "/v1/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeBody[[]taskResponse](t, rec))
}

func TestGenerateSamples(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signupAndLogin(t, r, "kate.k", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/tasks/samples", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tasks := decodeBody[[]taskResponse](t, rec)
	require.GreaterOrEqual(t, len(tasks), 100)
	require.LessOrEqual(t, len(tasks), 1000)
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	r := newTestRouter(t)
	userToken, _ := signupAndLogin(t, r, "liam.l", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/admin/users", userToken, map[string]string{
		"username": "newbie1",
		"email":    "newbie@example.com",
		"password": "hunter22",
		"role":     "GUEST",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/admin/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminCreatesUserWithRole(t *testing.T) {
	r := newTestRouter(t)
	seedAdmin(t, r, "admin.a", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "admin.a",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	adminToken := decodeBody[loginResponse](t, rec).Token

	rec = doJSON(t, r, http.MethodPost, "/v1/admin/users", adminToken, map[string]string{
		"username": "guest1",
		"email":    "guest@example.com",
		"password": "hunter22",
		"role":     "guest",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody[domain.PublicUser](t, rec)
	require.Equal(t, domain.RoleGuest, created.Role)
}

func TestAdminListsAndReadsUsers(t *testing.T) {
	r := newTestRouter(t)
	seedAdmin(t, r, "admin.r", "hunter22")
	userToken, user := signupAndLogin(t, r, "oscar.o", "hunter22")

	// reads are admin-only, even for the account's own user
	rec := doJSON(t, r, http.MethodGet, "/v1/users", userToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/v1/users/"+user.ID, userToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "admin.r",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	adminToken := decodeBody[loginResponse](t, rec).Token

	rec = doJSON(t, r, http.MethodGet, "/v1/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	users := decodeBody[[]domain.PublicUser](t, rec)
	require.Len(t, users, 2)
	require.NotContains(t, rec.Body.String(), "$argon2id$")

	rec = doJSON(t, r, http.MethodGet, "/v1/users/"+user.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[domain.PublicUser](t, rec)
	require.Equal(t, "oscar.o", got.Username)

	rec = doJSON(t, r, http.MethodGet, "/v1/users/no-such-id", adminToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUpdatesUser(t *testing.T) {
	r := newTestRouter(t)
	seedAdmin(t, r, "admin.b", "hunter22")
	_, user := signupAndLogin(t, r, "mona.m", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "admin.b",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	adminToken := decodeBody[loginResponse](t, rec).Token

	rec = doJSON(t, r, http.MethodPatch, "/v1/users/"+user.ID, adminToken, map[string]string{
		"email": "renamed@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeBody[domain.PublicUser](t, rec)
	require.Equal(t, "renamed@example.com", updated.Email)
	require.Equal(t, "mona.m", updated.Username)
}

func TestDeleteUserNotImplemented(t *testing.T) {
	r := newTestRouter(t)
	seedAdmin(t, r, "admin.c", "hunter22")
	_, user := signupAndLogin(t, r, "nina.n", "hunter22")

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "admin.c",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	adminToken := decodeBody[loginResponse](t, rec).Token

	rec = doJSON(t, r, http.MethodDelete, "/v1/users/"+user.ID, adminToken, nil)
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestSystemEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "tasklet_http_requests_total")
}
