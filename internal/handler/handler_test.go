package handler

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webnotes/internal/middleware"
	"webnotes/internal/note"
	"webnotes/internal/session"
	"webnotes/internal/user"
)

// stubUserService satisfies user.UserServiceInterface with canned answers.
type stubUserService struct {
	sessions map[string]*session.Identity
}

func (s *stubUserService) Register(ctx context.Context, username, password string) (int, error) {
	return 1, nil
}

func (s *stubUserService) Login(ctx context.Context, username, password string) (string, *user.User, error) {
	if username == "alice" && password == "secret1" {
		return "issued-session", &user.User{ID: 1, Username: "alice"}, nil
	}
	return "", nil, user.ErrInvalidCredentials
}

func (s *stubUserService) Logout(ctx context.Context, sessionID string) error { return nil }

func (s *stubUserService) LogoutAll(ctx context.Context, userID int) error { return nil }

func (s *stubUserService) ResolveSession(ctx context.Context, sessionID string) (*session.Identity, error) {
	return s.sessions[sessionID], nil
}

func (s *stubUserService) ActiveSessions(ctx context.Context, userID int) (int64, error) {
	return int64(len(s.sessions)), nil
}

// stubNoteService satisfies note.NoteServiceInterface.
type stubNoteService struct {
	notes []*note.Note
}

func (s *stubNoteService) List(ctx context.Context, userID int) ([]*note.Note, error) {
	return s.notes, nil
}

func (s *stubNoteService) Create(ctx context.Context, userID int, title string, texts []string) ([]int, error) {
	return []int{1}, nil
}

func (s *stubNoteService) Update(ctx context.Context, noteID, userID int, patch note.Patch) error {
	return nil
}

func (s *stubNoteService) Delete(ctx context.Context, noteID, userID int) error { return nil }

func (s *stubNoteService) Search(ctx context.Context, userID int, query string) ([]*note.Note, error) {
	return s.notes, nil
}

const testTemplates = `
{{ define "login.html" }}<html><body>login page</body></html>{{ end }}
{{ define "index.html" }}<html><body>{{ .username }} notes</body></html>{{ end }}
`

func setupTestApp(identity *session.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("t").Parse(testTemplates)))

	userSvc := &stubUserService{sessions: map[string]*session.Identity{}}
	if identity != nil {
		userSvc.sessions[identity.SessionID] = identity
	}

	userCtrl := user.NewUserController(userSvc)
	noteCtrl := note.NewNoteController(&stubNoteService{})

	registerRoutes(r, userCtrl, noteCtrl, &stubResolver{svc: userSvc}, nil)

	return r
}

type stubResolver struct {
	svc *stubUserService
}

func (s *stubResolver) Resolve(ctx context.Context, sessionID string) (*session.Identity, error) {
	return s.svc.ResolveSession(ctx, sessionID)
}

func TestRootRedirectsToLogin(t *testing.T) {
	router := setupTestApp(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login/", w.Header().Get("Location"))
}

func TestLoginPageLoads(t *testing.T) {
	router := setupTestApp(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestProtectedRoutesRejectWithoutCookie(t *testing.T) {
	router := setupTestApp(nil)

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/notes/"},
		{http.MethodPost, "/notes/"},
		{http.MethodPut, "/notes/1"},
		{http.MethodDelete, "/notes/1"},
		{http.MethodGet, "/search/"},
		{http.MethodGet, "/profile"},
		{http.MethodPost, "/logout/all/"},
	}

	for _, route := range protected {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
		assert.Contains(t, w.Body.String(), "Not authenticated")
	}
}

func TestNotesPageWithValidSession(t *testing.T) {
	identity := &session.Identity{SessionID: "valid-session", UserID: 1, Username: "alice"}
	router := setupTestApp(identity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notes/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: "valid-session"})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestLoginPageRedirectsWhenAuthenticated(t *testing.T) {
	identity := &session.Identity{SessionID: "valid-session", UserID: 1, Username: "alice"}
	router := setupTestApp(identity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: "valid-session"})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/notes/", w.Header().Get("Location"))
}

func TestHealth_DatabaseUpRedisDisabled(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	dbMock.ExpectPing()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", healthHandler(db, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "disabled", body["redis"])
}
