package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/database"
	"github.com/supertrooper/backend/internal/handler"
	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/internal/notify"
	"github.com/supertrooper/backend/internal/router"
	"github.com/supertrooper/backend/internal/service"
	"github.com/supertrooper/backend/internal/sse"
	jwtpkg "github.com/supertrooper/backend/pkg/jwt"
)

const (
	testSecret = "handler-secret"
	testAESKey = "fedcba9876543210"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	r   *gin.Engine
	db  *gorm.DB
	hub *sse.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithHub(t, sse.NewHub(nil))
}

func newTestServerWithHub(t *testing.T, hub *sse.Hub) *testServer {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "handler.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	notifier := notify.NoopNotifier{}
	audit := service.NewAuditService(db)

	r := gin.New()
	router.Setup(r, router.Deps{
		DB:               db,
		JWTSecret:        testSecret,
		UserHandler:      handler.NewUserHandler(service.NewUserService(db, testSecret, 1), audit),
		ProjectHandler:   handler.NewProjectHandler(service.NewProjectService(db, notifier, hub), audit, hub),
		WorkspaceHandler: handler.NewWorkspaceHandler(service.NewWorkspaceService(db, hub), audit),
		ContentHandler:   handler.NewContentHandler(service.NewContentService(db), audit),
		PortfolioHandler: handler.NewPortfolioHandler(service.NewPortfolioService(db, testSecret, testAESKey, "http://test"), audit),
		FeedbackHandler:  handler.NewFeedbackHandler(service.NewFeedbackService(db, notifier), audit),
		MetricsHandler:   handler.NewMetricsHandler(audit),
		HealthHandler:    handler.NewHealthHandler(db),
	})
	return &testServer{r: r, db: db, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *testServer) seedUser(t *testing.T, email string, role model.Role) model.User {
	t.Helper()
	u := model.User{Name: email, Email: email, Password: "x", Role: role}
	require.NoError(t, s.db.Create(&u).Error)
	require.NoError(t, s.db.Create(&model.Profile{UserID: u.ID}).Error)
	return u
}

func tokenFor(t *testing.T, u model.User) string {
	t.Helper()
	tok, _, err := jwtpkg.GenerateToken(testSecret, u.ID, string(u.Role), 1)
	require.NoError(t, err)
	return tok
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
