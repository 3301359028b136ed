package handler_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertrooper/backend/internal/model"
)

func TestUserRegisterAndAuthenticate(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/users", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "s3cret",
	}, "")
	requireStatus(t, w, http.StatusOK)
	created := decode(t, w)
	assert.Equal(t, "ada@example.com", created["email"])
	assert.NotZero(t, created["user_id"])

	w = s.do(t, http.MethodPost, "/users", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "other",
	}, "")
	requireStatus(t, w, http.StatusConflict)
	assert.Contains(t, decode(t, w)["error"], "already registered")

	w = s.do(t, http.MethodPost, "/users/authenticate", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	}, "")
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, false, decode(t, w)["success"])

	w = s.do(t, http.MethodPost, "/users/authenticate", map[string]string{
		"email": "ada@example.com", "password": "s3cret",
	}, "")
	requireStatus(t, w, http.StatusOK)
	auth := decode(t, w)
	require.Equal(t, true, auth["success"])
	token, _ := auth["token"].(string)
	require.NotEmpty(t, token)

	w = s.do(t, http.MethodGet, "/users/me", nil, token)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "ada@example.com", decode(t, w)["email"])

	w = s.do(t, http.MethodPost, "/auth/refresh", nil, token)
	requireStatus(t, w, http.StatusOK)
	assert.NotEmpty(t, decode(t, w)["token"])
}

func TestUserRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/users", `{"name":`, "")
	requireStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, decode(t, w), "error")

	w = s.do(t, http.MethodPost, "/users", map[string]string{"name": "x", "email": "not-an-email", "password": "p"}, "")
	requireStatus(t, w, http.StatusBadRequest)
}

func TestUserMeRequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/users/me", nil, "")
	requireStatus(t, w, http.StatusUnauthorized)

	w = s.do(t, http.MethodGet, "/users/me", nil, "garbage")
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "Invalid token.", decode(t, w)["error"])
}

func TestUserGetUpdateDelete(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin@example.com", model.RoleAdmin)
	u := s.seedUser(t, "u@example.com", model.RoleUser)

	w := s.do(t, http.MethodGet, "/users/999", nil, "")
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "No user found with provided ID", decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/users/abc", nil, "")
	requireStatus(t, w, http.StatusBadRequest)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/users/%d", u.ID), map[string]string{"bio": "hello", "name": ""}, "")
	requireStatus(t, w, http.StatusOK)
	updated := decode(t, w)
	assert.Equal(t, true, updated["success"])
	assert.Equal(t, []interface{}{"bio"}, updated["updatedFields"])

	w = s.do(t, http.MethodGet, "/users?role=USER", nil, "")
	requireStatus(t, w, http.StatusOK)
	profiles := decode(t, w)["profiles"].([]interface{})
	require.Len(t, profiles, 1)
	assert.Equal(t, "hello", profiles[0].(map[string]interface{})["bio"])

	w = s.do(t, http.MethodGet, "/users?role=KING", nil, "")
	requireStatus(t, w, http.StatusBadRequest)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/users/%d?admin_user_id=%d", u.ID, u.ID), nil, "")
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, false, decode(t, w)["success"])

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/users/%d?admin_user_id=%d", u.ID, admin.ID), nil, "")
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, true, decode(t, w)["success"])

	var n int64
	require.NoError(t, s.db.Model(&model.User{}).Where("id = ?", u.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestOperationLogsAdminOnly(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin@example.com", model.RoleAdmin)
	user := s.seedUser(t, "u@example.com", model.RoleUser)

	w := s.do(t, http.MethodPost, "/projects", map[string]interface{}{"name": "Logged", "userId": user.ID}, "")
	requireStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodGet, "/admin/operation-logs", nil, tokenFor(t, user))
	requireStatus(t, w, http.StatusForbidden)

	w = s.do(t, http.MethodGet, "/admin/operation-logs?action=create_project", nil, tokenFor(t, admin))
	requireStatus(t, w, http.StatusOK)
	page := decode(t, w)
	assert.Equal(t, float64(1), page["total"])
	entry := page["list"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "project", entry["resource_type"])
	assert.Equal(t, float64(user.ID), entry["user_id"])
}

func TestOperationLogsRejectsMalformedFilters(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin@example.com", model.RoleAdmin)
	token := tokenFor(t, admin)

	for _, q := range []string{"user_id=abc", "start_time=yesterday", "end_time=2024-13-01"} {
		w := s.do(t, http.MethodGet, "/admin/operation-logs?"+q, nil, token)
		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "invalid "+strings.SplitN(q, "=", 2)[0], decode(t, w)["error"])
	}

	w := s.do(t, http.MethodGet, "/admin/operation-logs?start_time=2024-01-01T00:00:00Z", nil, token)
	requireStatus(t, w, http.StatusOK)
}
