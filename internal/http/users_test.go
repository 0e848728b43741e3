package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshh/library-management-mad2/internal/auth"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

func TestProfile_ListUsers(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "GET", "/api/users", readerToken, "")

	require.Equal(t, http.StatusOK, w.Code)
	var users []auth.UserSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "librarian", users[0].Role)
	assert.Equal(t, "user", users[1].Role)
}

func TestProfile_Get(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "GET", "/api/user/profile", readerToken, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":2,"username":"reader","email":"reader@example.com","role":"user","no_of_books":2}`, w.Body.String())
}

func TestProfile_Update(t *testing.T) {
	router, deps := newTestRouter(t)

	w := doRequest(router, "PUT", "/api/user/profile", readerToken, `{"username":"reader2","password":"new-password"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Profile updated successfully")
	assert.Equal(t, auth.ProfileUpdate{Username: "reader2", Password: "new-password"}, deps.profiles.update)
}

func TestProfile_UpdateValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad email", `{"email":"not-an-email"}`, "email must be a valid email"},
		{"short password", `{"password":"short"}`, "password must be at least 8 characters"},
		{"short username", `{"username":"ab"}`, "username must be at least 3 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "PUT", "/api/user/profile", readerToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestProfile_UpdateConflict(t *testing.T) {
	router, deps := newTestRouter(t)
	deps.profiles.err = auth.ErrUsernameTaken

	w := doRequest(router, "PUT", "/api/user/profile", readerToken, `{"username":"librarian"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProfile_Stats(t *testing.T) {
	router, deps := newTestRouter(t)

	w := doRequest(router, "GET", "/api/user/stats", readerToken, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"books_requested":3,"requests_granted":1,"requests_revoked":0,"books_returned":1,"feedbacks_given":0}`, w.Body.String())
	assert.Equal(t, readerID, deps.stats.gotUserID)
}

func TestLibrarian_Dashboard(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "GET", "/api/librarian/dashboard", librarianToken, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active_users":1,"pending_requests":2,"granted_requests":0,"revoked_requests":0,"total_returns":0,"total_feedbacks":4}`, w.Body.String())
}

func TestLibrarian_AuditEvents(t *testing.T) {
	router, deps := newTestRouter(t)

	w := doRequest(router, "GET", "/api/librarian/audit?type=lending&user_id=2&page=2&limit=10", librarianToken, "")

	require.Equal(t, http.StatusOK, w.Code)
	var body PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(51), body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 6, body.TotalPages)
	assert.Equal(t, entities.AuditEventLending, deps.audit.filter.EventType)
	assert.Equal(t, readerID, deps.audit.filter.UserID)
	assert.Equal(t, 10, deps.audit.filter.Offset)
}

func TestLibrarian_RequestHistory(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "GET", "/api/librarian/audit?request_id=5", librarianToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "request_create")

	w = doRequest(router, "GET", "/api/librarian/audit?request_id=x", librarianToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
