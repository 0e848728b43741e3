package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshh/library-management-mad2/internal/auth"
	"github.com/pranshh/library-management-mad2/internal/config"
	"github.com/pranshh/library-management-mad2/internal/database"
	"github.com/pranshh/library-management-mad2/internal/database/catalog"
	"github.com/pranshh/library-management-mad2/internal/database/stats"
	"github.com/pranshh/library-management-mad2/internal/lending"
)

func setupIntegrationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "library.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authCfg := config.Auth{JWTSecret: "integration-secret", TokenExpiry: time.Hour, BcryptCost: 4}
	accounts := auth.NewService(db.DB, authCfg, auth.NewTokenIssuer(authCfg.JWTSecret, authCfg.TokenExpiry), nil)
	_, err = accounts.CreateLibrarian(context.Background(), "librarian@iitm.in", "librarian", "librarian-pass")
	require.NoError(t, err)

	loans := lending.NewService(db.DB, nil)
	return NewRouter(RouterConfig{
		Catalog:        catalog.NewRepository(db.DB),
		Loans:          loans,
		Feedback:       loans,
		Stats:          stats.NewRepository(db.DB),
		Database:       db,
		Accounts:       accounts,
		Profiles:       accounts,
		AuthMiddleware: auth.NewMiddleware(accounts),
	})
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func login(t *testing.T, router *gin.Engine, body string) string {
	t.Helper()
	w := doRequest(router, "POST", "/api/login", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w.Body.Bytes())["access_token"].(string)
}

func TestIntegration_LoanLifecycle(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := doRequest(router, "POST", "/api/register", "", `{"email":"reader@example.com","username":"reader","password":"reader-pass"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Regular users must also send their username; librarians need not.
	w = doRequest(router, "POST", "/api/login", "", `{"email":"reader@example.com","password":"reader-pass"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	reader := login(t, router, `{"email":"reader@example.com","username":"reader","password":"reader-pass"}`)
	librarian := login(t, router, `{"email":"librarian@iitm.in","password":"librarian-pass"}`)

	w = doRequest(router, "POST", "/api/section", librarian, `{"section_name":"Fiction"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sectionID := decode(t, w.Body.Bytes())["section_id"]

	w = doRequest(router, "POST", "/api/ebook", librarian,
		fmt.Sprintf(`{"title":"Dune","author":"Frank Herbert","content":"...","section_id":%v}`, sectionID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ebookID := decode(t, w.Body.Bytes())["id"]

	// Feedback before holding the book is refused.
	w = doRequest(router, "POST", "/api/feedback", reader, fmt.Sprintf(`{"ebook_id":%v,"rating":5}`, ebookID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, "POST", "/api/request", reader, fmt.Sprintf(`{"ebook_id":%v}`, ebookID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	requestID := decode(t, w.Body.Bytes())["request_id"]

	w = doRequest(router, "POST", "/api/request", reader, fmt.Sprintf(`{"ebook_id":%v}`, ebookID))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, "PUT", fmt.Sprintf("/api/request/%v", requestID), reader, `{"status":"granted"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, "PUT", fmt.Sprintf("/api/request/%v", requestID), librarian, `{"status":"granted"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Request status updated to granted", decode(t, w.Body.Bytes())["message"])

	w = doRequest(router, "GET", "/api/user/profile", reader, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w.Body.Bytes())["no_of_books"])

	w = doRequest(router, "POST", "/api/feedback", reader, fmt.Sprintf(`{"ebook_id":%v,"rating":5,"comment":"<b>Loved</b> it"}`, ebookID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doRequest(router, "POST", "/api/feedback", reader, fmt.Sprintf(`{"ebook_id":%v,"rating":4}`, ebookID))
	assert.Equal(t, http.StatusConflict, w.Code)

	// The librarian cannot return a loan they do not hold.
	w = doRequest(router, "POST", fmt.Sprintf("/api/return/%v", requestID), librarian, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, "POST", fmt.Sprintf("/api/return/%v", requestID), reader, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doRequest(router, "POST", fmt.Sprintf("/api/return/%v", requestID), reader, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, "GET", "/api/user/stats", reader, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"books_requested":1,"requests_granted":0,"requests_revoked":0,"books_returned":1,"feedbacks_given":1}`, w.Body.String())

	w = doRequest(router, "GET", "/api/librarian/dashboard", librarian, "")
	require.Equal(t, http.StatusOK, w.Code)
	dashboard := decode(t, w.Body.Bytes())
	assert.Equal(t, float64(1), dashboard["total_returns"])
	assert.Equal(t, float64(1), dashboard["total_feedbacks"])
	assert.Equal(t, float64(0), dashboard["active_users"])

	w = doRequest(router, "GET", "/api/feedback", librarian, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"comment":"Loved it"`)

	w = doRequest(router, "GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIntegration_DeleteEbookCascades(t *testing.T) {
	router := setupIntegrationRouter(t)
	doRequest(router, "POST", "/api/register", "", `{"email":"reader@example.com","username":"reader","password":"reader-pass"}`)
	reader := login(t, router, `{"email":"reader@example.com","username":"reader","password":"reader-pass"}`)
	librarian := login(t, router, `{"email":"librarian@iitm.in","password":"librarian-pass"}`)

	doRequest(router, "POST", "/api/section", librarian, `{"section_name":"Fiction"}`)
	doRequest(router, "POST", "/api/ebook", librarian, `{"title":"Dune","author":"Frank Herbert","content":"...","section_id":1}`)
	doRequest(router, "POST", "/api/request", reader, `{"ebook_id":1}`)
	w := doRequest(router, "PUT", "/api/request/1", librarian, `{"status":"granted"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(router, "DELETE", "/api/section/1", librarian, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(router, "GET", "/api/request", reader, "")
	assert.JSONEq(t, `[]`, w.Body.String())
	w = doRequest(router, "GET", "/api/user/profile", reader, "")
	assert.Equal(t, float64(0), decode(t, w.Body.Bytes())["no_of_books"])
}
