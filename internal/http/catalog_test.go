package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshh/library-management-mad2/internal/entities"
)

func seedCatalog(t *testing.T, deps *testDeps) (sectionID, ebookID uint) {
	t.Helper()
	section := &entities.Section{Name: "Fiction", Description: "Novels"}
	require.NoError(t, deps.catalog.CreateSection(section))
	ebook := &entities.Ebook{Name: "Dune", Author: "Frank Herbert", Content: "...", SectionID: section.ID}
	require.NoError(t, deps.catalog.CreateEbook(ebook))
	return section.ID, ebook.ID
}

func TestCatalog_CreateSection(t *testing.T) {
	router, deps := newTestRouter(t)

	w := doRequest(router, "POST", "/api/section", librarianToken,
		`{"section_name":"  Poetry ","section_description":"Verse"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Section created successfully", body["message"])
	id := uint(body["section_id"].(float64))

	section, err := deps.catalog.GetSection(id)
	require.NoError(t, err)
	assert.Equal(t, "Poetry", section.Name)
	assert.Equal(t, "Verse", section.Description)
}

func TestCatalog_CreateSection_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"section_description":"x"}`},
		{"blank name", `{"section_name":"   "}`},
		{"malformed json", `{"section_name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "POST", "/api/section", librarianToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "validation_error")
		})
	}
}

func TestCatalog_GetAndUpdateSection(t *testing.T) {
	router, deps := newTestRouter(t)
	sectionID, _ := seedCatalog(t, deps)

	w := doRequest(router, "GET", "/api/section/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"section_name":"Fiction"`)

	w = doRequest(router, "PUT", "/api/section/1", librarianToken, `{"section_name":"Sci-Fi","section_description":"Space"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Section has been updated")

	section, _ := deps.catalog.GetSection(sectionID)
	assert.Equal(t, "Sci-Fi", section.Name)

	w = doRequest(router, "PUT", "/api/section/99", librarianToken, `{"section_name":"Other"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Section not found")
}

func TestCatalog_DeleteSection(t *testing.T) {
	router, deps := newTestRouter(t)
	sectionID, ebookID := seedCatalog(t, deps)

	w := doRequest(router, "DELETE", "/api/section/1", librarianToken, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Section and all its books have been deleted")
	_, err := deps.catalog.GetSection(sectionID)
	assert.Error(t, err)
	_, err = deps.catalog.GetEbook(ebookID)
	assert.Error(t, err)

	w = doRequest(router, "DELETE", "/api/section/1", librarianToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalog_ListEbooks(t *testing.T) {
	router, deps := newTestRouter(t)
	sectionID, _ := seedCatalog(t, deps)
	other := &entities.Section{Name: "History"}
	require.NoError(t, deps.catalog.CreateSection(other))
	require.NoError(t, deps.catalog.CreateEbook(&entities.Ebook{Name: "SPQR", Author: "Mary Beard", SectionID: other.ID}))

	w := doRequest(router, "GET", "/api/ebook", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []EbookView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, "Dune", all[0].Name)
	assert.Equal(t, "Fiction", all[0].SectionName)
	assert.Equal(t, "History", all[1].SectionName)

	w = doRequest(router, "GET", "/api/ebook?section_id=1", "", "")
	var filtered []EbookView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, sectionID, filtered[0].SectionID)

	w = doRequest(router, "GET", "/api/ebook?section_id=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalog_ListEmpty(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "GET", "/api/section", "", "")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doRequest(router, "GET", "/api/ebook", "", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCatalog_CreateEbook(t *testing.T) {
	router, deps := newTestRouter(t)
	sectionID, _ := seedCatalog(t, deps)

	t.Run("accepts title", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/ebook", librarianToken,
			`{"title":"Emma","author":"Jane Austen","content":"...","section_id":1}`)

		require.Equal(t, http.StatusCreated, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Ebook created successfully", body["message"])

		ebook, err := deps.catalog.GetEbook(uint(body["id"].(float64)))
		require.NoError(t, err)
		assert.Equal(t, "Emma", ebook.Name)
		assert.Equal(t, sectionID, ebook.SectionID)
	})

	t.Run("accepts ebook_name", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/ebook", librarianToken,
			`{"ebook_name":"Persuasion","author":"Jane Austen","content":"...","section_id":1}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("requires a title", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/ebook", librarianToken,
			`{"author":"Jane Austen","content":"...","section_id":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "title is required")
	})

	t.Run("requires content and section", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/ebook", librarianToken, `{"title":"Emma","author":"Jane Austen"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "content is required")
	})

	t.Run("unknown section", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/ebook", librarianToken,
			`{"title":"Emma","author":"Jane Austen","content":"...","section_id":99}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Section not found")
	})
}

func TestCatalog_UpdateAndDeleteEbook(t *testing.T) {
	router, deps := newTestRouter(t)
	_, ebookID := seedCatalog(t, deps)

	w := doRequest(router, "PUT", "/api/ebook/2", librarianToken,
		`{"title":"Dune Messiah","author":"Frank Herbert","content":"new","section_id":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ebook has been updated")

	ebook, _ := deps.catalog.GetEbook(ebookID)
	assert.Equal(t, "Dune Messiah", ebook.Name)

	w = doRequest(router, "GET", "/api/ebook/2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"section_name":"Fiction"`)

	w = doRequest(router, "DELETE", "/api/ebook/2", librarianToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ebook along with its feedback and requests (if any) has been deleted")

	w = doRequest(router, "GET", "/api/ebook/2", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalog_StorageFailureIsHidden(t *testing.T) {
	router, deps := newTestRouter(t)
	deps.catalog.err = errors.New("database is locked")

	w := doRequest(router, "GET", "/api/section", "", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "locked")
	assert.Contains(t, w.Body.String(), "internal server error")
}
