package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pranshh/library-management-mad2/internal/audit"
	"github.com/pranshh/library-management-mad2/internal/auth"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

// CatalogController serves sections and ebooks. Reads are public; writes are
// mounted behind the librarian gate.
type CatalogController struct {
	store   CatalogStore
	auditor *audit.Service
}

// NewCatalogController creates a new CatalogController. auditor may be nil.
func NewCatalogController(store CatalogStore, auditor *audit.Service) *CatalogController {
	return &CatalogController{store: store, auditor: auditor}
}

// SectionRequest is the create/update payload for a section.
type SectionRequest struct {
	SectionName        string `json:"section_name" binding:"required,max=100"`
	SectionDescription string `json:"section_description" binding:"max=500"`
}

// EbookRequest is the create/update payload for an ebook. The title may be
// sent as either "title" or "ebook_name".
type EbookRequest struct {
	Title     string `json:"title" binding:"max=100"`
	EbookName string `json:"ebook_name" binding:"max=100"`
	Author    string `json:"author" binding:"required,max=100"`
	Content   string `json:"content" binding:"required"`
	SectionID uint   `json:"section_id" binding:"required"`
}

func (r EbookRequest) name() string {
	if title := strings.TrimSpace(r.Title); title != "" {
		return title
	}
	return strings.TrimSpace(r.EbookName)
}

// EbookView is an ebook with its section name.
type EbookView struct {
	entities.Ebook
	SectionName string `json:"section_name"`
}

// --- Sections ---

// ListSections handles GET /api/section
func (cc *CatalogController) ListSections(c *gin.Context) {
	sections, err := cc.store.ListSections()
	if err != nil {
		respondError(c, err, "list sections")
		return
	}
	if sections == nil {
		sections = []entities.Section{}
	}
	c.JSON(http.StatusOK, sections)
}

// GetSection handles GET /api/section/:id
func (cc *CatalogController) GetSection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	section, err := cc.store.GetSection(id)
	if err != nil {
		respondError(c, err, "get section")
		return
	}
	c.JSON(http.StatusOK, section)
}

// CreateSection handles POST /api/section
func (cc *CatalogController) CreateSection(c *gin.Context) {
	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	name := strings.TrimSpace(req.SectionName)
	if name == "" {
		respondBadRequest(c, "section_name is required")
		return
	}

	section := &entities.Section{Name: name, Description: strings.TrimSpace(req.SectionDescription)}
	if err := cc.store.CreateSection(section); err != nil {
		respondError(c, err, "create section")
		return
	}
	cc.auditor.LogCatalog(auth.GetUserID(c), "create", "section", section.ID, section.Name)

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Section created successfully",
		"section_id": section.ID,
	})
}

// UpdateSection handles PUT /api/section/:id
func (cc *CatalogController) UpdateSection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	name := strings.TrimSpace(req.SectionName)
	if name == "" {
		respondBadRequest(c, "section_name is required")
		return
	}

	section, err := cc.store.UpdateSection(id, name, strings.TrimSpace(req.SectionDescription))
	if err != nil {
		respondError(c, err, "update section")
		return
	}
	cc.auditor.LogCatalog(auth.GetUserID(c), "update", "section", section.ID, section.Name)

	respondMessage(c, "Section has been updated")
}

// DeleteSection handles DELETE /api/section/:id
// Every ebook in the section goes with it, along with their requests and feedback.
func (cc *CatalogController) DeleteSection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	section, err := cc.store.GetSection(id)
	if err != nil {
		respondError(c, err, "get section")
		return
	}
	if err := cc.store.DeleteSection(id); err != nil {
		respondError(c, err, "delete section")
		return
	}
	cc.auditor.LogCatalog(auth.GetUserID(c), "delete", "section", id, section.Name)

	respondMessage(c, "Section and all its books have been deleted")
}

// --- Ebooks ---

// ListEbooks handles GET /api/ebook
// Optional query: section_id filters to one section.
func (cc *CatalogController) ListEbooks(c *gin.Context) {
	sectionID, ok := parseOptionalQueryID(c, "section_id")
	if !ok {
		return
	}
	ebooks, err := cc.store.ListEbooks(sectionID)
	if err != nil {
		respondError(c, err, "list ebooks")
		return
	}
	sections, err := cc.store.ListSections()
	if err != nil {
		respondError(c, err, "list sections")
		return
	}
	names := make(map[uint]string, len(sections))
	for _, s := range sections {
		names[s.ID] = s.Name
	}

	views := make([]EbookView, 0, len(ebooks))
	for _, e := range ebooks {
		views = append(views, EbookView{Ebook: e, SectionName: names[e.SectionID]})
	}
	c.JSON(http.StatusOK, views)
}

// GetEbook handles GET /api/ebook/:id
func (cc *CatalogController) GetEbook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ebook, err := cc.store.GetEbook(id)
	if err != nil {
		respondError(c, err, "get ebook")
		return
	}
	view := EbookView{Ebook: *ebook}
	if section, err := cc.store.GetSection(ebook.SectionID); err == nil {
		view.SectionName = section.Name
	}
	c.JSON(http.StatusOK, view)
}

// CreateEbook handles POST /api/ebook
func (cc *CatalogController) CreateEbook(c *gin.Context) {
	ebook, ok := bindEbook(c)
	if !ok {
		return
	}
	if err := cc.store.CreateEbook(ebook); err != nil {
		respondError(c, err, "create ebook")
		return
	}
	cc.auditor.LogCatalog(auth.GetUserID(c), "create", "ebook", ebook.ID, ebook.Name)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Ebook created successfully",
		"id":      ebook.ID,
	})
}

// UpdateEbook handles PUT /api/ebook/:id
func (cc *CatalogController) UpdateEbook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	changes, ok := bindEbook(c)
	if !ok {
		return
	}
	ebook, err := cc.store.UpdateEbook(id, *changes)
	if err != nil {
		respondError(c, err, "update ebook")
		return
	}
	cc.auditor.LogCatalog(auth.GetUserID(c), "update", "ebook", ebook.ID, ebook.Name)

	respondMessage(c, "Ebook has been updated")
}

// DeleteEbook handles DELETE /api/ebook/:id
func (cc *CatalogController) DeleteEbook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ebook, err := cc.store.GetEbook(id)
	if err != nil {
		respondError(c, err, "get ebook")
		return
	}
	if err := cc.store.DeleteEbook(id); err != nil {
		respondError(c, err, "delete ebook")
		return
	}
	cc.auditor.LogCatalog(auth.GetUserID(c), "delete", "ebook", id, ebook.Name)

	respondMessage(c, "Ebook along with its feedback and requests (if any) has been deleted")
}

func bindEbook(c *gin.Context) (*entities.Ebook, bool) {
	var req EbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return nil, false
	}
	name := req.name()
	if name == "" {
		respondBadRequest(c, "title is required")
		return nil, false
	}
	author := strings.TrimSpace(req.Author)
	if author == "" {
		respondBadRequest(c, "author is required")
		return nil, false
	}
	return &entities.Ebook{
		Name:      name,
		Author:    author,
		Content:   req.Content,
		SectionID: req.SectionID,
	}, true
}
