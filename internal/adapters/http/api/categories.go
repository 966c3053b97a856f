package api

import (
	"net/http"

	"github.com/okian/forceplate/internal/domain/rules"
)

// CategoriesDependencies exposes the rule table.
type CategoriesDependencies interface {
	Table() *rules.Table
}

// CategoriesHandler handles rule table requests.
type CategoriesHandler struct {
	deps CategoriesDependencies
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(deps CategoriesDependencies) *CategoriesHandler {
	return &CategoriesHandler{deps: deps}
}

// HandleGetCategories handles GET /categories requests.
func (h *CategoriesHandler) HandleGetCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Table().Categories())
}
