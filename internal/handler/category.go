package handler

import (
	"encoding/json"
	"net/http"

	"catalog-rest-api/internal/model"
	"catalog-rest-api/internal/service"
	"catalog-rest-api/pkg/apierror"
	"catalog-rest-api/pkg/response"
)

// CategoryHandler handles category-related HTTP requests.
type CategoryHandler struct {
	categories *service.CategoryService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// ListCategories handles GET /api/v1/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, categories)
}

// GetCategory handles GET /api/v1/categories/{id}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	category, err := h.categories.GetCategory(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, category)
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in model.CreateCategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	if in.Name == "" {
		response.Error(w, apierror.ValidationError("invalid category fields",
			apierror.FieldError{Field: "name", Message: "is required"}))
		return
	}
	if len(in.Name) > 100 {
		response.Error(w, apierror.ValidationError("invalid category fields",
			apierror.FieldError{Field: "name", Message: "must be at most 100 characters"}))
		return
	}

	category, err := h.categories.CreateCategory(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, category)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.categories.DeleteCategory(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"deleted": true, "id": id})
}
