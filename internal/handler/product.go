package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"catalog-rest-api/internal/model"
	"catalog-rest-api/internal/service"
	"catalog-rest-api/pkg/apierror"
	"catalog-rest-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	products *service.ProductService
	bulk     *service.BulkService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products *service.ProductService, bulk *service.BulkService) *ProductHandler {
	return &ProductHandler{
		products: products,
		bulk:     bulk,
	}
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	page, err := h.products.ListProducts(r.Context(), filter)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, page.Items, page.Page, page.PageSize, int64(page.TotalCount))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, product)
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in model.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	if err := validateProductFields(in.Name, in.Price, in.Stock, in.CategoryID); err != nil {
		response.Error(w, err)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, product)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	var in model.UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	if err := validateProductFields(in.Name, in.Price, in.Stock, in.CategoryID); err != nil {
		response.Error(w, err)
		return
	}
	if in.RowVersion < 1 {
		response.Error(w, apierror.ValidationError("row_version is required",
			apierror.FieldError{Field: "row_version", Message: "must be the version last read"}))
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), id, in)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"deleted": true, "id": id})
}

// CreateBulkProducts handles POST /api/v1/products/bulk
func (h *ProductHandler) CreateBulkProducts(w http.ResponseWriter, r *http.Request) {
	var req model.BulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	result, err := h.bulk.CreateBulk(r.Context(), req)
	if err != nil {
		// A partial run still reports the windows that committed.
		if result != nil && result.CreatedCount > 0 {
			if apiErr, ok := err.(*apierror.Error); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(apiErr.StatusCode)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"data":    result,
					"error":   map[string]string{"code": apiErr.Code, "message": apiErr.Message},
				})
				return
			}
		}
		response.Error(w, err)
		return
	}

	response.Created(w, result)
}

// GetBulkRuns handles GET /api/v1/products/bulk/runs
func (h *ProductHandler) GetBulkRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := h.bulk.GetRuns(r.Context(), limit, offset)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, runs, offset/limit+1, limit, total)
}

// parseProductFilter builds a ProductFilter from query parameters.
func parseProductFilter(r *http.Request) (model.ProductFilter, error) {
	q := r.URL.Query()

	f := model.ProductFilter{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", model.DefaultPageSize),
		Search:   q.Get("search"),
	}

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return f, apierror.ValidationError("category_id must be an integer")
		}
		f.CategoryID = &id
	}
	if v := q.Get("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, apierror.ValidationError("min_price must be a number")
		}
		f.MinPrice = &p
	}
	if v := q.Get("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, apierror.ValidationError("max_price must be a number")
		}
		f.MaxPrice = &p
	}

	// Defaults to active products; is_active=all lifts the filter.
	switch v := q.Get("is_active"); v {
	case "", "true":
		active := true
		f.IsActive = &active
	case "false":
		active := false
		f.IsActive = &active
	case "all":
	default:
		return f, apierror.ValidationError("is_active must be true, false or all")
	}

	return f, nil
}

// validateProductFields checks the field rules shared by create and update.
func validateProductFields(name string, price float64, stock, categoryID int) error {
	var details []apierror.FieldError
	if name == "" {
		details = append(details, apierror.FieldError{Field: "name", Message: "is required"})
	}
	if len(name) > 200 {
		details = append(details, apierror.FieldError{Field: "name", Message: "must be at most 200 characters"})
	}
	if price <= 0 {
		details = append(details, apierror.FieldError{Field: "price", Message: "must be greater than 0"})
	}
	if stock < 0 {
		details = append(details, apierror.FieldError{Field: "stock", Message: "must not be negative"})
	}
	if categoryID < 1 {
		details = append(details, apierror.FieldError{Field: "category_id", Message: "is required"})
	}
	if len(details) > 0 {
		return apierror.ValidationError("invalid product fields", details...)
	}
	return nil
}

// pathID parses the {id} path parameter.
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, apierror.BadRequest("id must be a positive integer")
	}
	return id, nil
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
