package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"catalog-rest-api/internal/cache"
	"catalog-rest-api/internal/model"
	"catalog-rest-api/internal/repository"
	"catalog-rest-api/pkg/apierror"
)

// Default cache TTLs. List pages expire quickly because they are the entries
// an invalidation failure would leave visibly stale; entity and category
// lookups mutate less often and live longer.
const (
	DefaultListTTL     = 30 * time.Second
	DefaultProductTTL  = 5 * time.Minute
	DefaultCategoryTTL = 10 * time.Minute
)

// TTLConfig holds the cache TTLs used by the catalog services.
// Zero values fall back to the defaults above.
type TTLConfig struct {
	List     time.Duration
	Product  time.Duration
	Category time.Duration
}

func (t TTLConfig) withDefaults() TTLConfig {
	if t.List <= 0 {
		t.List = DefaultListTTL
	}
	if t.Product <= 0 {
		t.Product = DefaultProductTTL
	}
	if t.Category <= 0 {
		t.Category = DefaultCategoryTTL
	}
	return t
}

// ProductService handles product queries and mutations. Reads go through the
// versioned cache with lazy population; every successful mutation removes the
// product's entity key and bumps the epoch exactly once, which invalidates
// all list keys without enumerating them.
type ProductService struct {
	repo  repository.CatalogRepository
	cache cache.Cache
	ttl   TTLConfig
}

// NewProductService creates a new product service.
// Returns nil if repo or c is nil (required dependencies).
func NewProductService(repo repository.CatalogRepository, c cache.Cache, ttl TTLConfig) *ProductService {
	if repo == nil || c == nil {
		return nil
	}
	return &ProductService{
		repo:  repo,
		cache: c,
		ttl:   ttl.withDefaults(),
	}
}

// ListProducts returns one page of the filtered product listing. The cache
// key embeds the epoch current at build time, so pages cached before a
// mutation are unreachable afterwards.
func (s *ProductService) ListProducts(ctx context.Context, f model.ProductFilter) (*model.ProductPage, error) {
	f = f.Normalize()

	key := cache.ListKey(f, s.cache.Epoch())
	if b, ok := s.cache.Get(key); ok {
		var page model.ProductPage
		if err := json.Unmarshal(b, &page); err == nil {
			return &page, nil
		}
	}

	items, total, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if items == nil {
		items = []model.Product{}
	}

	page := &model.ProductPage{
		Items:      items,
		TotalCount: total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: (total + f.PageSize - 1) / f.PageSize,
	}

	// Weight the entry by result size; the cache caps it so one large page
	// cannot monopolize the budget.
	if b, err := json.Marshal(page); err == nil {
		s.cache.Set(key, b, s.ttl.List, int64(total))
	}

	return page, nil
}

// GetProduct returns a single product with its category joined.
func (s *ProductService) GetProduct(ctx context.Context, id int) (*model.Product, error) {
	key := cache.EntityKey("product", id)
	if b, ok := s.cache.Get(key); ok {
		var p model.Product
		if err := json.Unmarshal(b, &p); err == nil {
			return &p, nil
		}
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, apierror.NotFound("product not found")
	}

	if b, err := json.Marshal(p); err == nil {
		s.cache.Set(key, b, s.ttl.Product, 1)
	}

	return p, nil
}

// CreateProduct validates the business rules (category exists, SKU unused),
// inserts the product and invalidates the list cache.
func (s *ProductService) CreateProduct(ctx context.Context, in model.CreateProductInput) (*model.Product, error) {
	category, err := s.getCategoryCached(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apierror.ValidationError("the specified category does not exist")
	}

	sku := strings.TrimSpace(in.SKU)
	if sku != "" {
		exists, err := s.repo.ExistsBySKU(ctx, sku)
		if err != nil {
			return nil, fmt.Errorf("failed to check SKU: %w", err)
		}
		if exists {
			return nil, apierror.ValidationError("a product with that SKU already exists")
		}
	} else {
		sku, err = s.generateUniqueSKU(ctx, category.Name)
		if err != nil {
			return nil, err
		}
	}

	p := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       roundPrice(in.Price),
		Stock:       in.Stock,
		SKU:         sku,
		CategoryID:  in.CategoryID,
		IsActive:    in.IsActive,
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidateProduct(p.ID)

	created, err := s.repo.GetProduct(ctx, p.ID)
	if err != nil || created == nil {
		// The insert committed; fall back to what we have.
		p.CategoryName = category.Name
		return p, nil
	}
	return created, nil
}

// UpdateProduct writes the product under optimistic concurrency: the store
// compares in.RowVersion against the current row and rejects the write with
// Conflict when another writer committed in between. No automatic merge or
// retry is attempted.
func (s *ProductService) UpdateProduct(ctx context.Context, id int, in model.UpdateProductInput) (*model.Product, error) {
	current, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if current == nil {
		return nil, apierror.NotFound("product not found")
	}

	if in.CategoryID != current.CategoryID {
		category, err := s.getCategoryCached(ctx, in.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, apierror.ValidationError("the specified category does not exist")
		}
	}

	p := &model.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       roundPrice(in.Price),
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		IsActive:    in.IsActive,
		RowVersion:  in.RowVersion,
	}

	found, err := s.repo.UpdateProduct(ctx, p)
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apierror.Conflict("the product was modified by another user; reload it before retrying")
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if !found {
		return nil, apierror.NotFound("product not found")
	}

	s.invalidateProduct(id)

	updated, err := s.repo.GetProduct(ctx, id)
	if err != nil || updated == nil {
		return p, nil
	}
	return updated, nil
}

// DeleteProduct removes a product and invalidates the list cache.
func (s *ProductService) DeleteProduct(ctx context.Context, id int) error {
	found, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !found {
		return apierror.NotFound("product not found")
	}

	s.invalidateProduct(id)
	return nil
}

// invalidateProduct is the single invalidation path shared by every
// successful product mutation: drop the id-scoped entry, then advance the
// epoch so all previously built list keys become unreachable.
func (s *ProductService) invalidateProduct(id int) {
	s.cache.Remove(cache.EntityKey("product", id))
	epoch := s.cache.BumpEpoch()
	log.Printf("[ProductService] Product caches invalidated, new epoch: %d", epoch)
}

// getCategoryCached is the read-through category lookup used for mutation
// validation. Returns (nil, nil) when the category does not exist.
func (s *ProductService) getCategoryCached(ctx context.Context, id int) (*model.Category, error) {
	key := cache.EntityKey("category", id)
	if b, ok := s.cache.Get(key); ok {
		var c model.Category
		if err := json.Unmarshal(b, &c); err == nil {
			return &c, nil
		}
	}

	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if c == nil {
		return nil, nil
	}

	if b, err := json.Marshal(c); err == nil {
		s.cache.Set(key, b, s.ttl.Category, 1)
	}
	return c, nil
}

// generateUniqueSKU derives a SKU from the category name and a
// high-resolution timestamp, retrying on the unlikely collision.
func (s *ProductService) generateUniqueSKU(ctx context.Context, categoryName string) (string, error) {
	token := strings.ReplaceAll(categoryName, " ", "")
	for {
		sku := fmt.Sprintf("SKU-%s-%d", token, time.Now().UnixNano())
		exists, err := s.repo.ExistsBySKU(ctx, sku)
		if err != nil {
			return "", fmt.Errorf("failed to check SKU: %w", err)
		}
		if !exists {
			return sku, nil
		}
	}
}

// roundPrice rounds to two decimal places.
func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}
