package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"catalog-rest-api/internal/model"
	"catalog-rest-api/internal/repository"
)

// fakeCatalogRepo is an in-memory CatalogRepository used by the service
// tests. Call counters let tests observe whether a read was served from the
// cache or hit the store.
type fakeCatalogRepo struct {
	mu             sync.Mutex
	products       map[int]*model.Product
	categories     map[int]*model.Category
	nextProductID  int
	nextCategoryID int

	listCalls int
	getCalls  int

	windowSizes  []int
	failAtWindow int // 1-based window index that fails, 0 = never
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		products:       make(map[int]*model.Product),
		categories:     make(map[int]*model.Category),
		nextProductID:  1,
		nextCategoryID: 1,
	}
}

func (r *fakeCatalogRepo) addCategory(name string) *model.Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &model.Category{ID: r.nextCategoryID, Name: name}
	r.nextCategoryID++
	r.categories[c.ID] = c
	return c
}

func (r *fakeCatalogRepo) addProduct(name string, categoryID int, price float64) *model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &model.Product{
		ID:         r.nextProductID,
		Name:       name,
		Price:      price,
		SKU:        fmt.Sprintf("SKU-SEED-%06d", r.nextProductID),
		CategoryID: categoryID,
		IsActive:   true,
		RowVersion: 1,
	}
	r.nextProductID++
	r.products[p.ID] = p
	return p
}

func (r *fakeCatalogRepo) GetProduct(ctx context.Context, id int) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	if c, ok := r.categories[p.CategoryID]; ok {
		cp.CategoryName = c.Name
	}
	return &cp, nil
}

func (r *fakeCatalogRepo) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++

	var matched []model.Product
	for _, p := range r.products {
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(p.Description), needle) {
				continue
			}
		}
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if f.IsActive != nil && p.IsActive != *f.IsActive {
			continue
		}
		matched = append(matched, *p)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeCatalogRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextProductID
	r.nextProductID++
	p.RowVersion = 1
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeCatalogRepo) UpdateProduct(ctx context.Context, p *model.Product) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[p.ID]
	if !ok {
		return false, nil
	}
	if cur.RowVersion != p.RowVersion {
		return false, repository.ErrVersionConflict
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = p.Price
	cur.Stock = p.Stock
	cur.CategoryID = p.CategoryID
	cur.IsActive = p.IsActive
	cur.RowVersion++
	return true, nil
}

func (r *fakeCatalogRepo) DeleteProduct(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

func (r *fakeCatalogRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCatalogRepo) BulkInsertProducts(ctx context.Context, products []*model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAtWindow > 0 && len(r.windowSizes)+1 == r.failAtWindow {
		return fmt.Errorf("simulated window failure")
	}
	for _, p := range products {
		p.ID = r.nextProductID
		r.nextProductID++
		p.RowVersion = 1
		cp := *p
		r.products[p.ID] = &cp
	}
	r.windowSizes = append(r.windowSizes, len(products))
	return nil
}

func (r *fakeCatalogRepo) GetCategory(ctx context.Context, id int) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	for _, p := range r.products {
		if p.CategoryID == id {
			cp.ProductCount++
		}
	}
	return &cp, nil
}

func (r *fakeCatalogRepo) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCatalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Category
	for _, c := range r.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCatalogRepo) CreateCategory(ctx context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextCategoryID
	r.nextCategoryID++
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCatalogRepo) DeleteCategory(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return false, nil
	}
	delete(r.categories, id)
	return true, nil
}

func (r *fakeCatalogRepo) Ping(ctx context.Context) error { return nil }

func (r *fakeCatalogRepo) Close() error { return nil }

var _ repository.CatalogRepository = (*fakeCatalogRepo)(nil)

// fakeBulkRunRepo captures bulk run audit records in memory.
type fakeBulkRunRepo struct {
	mu   sync.Mutex
	runs []model.BulkRunLog
}

func (r *fakeBulkRunRepo) InsertBulkRun(ctx context.Context, run *model.BulkRunLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	return nil
}

func (r *fakeBulkRunRepo) GetBulkRuns(ctx context.Context, limit, offset int) ([]model.BulkRunLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := int64(len(r.runs))
	if offset > len(r.runs) {
		offset = len(r.runs)
	}
	end := offset + limit
	if end > len(r.runs) {
		end = len(r.runs)
	}
	return r.runs[offset:end], total, nil
}

func (r *fakeBulkRunRepo) Close() error { return nil }

var _ repository.BulkRunRepository = (*fakeBulkRunRepo)(nil)
