package repository

import (
	"context"
	"errors"

	"catalog-rest-api/internal/model"
)

// ErrVersionConflict is returned by UpdateProduct when the row version the
// caller presented no longer matches the stored row, i.e. another writer
// committed in between. The caller must reread and retry.
var ErrVersionConflict = errors.New("row version conflict")

// CatalogRepository defines product and category data access methods.
// The service layer never assumes a specific storage engine.
type CatalogRepository interface {
	// GetProduct retrieves a product by id with its category joined.
	// Returns (nil, nil) when the product does not exist.
	GetProduct(ctx context.Context, id int) (*model.Product, error)

	// ListProducts applies the filter conjunctively, orders by name ascending
	// and returns the requested page plus the total matching count.
	ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error)

	// CreateProduct inserts a product and fills in its ID and RowVersion.
	CreateProduct(ctx context.Context, p *model.Product) error

	// UpdateProduct writes the product if p.RowVersion still matches the
	// stored row, incrementing the version on success. A missing row is
	// reported as found=false; a stale version as ErrVersionConflict.
	UpdateProduct(ctx context.Context, p *model.Product) (found bool, err error)

	// DeleteProduct removes a product. Returns false when it did not exist.
	DeleteProduct(ctx context.Context, id int) (bool, error)

	// ExistsBySKU reports whether any product carries the given SKU.
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// BulkInsertProducts inserts one window of products in a single
	// transaction. Either the whole window commits or none of it does.
	BulkInsertProducts(ctx context.Context, products []*model.Product) error

	// GetCategory retrieves a category by id with its derived product count.
	// Returns (nil, nil) when the category does not exist.
	GetCategory(ctx context.Context, id int) (*model.Category, error)

	// GetCategoryByName retrieves a category by its unique name.
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)

	// ListCategories returns all categories with product counts.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// CreateCategory inserts a category and fills in its ID.
	CreateCategory(ctx context.Context, c *model.Category) error

	// DeleteCategory removes a category. Returns false when it did not exist.
	// Callers must check the product-count invariant first.
	DeleteCategory(ctx context.Context, id int) (bool, error)

	// Ping verifies the underlying store is reachable.
	Ping(ctx context.Context) error

	// Close closes the repository connection.
	Close() error
}

// AccountRepository defines account data access for token issuance.
type AccountRepository interface {
	// ValidateCredentials validates an api_key+client_id pair.
	ValidateCredentials(ctx context.Context, apiKey, clientID string) (*model.AccountValidation, error)
}

// BulkRunRepository persists audit records for bulk insert runs.
type BulkRunRepository interface {
	InsertBulkRun(ctx context.Context, run *model.BulkRunLog) error
	GetBulkRuns(ctx context.Context, limit, offset int) ([]model.BulkRunLog, int64, error)
	Close() error
}
