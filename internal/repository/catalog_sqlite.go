package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"catalog-rest-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteCatalogRepository implements CatalogRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteCatalogRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteCatalogRepository creates a new SQLite catalog repository.
// dbPath is the path to the SQLite database file (e.g., "./data/catalog.db")
func NewSQLiteCatalogRepository(dbPath string) (*SQLiteCatalogRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createCatalogTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteCatalogRepository] Initialized with database: %s", dbPath)
	return &SQLiteCatalogRepository{db: db}, nil
}

// createCatalogTables creates the categories and products tables.
func createCatalogTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		image_url TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		price REAL NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		sku TEXT UNIQUE,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME,
		row_version INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
	CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku);
	`
	_, err := db.Exec(query)
	return err
}

// GetProduct retrieves a product by id with its category joined.
func (r *SQLiteCatalogRepository) GetProduct(ctx context.Context, id int) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.sku,
		       p.category_id, p.is_active, p.created_at, p.updated_at, p.row_version,
		       c.name, c.image_url
		FROM products p
		INNER JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?`

	var p model.Product
	var desc, sku, catImage sql.NullString
	var updatedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &desc, &p.Price, &p.Stock, &sku,
		&p.CategoryID, &p.IsActive, &p.CreatedAt, &updatedAt, &p.RowVersion,
		&p.CategoryName, &catImage,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	p.Description = desc.String
	p.SKU = sku.String
	p.CategoryImageURL = catImage.String
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return &p, nil
}

// ListProducts applies the filter conjunctively, ordered by name ascending.
func (r *SQLiteCatalogRepository) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conds := []string{"1=1"}
	args := []any{}

	if f.Search != "" {
		conds = append(conds, "(p.name LIKE ? OR p.description LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	if f.CategoryID != nil {
		conds = append(conds, "p.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.MinPrice != nil {
		conds = append(conds, "p.price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conds = append(conds, "p.price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.IsActive != nil {
		conds = append(conds, "p.is_active = ?")
		args = append(args, *f.IsActive)
	}

	where := strings.Join(conds, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM products p WHERE " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	listQuery := `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.sku,
		       p.category_id, p.is_active, p.created_at, p.updated_at, p.row_version
		FROM products p
		WHERE ` + where + `
		ORDER BY p.name ASC
		LIMIT ? OFFSET ?`
	args = append(args, f.PageSize, f.Offset())

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var items []model.Product
	for rows.Next() {
		var p model.Product
		var desc, sku sql.NullString
		var updatedAt sql.NullTime
		if err := rows.Scan(
			&p.ID, &p.Name, &desc, &p.Price, &p.Stock, &sku,
			&p.CategoryID, &p.IsActive, &p.CreatedAt, &updatedAt, &p.RowVersion,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Description = desc.String
		p.SKU = sku.String
		if updatedAt.Valid {
			p.UpdatedAt = &updatedAt.Time
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// CreateProduct inserts a product and fills in its ID and RowVersion.
func (r *SQLiteCatalogRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.CreatedAt = time.Now().UTC()
	p.RowVersion = 1

	query := `
		INSERT INTO products (name, description, price, stock, sku, category_id, is_active, created_at, row_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`

	res, err := r.db.ExecContext(ctx, query,
		p.Name, nullString(p.Description), p.Price, p.Stock, nullString(p.SKU),
		p.CategoryID, p.IsActive, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted product id: %w", err)
	}
	p.ID = int(id)
	return nil
}

// UpdateProduct writes the product only when p.RowVersion still matches the
// stored row. A zero-row update distinguishes a missing product from a stale
// version by rereading the row.
func (r *SQLiteCatalogRepository) UpdateProduct(ctx context.Context, p *model.Product) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, stock = ?, category_id = ?,
		    is_active = ?, updated_at = ?, row_version = row_version + 1
		WHERE id = ? AND row_version = ?`

	res, err := r.db.ExecContext(ctx, query,
		p.Name, nullString(p.Description), p.Price, p.Stock, p.CategoryID,
		p.IsActive, now, p.ID, p.RowVersion)
	if err != nil {
		return false, fmt.Errorf("failed to update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		var current int64
		err := r.db.QueryRowContext(ctx, "SELECT row_version FROM products WHERE id = ?", p.ID).Scan(&current)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to check product version: %w", err)
		}
		return true, ErrVersionConflict
	}

	p.UpdatedAt = &now
	p.RowVersion++
	return true, nil
}

// DeleteProduct removes a product by id.
func (r *SQLiteCatalogRepository) DeleteProduct(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ExistsBySKU reports whether any product carries the given SKU.
func (r *SQLiteCatalogRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE sku = ?)", sku).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check SKU: %w", err)
	}
	return exists, nil
}

// BulkInsertProducts inserts one window of products in a single transaction.
func (r *SQLiteCatalogRepository) BulkInsertProducts(ctx context.Context, products []*model.Product) error {
	if len(products) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (name, description, price, stock, sku, category_id, is_active, created_at, row_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range products {
		p.CreatedAt = now
		p.RowVersion = 1
		res, err := stmt.ExecContext(ctx,
			p.Name, nullString(p.Description), p.Price, p.Stock, nullString(p.SKU),
			p.CategoryID, p.IsActive, now)
		if err != nil {
			return fmt.Errorf("failed to bulk insert product %q: %w", p.SKU, err)
		}
		if id, err := res.LastInsertId(); err == nil {
			p.ID = int(id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCategory retrieves a category by id with its derived product count.
func (r *SQLiteCatalogRepository) GetCategory(ctx context.Context, id int) (*model.Category, error) {
	return r.getCategoryWhere(ctx, "c.id = ?", id)
}

// GetCategoryByName retrieves a category by its unique name.
func (r *SQLiteCatalogRepository) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	return r.getCategoryWhere(ctx, "c.name = ?", name)
}

func (r *SQLiteCatalogRepository) getCategoryWhere(ctx context.Context, cond string, arg any) (*model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT c.id, c.name, c.description, c.image_url, c.created_at,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id)
		FROM categories c
		WHERE ` + cond

	var c model.Category
	var desc, image sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.Name, &desc, &image, &c.CreatedAt, &c.ProductCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	c.Description = desc.String
	c.ImageURL = image.String
	return &c, nil
}

// ListCategories returns all categories with product counts, ordered by name.
func (r *SQLiteCatalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT c.id, c.name, c.description, c.image_url, c.created_at,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id)
		FROM categories c
		ORDER BY c.name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		var desc, image sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &desc, &image, &c.CreatedAt, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Description = desc.String
		c.ImageURL = image.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory inserts a category and fills in its ID.
func (r *SQLiteCatalogRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, description, image_url, created_at) VALUES (?, ?, ?, ?)",
		c.Name, nullString(c.Description), nullString(c.ImageURL), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted category id: %w", err)
	}
	c.ID = int(id)
	return nil
}

// DeleteCategory removes a category by id.
func (r *SQLiteCatalogRepository) DeleteCategory(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Close closes the database connection.
// Ping verifies the database file is reachable.
func (r *SQLiteCatalogRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteCatalogRepository) Close() error {
	return r.db.Close()
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ensure SQLiteCatalogRepository implements CatalogRepository
var _ CatalogRepository = (*SQLiteCatalogRepository)(nil)
