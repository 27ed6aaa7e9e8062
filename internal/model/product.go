package model

import "time"

// Product represents a catalog product. The RowVersion token is incremented
// by the store on every successful update and is compared at write time to
// detect concurrent writers.
type Product struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price"`
	Stock       int        `json:"stock"`
	SKU         string     `json:"sku,omitempty"`
	CategoryID  int        `json:"category_id"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	RowVersion  int64      `json:"row_version"`

	// Joined category data, populated on single-product lookups.
	CategoryName     string `json:"category_name,omitempty"`
	CategoryImageURL string `json:"category_image_url,omitempty"`
}

// ProductPage is one page of a filtered product listing.
type ProductPage struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// CreateProductInput carries the fields accepted on product creation.
type CreateProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	SKU         string  `json:"sku"`
	CategoryID  int     `json:"category_id"`
	IsActive    bool    `json:"is_active"`
}

// UpdateProductInput carries the fields accepted on product update.
// RowVersion must be the version the caller last read; a mismatch at
// write time is reported as a conflict.
type UpdateProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	CategoryID  int     `json:"category_id"`
	IsActive    bool    `json:"is_active"`
	RowVersion  int64   `json:"row_version"`
}
