package model

import "time"

// Category groups products. Name is globally unique. ProductCount is derived
// by the store; a category cannot be deleted while it is non-zero.
type Category struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ProductCount int       `json:"product_count"`
}

// CreateCategoryInput carries the fields accepted on category creation.
type CreateCategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}
