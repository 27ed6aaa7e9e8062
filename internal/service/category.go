package service

import (
	"context"
	"fmt"
	"log"

	"catalog-rest-api/internal/cache"
	"catalog-rest-api/internal/model"
	"catalog-rest-api/internal/repository"
	"catalog-rest-api/pkg/apierror"
)

// CategoryService handles category business logic.
type CategoryService struct {
	repo  repository.CatalogRepository
	cache cache.Cache
}

// NewCategoryService creates a new category service.
// Returns nil if repo or c is nil (required dependencies).
func NewCategoryService(repo repository.CatalogRepository, c cache.Cache) *CategoryService {
	if repo == nil || c == nil {
		return nil
	}
	return &CategoryService{repo: repo, cache: c}
}

// ListCategories returns all categories with product counts.
func (s *CategoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// GetCategory returns a single category with its derived product count.
func (s *CategoryService) GetCategory(ctx context.Context, id int) (*model.Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if c == nil {
		return nil, apierror.NotFound("category not found")
	}
	return c, nil
}

// CreateCategory inserts a category after checking the unique-name rule.
func (s *CategoryService) CreateCategory(ctx context.Context, in model.CreateCategoryInput) (*model.Category, error) {
	existing, err := s.repo.GetCategoryByName(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if existing != nil {
		return nil, apierror.ValidationError("a category with that name already exists")
	}

	c := &model.Category{
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	log.Printf("[CategoryService] Category %q created with ID %d", c.Name, c.ID)
	return c, nil
}

// DeleteCategory removes a category. The delete is rejected while any
// product still references it.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int) error {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}
	if c == nil {
		return apierror.NotFound("category not found")
	}
	if c.ProductCount > 0 {
		return apierror.ValidationError("cannot delete a category that has associated products")
	}

	if _, err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.cache.Remove(cache.EntityKey("category", id))
	return nil
}
