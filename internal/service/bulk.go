package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	"catalog-rest-api/internal/cache"
	"catalog-rest-api/internal/model"
	"catalog-rest-api/internal/repository"
	"catalog-rest-api/pkg/apierror"
)

// maxGeneratedStock is the exclusive ceiling for the random stock of a
// generated product.
const maxGeneratedStock = 1000

// BulkService generates and commits large synthetic product batches in
// bounded-size windows. Each window is one store transaction, which bounds
// peak memory and transaction size regardless of the total count.
type BulkService struct {
	repo repository.CatalogRepository
	c    cache.Cache
	runs repository.BulkRunRepository // optional audit sink
}

// NewBulkService creates a new bulk insert service. runs may be nil.
func NewBulkService(repo repository.CatalogRepository, c cache.Cache, runs repository.BulkRunRepository) *BulkService {
	if repo == nil || c == nil {
		return nil
	}
	return &BulkService{repo: repo, c: c, runs: runs}
}

// CreateBulk validates the request, generates req.Count products in windows
// of req.BatchSize and commits each window as one store operation. A window
// failure aborts the remaining windows but the committed ones stay; either
// way the epoch is bumped exactly once so the committed set is visible to
// subsequent list queries.
func (s *BulkService) CreateBulk(ctx context.Context, req model.BulkCreateRequest) (*model.BulkCreateResult, error) {
	start := time.Now()

	if req.Count < model.MinBulkCount || req.Count > model.MaxBulkCount {
		return nil, apierror.ValidationError(
			fmt.Sprintf("count must be between %d and %d", model.MinBulkCount, model.MaxBulkCount))
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = model.DefaultBatchSize
	}
	if batchSize > model.MaxBatchSize {
		batchSize = model.MaxBatchSize
	}

	minPrice, maxPrice := req.MinPrice, req.MaxPrice
	if minPrice <= 0 && maxPrice <= 0 {
		minPrice, maxPrice = 10.0, 1000.0
	}
	if maxPrice < minPrice {
		return nil, apierror.ValidationError("max_price must not be lower than min_price")
	}

	namePrefix := strings.TrimSpace(req.NamePrefix)
	if namePrefix == "" {
		namePrefix = "Product"
	}

	// Fail fast before any window is attempted.
	category, err := s.repo.GetCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, apierror.ValidationError("the specified category does not exist")
	}

	log.Printf("[BulkService] Starting bulk creation of %d products for category %q (batch size %d)",
		req.Count, category.Name, batchSize)

	catToken := strings.ReplaceAll(category.Name, " ", "")
	created := 0
	windows := 0
	var windowErr error

	for created < req.Count {
		size := batchSize
		if remaining := req.Count - created; remaining < size {
			size = remaining
		}

		products := make([]*model.Product, 0, size)
		for i := 0; i < size; i++ {
			n := created + i + 1
			products = append(products, &model.Product{
				Name:        fmt.Sprintf("%s %06d", namePrefix, n),
				Description: fmt.Sprintf("Automatically generated product #%d for %s", n, category.Name),
				Price:       math.Round((minPrice+rand.Float64()*(maxPrice-minPrice))*100) / 100,
				Stock:       rand.Intn(maxGeneratedStock),
				SKU:         fmt.Sprintf("SKU-%s-%d-%06d", catToken, time.Now().UnixNano(), n),
				CategoryID:  req.CategoryID,
				IsActive:    true,
			})
		}

		if err := s.repo.BulkInsertProducts(ctx, products); err != nil {
			windowErr = fmt.Errorf("window %d failed to commit: %w", windows+1, err)
			break
		}

		windows++
		created += size

		if windows%10 == 0 || created == req.Count {
			log.Printf("[BulkService] Progress: %d/%d products created", created, req.Count)
		}
	}

	// One epoch bump for the whole run, not one per entity. A partial run
	// bumps too: the windows that committed are real and must not stay
	// invisible behind stale list entries.
	s.c.BumpEpoch()

	elapsed := time.Since(start)
	result := &model.BulkCreateResult{
		CreatedCount: created,
		CategoryName: category.Name,
		Windows:      windows,
		Elapsed:      elapsed,
		ElapsedMS:    elapsed.Milliseconds(),
		Message:      fmt.Sprintf("created %d products in %dms", created, elapsed.Milliseconds()),
	}

	s.recordRun(req, result, category, batchSize, start, windowErr)

	if windowErr != nil {
		log.Printf("[BulkService] Bulk creation aborted: %v", windowErr)
		result.Message = fmt.Sprintf("bulk insert aborted after %d of %d products", created, req.Count)
		return result, apierror.InternalError(result.Message)
	}

	log.Printf("[BulkService] Bulk creation completed: %d products in %dms", created, elapsed.Milliseconds())
	return result, nil
}

// GetRuns returns past bulk run audit records, newest first.
// Returns an empty slice when no audit sink is configured.
func (s *BulkService) GetRuns(ctx context.Context, limit, offset int) ([]model.BulkRunLog, int64, error) {
	if s.runs == nil {
		return []model.BulkRunLog{}, 0, nil
	}
	return s.runs.GetBulkRuns(ctx, limit, offset)
}

// recordRun persists the audit record when a sink is configured. Failures
// are logged, never surfaced: the run itself already succeeded or failed on
// its own terms.
func (s *BulkService) recordRun(req model.BulkCreateRequest, result *model.BulkCreateResult, category *model.Category, batchSize int, start time.Time, runErr error) {
	if s.runs == nil {
		return
	}

	run := &model.BulkRunLog{
		RequestedCount: req.Count,
		CreatedCount:   result.CreatedCount,
		CategoryID:     req.CategoryID,
		CategoryName:   category.Name,
		BatchSize:      batchSize,
		Windows:        result.Windows,
		ElapsedMS:      result.ElapsedMS,
		StartedAt:      start,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.runs.InsertBulkRun(ctx, run); err != nil {
		log.Printf("[BulkService] Failed to record bulk run: %v", err)
	}
}
