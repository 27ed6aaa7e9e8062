package service

import (
	"context"
	"net/http"
	"testing"

	"catalog-rest-api/internal/cache"
	"catalog-rest-api/internal/model"
	"catalog-rest-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBulkFixture(t *testing.T, runs *fakeBulkRunRepo) (*BulkService, *fakeCatalogRepo, *cache.VersionedCache) {
	t.Helper()
	repo := newFakeCatalogRepo()
	c := cache.NewVersionedCache(cache.Options{})
	t.Cleanup(func() { c.Close() })
	var svc *BulkService
	if runs != nil {
		svc = NewBulkService(repo, c, runs)
	} else {
		svc = NewBulkService(repo, c, nil)
	}
	require.NotNil(t, svc)
	return svc, repo, c
}

func TestCreateBulkWindows(t *testing.T) {
	svc, repo, c := newBulkFixture(t, nil)
	cat := repo.addCategory("Electronics")

	epochBefore := c.Epoch()
	result, err := svc.CreateBulk(context.Background(), model.BulkCreateRequest{
		Count:      2500,
		CategoryID: cat.ID,
		BatchSize:  1000,
	})
	require.NoError(t, err)

	assert.Equal(t, 2500, result.CreatedCount)
	assert.Equal(t, 3, result.Windows)
	assert.Equal(t, []int{1000, 1000, 500}, repo.windowSizes,
		"the last window carries the remainder")
	assert.Equal(t, "Electronics", result.CategoryName)
	assert.Len(t, repo.products, 2500)
	assert.Equal(t, epochBefore+1, c.Epoch(), "one bump for the whole run")
}

func TestCreateBulkBatchSizeBounds(t *testing.T) {
	tests := []struct {
		name        string
		count       int
		batchSize   int
		wantWindows []int
	}{
		{"default batch size", 1500, 0, []int{1000, 500}},
		{"oversized batch clamped", 15000, 20000, []int{10000, 5000}},
		{"count below one batch", 42, 1000, []int{42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newBulkFixture(t, nil)
			cat := repo.addCategory("Electronics")

			result, err := svc.CreateBulk(context.Background(), model.BulkCreateRequest{
				Count:      tt.count,
				CategoryID: cat.ID,
				BatchSize:  tt.batchSize,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.count, result.CreatedCount)
			assert.Equal(t, tt.wantWindows, repo.windowSizes)
		})
	}
}

func TestCreateBulkValidation(t *testing.T) {
	svc, repo, _ := newBulkFixture(t, nil)
	cat := repo.addCategory("Electronics")
	ctx := context.Background()

	tests := []struct {
		name string
		req  model.BulkCreateRequest
	}{
		{"zero count", model.BulkCreateRequest{Count: 0, CategoryID: cat.ID}},
		{"count above maximum", model.BulkCreateRequest{Count: model.MaxBulkCount + 1, CategoryID: cat.ID}},
		{"inverted price range", model.BulkCreateRequest{Count: 10, CategoryID: cat.ID, MinPrice: 50, MaxPrice: 10}},
		{"unknown category", model.BulkCreateRequest{Count: 10, CategoryID: 999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBulk(ctx, tt.req)
			var apiErr *apierror.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
		})
	}

	assert.Empty(t, repo.windowSizes, "validation failures must not reach the store")
}

func TestCreateBulkGeneratedFields(t *testing.T) {
	svc, repo, _ := newBulkFixture(t, nil)
	cat := repo.addCategory("Office Chairs")

	_, err := svc.CreateBulk(context.Background(), model.BulkCreateRequest{
		Count:      50,
		CategoryID: cat.ID,
		NamePrefix: "Chair",
		MinPrice:   10,
		MaxPrice:   20,
	})
	require.NoError(t, err)

	skus := make(map[string]bool)
	names := make(map[string]bool)
	for _, p := range repo.products {
		assert.GreaterOrEqual(t, p.Price, 10.0)
		assert.LessOrEqual(t, p.Price, 20.0)
		assert.GreaterOrEqual(t, p.Stock, 0)
		assert.Less(t, p.Stock, 1000)
		assert.True(t, p.IsActive)
		assert.Equal(t, cat.ID, p.CategoryID)
		assert.Contains(t, p.SKU, "SKU-OfficeChairs-")
		assert.False(t, skus[p.SKU], "duplicate SKU %q", p.SKU)
		skus[p.SKU] = true
		names[p.Name] = true
	}
	assert.True(t, names["Chair 000001"])
	assert.True(t, names["Chair 000050"])
}

func TestCreateBulkPartialFailure(t *testing.T) {
	svc, repo, c := newBulkFixture(t, nil)
	cat := repo.addCategory("Electronics")
	repo.failAtWindow = 2

	epochBefore := c.Epoch()
	result, err := svc.CreateBulk(context.Background(), model.BulkCreateRequest{
		Count:      2500,
		CategoryID: cat.ID,
		BatchSize:  1000,
	})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	require.NotNil(t, result)
	assert.Equal(t, 1000, result.CreatedCount, "committed windows stay committed")
	assert.Equal(t, 1, result.Windows)
	assert.Len(t, repo.products, 1000)
	assert.Equal(t, epochBefore+1, c.Epoch(),
		"a partial run must still make its committed rows visible")
}

func TestCreateBulkRecordsAuditRun(t *testing.T) {
	runs := &fakeBulkRunRepo{}
	svc, repo, _ := newBulkFixture(t, runs)
	cat := repo.addCategory("Electronics")

	_, err := svc.CreateBulk(context.Background(), model.BulkCreateRequest{
		Count:      100,
		CategoryID: cat.ID,
		BatchSize:  40,
	})
	require.NoError(t, err)

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	assert.Equal(t, 100, run.RequestedCount)
	assert.Equal(t, 100, run.CreatedCount)
	assert.Equal(t, 3, run.Windows)
	assert.Equal(t, "Electronics", run.CategoryName)
	assert.Empty(t, run.Error)
	assert.False(t, run.StartedAt.IsZero())
}

func TestCreateBulkRecordsFailedRun(t *testing.T) {
	runs := &fakeBulkRunRepo{}
	svc, repo, _ := newBulkFixture(t, runs)
	cat := repo.addCategory("Electronics")
	repo.failAtWindow = 1

	_, err := svc.CreateBulk(context.Background(), model.BulkCreateRequest{
		Count:      100,
		CategoryID: cat.ID,
	})
	require.Error(t, err)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, 0, runs.runs[0].CreatedCount)
	assert.NotEmpty(t, runs.runs[0].Error)
}

func TestGetRunsWithoutSink(t *testing.T) {
	svc, _, _ := newBulkFixture(t, nil)

	runs, total, err := svc.GetRuns(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Zero(t, total)
}

func TestGetRunsPaged(t *testing.T) {
	runs := &fakeBulkRunRepo{}
	for i := 0; i < 5; i++ {
		runs.runs = append(runs.runs, model.BulkRunLog{RequestedCount: i})
	}
	svc, _, _ := newBulkFixture(t, runs)

	got, total, err := svc.GetRuns(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].RequestedCount)
}
