package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"catalog-rest-api/internal/cache"
	"catalog-rest-api/internal/model"
	"catalog-rest-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductFixture(t *testing.T) (*ProductService, *fakeCatalogRepo, *cache.VersionedCache) {
	t.Helper()
	repo := newFakeCatalogRepo()
	c := cache.NewVersionedCache(cache.Options{})
	t.Cleanup(func() { c.Close() })
	svc := NewProductService(repo, c, TTLConfig{})
	require.NotNil(t, svc)
	return svc, repo, c
}

func TestNewProductServiceRequiresDependencies(t *testing.T) {
	c := cache.NewVersionedCache(cache.Options{})
	defer c.Close()

	assert.Nil(t, NewProductService(nil, c, TTLConfig{}))
	assert.Nil(t, NewProductService(newFakeCatalogRepo(), nil, TTLConfig{}))
}

func TestListProductsPagination(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Electronics")
	for i := 1; i <= 25; i++ {
		repo.addProduct(fmt.Sprintf("Widget %03d", i), cat.ID, 9.99)
	}

	ctx := context.Background()
	seen := make(map[int]bool)
	for page := 1; page <= 3; page++ {
		got, err := svc.ListProducts(ctx, model.ProductFilter{Page: page, PageSize: 10})
		require.NoError(t, err)

		assert.Equal(t, 25, got.TotalCount)
		assert.Equal(t, 3, got.TotalPages)
		assert.Equal(t, page, got.Page)
		for _, p := range got.Items {
			assert.False(t, seen[p.ID], "product %d appeared on more than one page", p.ID)
			seen[p.ID] = true
		}
	}
	assert.Len(t, seen, 25, "pages together must cover every matching product")

	// Page size clamps and an out-of-range page yields an empty page, not an error.
	got, err := svc.ListProducts(ctx, model.ProductFilter{Page: 99, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, 25, got.TotalCount)
}

func TestListProductsFilters(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	electronics := repo.addCategory("Electronics")
	books := repo.addCategory("Books")
	repo.addProduct("Cheap Cable", electronics.ID, 3.50)
	repo.addProduct("Expensive Monitor", electronics.ID, 350.00)
	repo.addProduct("Go Novel", books.ID, 25.00)

	ctx := context.Background()

	min, max := 10.0, 100.0
	got, err := svc.ListProducts(ctx, model.ProductFilter{Page: 1, PageSize: 10, MinPrice: &min, MaxPrice: &max})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Go Novel", got.Items[0].Name)

	got, err = svc.ListProducts(ctx, model.ProductFilter{Page: 1, PageSize: 10, CategoryID: &electronics.ID, Search: "cable"})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Cheap Cable", got.Items[0].Name)
}

func TestListProductsServedFromCache(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Electronics")
	repo.addProduct("Widget", cat.ID, 9.99)

	ctx := context.Background()
	f := model.ProductFilter{Page: 1, PageSize: 10}

	_, err := svc.ListProducts(ctx, f)
	require.NoError(t, err)
	_, err = svc.ListProducts(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls, "identical repeated query must be a cache hit")

	// Equivalent coordinates after clamping share the cached entry.
	_, err = svc.ListProducts(ctx, model.ProductFilter{Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	// A different page is a different entry.
	_, err = svc.ListProducts(ctx, model.ProductFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestMutationInvalidatesListCache(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Electronics")
	repo.addProduct("Widget", cat.ID, 9.99)

	ctx := context.Background()
	f := model.ProductFilter{Page: 1, PageSize: 10}

	got, err := svc.ListProducts(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalCount)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.CreateProduct(ctx, model.CreateProductInput{
		Name: "Gadget", Price: 19.99, CategoryID: cat.ID, IsActive: true,
	})
	require.NoError(t, err)

	got, err = svc.ListProducts(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls, "mutation must make cached pages unreachable")
	assert.Equal(t, 2, got.TotalCount)
}

func TestGetProductCachedAndInvalidated(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Electronics")
	p := repo.addProduct("Widget", cat.ID, 9.99)

	ctx := context.Background()

	_, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	_, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCalls, "second read must come from the cache")

	_, err = svc.UpdateProduct(ctx, p.ID, model.UpdateProductInput{
		Name: "Widget v2", Price: 12.50, CategoryID: cat.ID, IsActive: true, RowVersion: 1,
	})
	require.NoError(t, err)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", got.Name)
	assert.Equal(t, int64(2), got.RowVersion)
}

func TestGetProductNotFound(t *testing.T) {
	svc, _, _ := newProductFixture(t)

	_, err := svc.GetProduct(context.Background(), 404)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestCreateProductUnknownCategory(t *testing.T) {
	svc, _, _ := newProductFixture(t)

	_, err := svc.CreateProduct(context.Background(), model.CreateProductInput{
		Name: "Orphan", Price: 5, CategoryID: 42,
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Electronics")
	existing := repo.addProduct("Widget", cat.ID, 9.99)

	_, err := svc.CreateProduct(context.Background(), model.CreateProductInput{
		Name: "Clone", Price: 9.99, SKU: existing.SKU, CategoryID: cat.ID,
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestCreateProductGeneratesSKU(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Home Office")

	ctx := context.Background()
	first, err := svc.CreateProduct(ctx, model.CreateProductInput{
		Name: "Desk", Price: 100, CategoryID: cat.ID, IsActive: true,
	})
	require.NoError(t, err)
	second, err := svc.CreateProduct(ctx, model.CreateProductInput{
		Name: "Chair", Price: 80, CategoryID: cat.ID, IsActive: true,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.SKU, "SKU-HomeOffice-"), "got %q", first.SKU)
	assert.NotEqual(t, first.SKU, second.SKU)
	assert.Equal(t, "Home Office", first.CategoryName)
}

func TestCreateProductRoundsPrice(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Electronics")

	got, err := svc.CreateProduct(context.Background(), model.CreateProductInput{
		Name: "Widget", Price: 9.999, CategoryID: cat.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Price)
}

func TestUpdateProductVersionConflict(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Electronics")
	p := repo.addProduct("Widget", cat.ID, 9.99)

	ctx := context.Background()
	in := model.UpdateProductInput{
		Name: "Widget v2", Price: 12, CategoryID: cat.ID, IsActive: true, RowVersion: 1,
	}

	// Two writers read version 1; the first commit wins, the second must
	// observe a conflict rather than silently overwrite.
	_, err := svc.UpdateProduct(ctx, p.ID, in)
	require.NoError(t, err)

	in.Name = "Widget v2 (lost update)"
	_, err = svc.UpdateProduct(ctx, p.ID, in)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "CONFLICT", apiErr.Code)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", got.Name, "the losing write must leave no effect")
}

func TestUpdateProductNotFound(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Electronics")

	_, err := svc.UpdateProduct(context.Background(), 404, model.UpdateProductInput{
		Name: "Ghost", Price: 1, CategoryID: cat.ID, RowVersion: 1,
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestDeleteProduct(t *testing.T) {
	svc, repo, _ := newProductFixture(t)
	cat := repo.addCategory("Electronics")
	p := repo.addProduct("Widget", cat.ID, 9.99)

	ctx := context.Background()
	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	_, err := svc.GetProduct(ctx, p.ID)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	err = svc.DeleteProduct(ctx, p.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}
