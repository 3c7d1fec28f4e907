package storecrawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository() (*Repository, *memoryStore) {
	store := newMemoryStore()
	repo := NewRepository(store, 100)
	repo.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return repo, store
}

func TestUpsertProductIsIdempotentOnUrl(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository()

	first := Product{Name: "iPhone 15", Url: "https://cellphones.com.vn/iphone-15.html"}
	second := Product{Name: "iPhone 15 (VN/A)", Url: "https://cellphones.com.vn/iphone-15.html"}
	require.NoError(t, repo.UpsertProduct(ctx, &first))
	require.NoError(t, repo.UpsertProduct(ctx, &second))

	assert.Equal(t, 1, store.count(productCollection))
	stored, err := repo.FindProductByUrl(ctx, "https://cellphones.com.vn/iphone-15.html")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "iPhone 15 (VN/A)", stored.Name)
}

func TestUpsertProductDefaultsSlugAndStock(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()

	p := Product{Name: "Galaxy S24 Ultra", Url: "https://cellphones.com.vn/galaxy-s24-ultra.html", TotalStock: 7}
	require.NoError(t, repo.UpsertProduct(ctx, &p))
	assert.Equal(t, "galaxy-s24-ultra", p.Slug)
	assert.Equal(t, 100, p.TotalStock)
	assert.Equal(t, repo.now(), p.UpdatedAt)

	named := Product{Name: "Galaxy S24 Ultra", Url: "https://cellphones.com.vn/products/"}
	require.NoError(t, repo.UpsertProduct(ctx, &named))
	assert.Equal(t, "galaxy-s24-ultra", named.Slug)

	kept := Product{Url: "https://cellphones.com.vn/x.html", Slug: "custom"}
	require.NoError(t, repo.UpsertProduct(ctx, &kept))
	assert.Equal(t, "custom", kept.Slug)
}

func TestUpsertProductWithoutNameIsPersisted(t *testing.T) {
	repo, store := newTestRepository()
	require.NoError(t, repo.UpsertProduct(context.Background(), &Product{Url: "https://cellphones.com.vn/x.html"}))
	assert.Equal(t, 1, store.count(productCollection))
}

func TestUpsertRejectsRecordsWithoutKey(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository()

	err := repo.UpsertProduct(ctx, &Product{Name: "No url"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	err = repo.UpsertCategory(ctx, &Category{Name: "Phones", Url: "https://cellphones.com.vn/"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Zero(t, store.upserts)
}

func TestUpsertCategoryKeyedOnSlug(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository()

	require.NoError(t, repo.UpsertCategory(ctx, &Category{Name: "Điện thoại", Url: "https://cellphones.com.vn/mobile.html", Slug: "mobile"}))
	require.NoError(t, repo.UpsertCategory(ctx, &Category{Name: "Mobile", Url: "https://cellphones.com.vn/mobile.html", Slug: "mobile"}))
	require.NoError(t, repo.UpsertCategory(ctx, &Category{Name: "Laptop", Url: "https://cellphones.com.vn/laptop.html", Slug: "laptop"}))

	assert.Equal(t, 2, store.count(categoryCollection))
	stored, err := repo.FindCategoryBySlug(ctx, "mobile")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Mobile", stored.Name)

	missing, err := repo.FindCategoryBySlug(ctx, "tablet")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertPropagatesStoreErrors(t *testing.T) {
	repo, store := newTestRepository()
	store.failOn["https://cellphones.com.vn/broken.html"] = errors.New("write conflict")

	err := repo.UpsertProduct(context.Background(), &Product{Url: "https://cellphones.com.vn/broken.html"})
	assert.EqualError(t, err, "write conflict")
}

func TestFindProductsByCategory(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()
	for _, p := range []Product{
		{Url: "https://cellphones.com.vn/a.html", Category: "mobile"},
		{Url: "https://cellphones.com.vn/b.html", Category: "laptop"},
		{Url: "https://cellphones.com.vn/c.html", Category: "mobile"},
	} {
		p := p
		require.NoError(t, repo.UpsertProduct(ctx, &p))
	}

	products, err := repo.FindProducts(ctx, map[string]interface{}{"category": "mobile"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "a", products[0].Slug)
	assert.Equal(t, "c", products[1].Slug)
}
