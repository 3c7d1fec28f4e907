package storecrawler

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRecord = errors.New("invalid record")

// Store is the document store the crawler writes to. UpsertOne must replace
// the fields of the document whose keyField equals keyValue, or insert doc.
type Store interface {
	UpsertOne(ctx context.Context, collection, keyField, keyValue string, doc interface{}) error
	Find(ctx context.Context, collection string, filter map[string]interface{}, results interface{}) error
	Close(ctx context.Context) error
}

// Repository turns crawl output into idempotent writes. It never deletes.
type Repository struct {
	store        Store
	defaultStock int
	now          func() time.Time
}

func NewRepository(store Store, defaultStock int) *Repository {
	return &Repository{store: store, defaultStock: defaultStock, now: time.Now}
}

// UpsertCategory writes c keyed on its slug.
func (r *Repository) UpsertCategory(ctx context.Context, c *Category) error {
	if c.Name == "" || c.Url == "" || c.Slug == "" {
		return fmt.Errorf("%w: category %q needs name, url and slug", ErrInvalidRecord, c.Url)
	}
	c.UpdatedAt = r.now()
	return r.store.UpsertOne(ctx, categoryCollection, "slug", c.Slug, c)
}

// UpsertProduct writes p keyed on its url. A missing slug is derived and the
// stock is reset to the default on every write.
func (r *Repository) UpsertProduct(ctx context.Context, p *Product) error {
	if p.Url == "" {
		return fmt.Errorf("%w: product %q has no url", ErrInvalidRecord, p.Name)
	}
	if p.Slug == "" {
		p.Slug = productSlug(p.Url, p.Name)
	}
	p.TotalStock = r.defaultStock
	p.UpdatedAt = r.now()
	return r.store.UpsertOne(ctx, productCollection, "url", p.Url, p)
}

func (r *Repository) FindCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var categories []Category
	if err := r.store.Find(ctx, categoryCollection, map[string]interface{}{"slug": slug}, &categories); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, nil
	}
	return &categories[0], nil
}

func (r *Repository) FindProductByUrl(ctx context.Context, url string) (*Product, error) {
	products, err := r.FindProducts(ctx, map[string]interface{}{"url": url})
	if err != nil || len(products) == 0 {
		return nil, err
	}
	return &products[0], nil
}

func (r *Repository) FindProducts(ctx context.Context, filter map[string]interface{}) ([]Product, error) {
	var products []Product
	if err := r.store.Find(ctx, productCollection, filter, &products); err != nil {
		return nil, err
	}
	return products, nil
}
