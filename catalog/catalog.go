// Package catalog keeps the last-fetched products, categories and predefined notes.
package catalog

import (
	"context"
	"sync"

	"charlie-pos/models"
	"charlie-pos/store"
)

// Cache is replaced wholesale on every successful refresh and left untouched on failure.
type Cache struct {
	api *store.API

	mu         sync.RWMutex
	products   []models.Product
	categories []models.Category
	notes      []string
}

func New(api *store.API) *Cache {
	return &Cache{api: api}
}

func (c *Cache) RefreshProducts(ctx context.Context) error {
	products, err := c.api.Products(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	return nil
}

func (c *Cache) RefreshCategories(ctx context.Context) error {
	categories, err := c.api.Categories(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.categories = categories
	c.mu.Unlock()
	return nil
}

func (c *Cache) RefreshNotes(ctx context.Context) error {
	notes, err := c.api.PredefinedNotes(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.notes = notes
	c.mu.Unlock()
	return nil
}

// Refresh reloads every list independently and returns the first error.
func (c *Cache) Refresh(ctx context.Context) error {
	var first error
	for _, refresh := range []func(context.Context) error{c.RefreshCategories, c.RefreshProducts, c.RefreshNotes} {
		if err := refresh(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *Cache) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Product(nil), c.products...)
}

func (c *Cache) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Category(nil), c.categories...)
}

func (c *Cache) PredefinedNotes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.notes...)
}

func (c *Cache) Product(id string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (c *Cache) Category(id string) (models.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return models.Category{}, false
}

// HasCategoryName reports whether a category with exactly this name is cached.
func (c *Cache) HasCategoryName(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cat := range c.categories {
		if cat.Name == name {
			return true
		}
	}
	return false
}

// ProductsIn filters by category name; "" and models.AllCategories return everything.
func (c *Cache) ProductsIn(category string) []models.Product {
	if category == "" || category == models.AllCategories {
		return c.Products()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// CategoryInUse reports whether any cached product references the category's name.
func (c *Cache) CategoryInUse(categoryID string) bool {
	cat, ok := c.Category(categoryID)
	if !ok {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.Category == cat.Name {
			return true
		}
	}
	return false
}
