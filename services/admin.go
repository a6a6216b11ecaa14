package services

import (
	"context"
	"strings"
	"time"

	"charlie-pos/catalog"
	"charlie-pos/models"
	"charlie-pos/notify"
	"charlie-pos/store"

	"go.uber.org/zap"
)

// Admin maintains the catalog and the order history. Every successful mutation reloads the
// affected cached list; failures leave the cache as it was.
type Admin struct {
	API      *store.API
	Catalog  *catalog.Cache
	Location *time.Location
	Notifier notify.Notifier
	Log      *zap.Logger
}

func NewAdmin(api *store.API, c *catalog.Cache, loc *time.Location) *Admin {
	if loc == nil {
		loc = time.Local
	}
	return &Admin{API: api, Catalog: c, Location: loc, Notifier: notify.Discard, Log: zap.NewNop()}
}

func (a *Admin) SaveProduct(ctx context.Context, p models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Name == "" {
		return a.reject(&ValidationError{Field: "name", Message: "Ingrese el nombre del producto"})
	}
	if p.Price < 0 {
		return a.reject(&ValidationError{Field: "price", Message: "El precio no puede ser negativo"})
	}
	if !a.Catalog.HasCategoryName(p.Category) {
		return a.reject(&ValidationError{Field: "category", Message: "Seleccione una categoría válida"})
	}

	if err := a.API.SaveProduct(ctx, p); err != nil {
		return a.fail("save product", "Error al guardar el producto", err)
	}
	if err := a.Catalog.RefreshProducts(ctx); err != nil {
		a.Log.Warn("refresh products", zap.Error(err))
	}
	if p.ID == "" {
		a.Notifier.Notify(notify.LevelSuccess, "Producto creado correctamente")
	} else {
		a.Notifier.Notify(notify.LevelSuccess, "Producto actualizado correctamente")
	}
	return nil
}

func (a *Admin) DeleteProduct(ctx context.Context, id string) error {
	if err := a.API.DeleteProduct(ctx, id); err != nil {
		return a.fail("delete product", "Error al eliminar el producto", err)
	}
	if err := a.Catalog.RefreshProducts(ctx); err != nil {
		a.Log.Warn("refresh products", zap.Error(err))
	}
	a.Notifier.Notify(notify.LevelSuccess, "Producto eliminado correctamente")
	return nil
}

func (a *Admin) SaveCategory(ctx context.Context, c models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return a.reject(&ValidationError{Field: "name", Message: "Ingrese el nombre de la categoría"})
	}
	if err := a.API.SaveCategory(ctx, c); err != nil {
		return a.fail("save category", "Error al guardar la categoría", err)
	}
	if err := a.Catalog.RefreshCategories(ctx); err != nil {
		a.Log.Warn("refresh categories", zap.Error(err))
	}
	// A rename is carried over to the products by the store.
	if c.ID != "" {
		if err := a.Catalog.RefreshProducts(ctx); err != nil {
			a.Log.Warn("refresh products", zap.Error(err))
		}
		a.Notifier.Notify(notify.LevelSuccess, "Categoría actualizada correctamente")
		return nil
	}
	a.Notifier.Notify(notify.LevelSuccess, "Categoría creada correctamente")
	return nil
}

// DeleteCategory refuses, without calling the store, while a cached product uses the category.
func (a *Admin) DeleteCategory(ctx context.Context, id string) error {
	if a.Catalog.CategoryInUse(id) {
		return a.reject(&ValidationError{Field: "category", Message: "No se puede eliminar una categoría con productos asociados"})
	}
	if err := a.API.DeleteCategory(ctx, id); err != nil {
		return a.fail("delete category", "Error al eliminar la categoría", err)
	}
	if err := a.Catalog.RefreshCategories(ctx); err != nil {
		a.Log.Warn("refresh categories", zap.Error(err))
	}
	a.Notifier.Notify(notify.LevelSuccess, "Categoría eliminada correctamente")
	return nil
}

func (a *Admin) Orders(ctx context.Context, filters models.OrderFilters) ([]models.OrderRecord, error) {
	orders, err := a.API.Orders(ctx, filters)
	if err != nil {
		return nil, a.fail("list orders", "Error al cargar las órdenes", err)
	}
	return orders, nil
}

// OrdersOn lists the orders of one calendar day in the admin's time zone. An empty payment
// method matches all.
func (a *Admin) OrdersOn(ctx context.Context, day time.Time, paymentMethod string) ([]models.OrderRecord, error) {
	start, end := DayRange(day, a.Location)
	return a.Orders(ctx, models.OrderFilters{PaymentMethod: paymentMethod, DateStart: &start, DateEnd: &end})
}

func (a *Admin) DeleteOrder(ctx context.Context, orderNumber, rowIndex int) error {
	if err := a.API.DeleteOrder(ctx, orderNumber, rowIndex); err != nil {
		return a.fail("delete order", "Error al eliminar la orden", err)
	}
	a.Notifier.Notify(notify.LevelSuccess, "Orden eliminada")
	return nil
}

// DayRange returns the first and last millisecond of day's date in loc.
func DayRange(day time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Millisecond)
}

func (a *Admin) reject(err *ValidationError) error {
	a.Notifier.Notify(notify.LevelError, err.Message)
	return err
}

func (a *Admin) fail(op, message string, err error) error {
	a.Log.Error(op, zap.Error(err))
	a.Notifier.Notify(notify.LevelError, message)
	return err
}
