package store

import (
	"context"
	"fmt"

	"charlie-pos/models"
)

// API wraps a Client with typed calls for every action.
type API struct {
	client Client
}

func NewAPI(c Client) *API {
	return &API{client: c}
}

func (a *API) Client() Client { return a.client }

func (a *API) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := a.fetchList(ctx, ActionGetProducts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := a.fetchList(ctx, ActionGetCategories, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) PredefinedNotes(ctx context.Context) ([]string, error) {
	var out []string
	if err := a.fetchList(ctx, ActionGetPredefinedNotes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) fetchList(ctx context.Context, action string, dst any) error {
	resp, err := a.client.Call(ctx, action, nil)
	if err != nil {
		return err
	}
	return resp.Decode(dst)
}

// CreateOrder sends the order and returns the store-assigned order number.
func (a *API) CreateOrder(ctx context.Context, order *models.OrderRequest) (*models.OrderResult, error) {
	resp, err := a.client.Call(ctx, ActionCreateOrder, order)
	if err != nil {
		return nil, err
	}
	if resp.OrderNumber <= 0 {
		return nil, fmt.Errorf("%w: %s: missing orderNumber", ErrMalformedResponse, ActionCreateOrder)
	}
	return &models.OrderResult{Success: true, OrderNumber: resp.OrderNumber}, nil
}

// SaveProduct creates p when it has no ID and updates it otherwise.
func (a *API) SaveProduct(ctx context.Context, p models.Product) error {
	action := ActionCreateProduct
	if p.ID != "" {
		action = ActionUpdateProduct
	}
	_, err := a.client.Call(ctx, action, p)
	return err
}

func (a *API) DeleteProduct(ctx context.Context, id string) error {
	_, err := a.client.Call(ctx, ActionDeleteProduct, idPayload{ID: id})
	return err
}

// SaveCategory creates c when it has no ID and updates it otherwise.
func (a *API) SaveCategory(ctx context.Context, c models.Category) error {
	action := ActionCreateCategory
	if c.ID != "" {
		action = ActionUpdateCategory
	}
	_, err := a.client.Call(ctx, action, c)
	return err
}

func (a *API) DeleteCategory(ctx context.Context, id string) error {
	_, err := a.client.Call(ctx, ActionDeleteCategory, idPayload{ID: id})
	return err
}

func (a *API) Orders(ctx context.Context, filters models.OrderFilters) ([]models.OrderRecord, error) {
	resp, err := a.client.Call(ctx, ActionGetOrders, ordersPayload{Filters: filters})
	if err != nil {
		return nil, err
	}
	var out []models.OrderRecord
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) DeleteOrder(ctx context.Context, orderNumber, rowIndex int) error {
	_, err := a.client.Call(ctx, ActionDeleteOrder, deleteOrderPayload{OrderNumber: orderNumber, RowIndex: rowIndex})
	return err
}

type idPayload struct {
	ID string `json:"id"`
}

type ordersPayload struct {
	Filters models.OrderFilters `json:"filters"`
}

type deleteOrderPayload struct {
	OrderNumber int `json:"orderNumber"`
	RowIndex    int `json:"rowIndex"`
}
