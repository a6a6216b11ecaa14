package models

import "time"

type OrderType string

const (
	OrderTypeLocal    OrderType = "local"
	OrderTypeDelivery OrderType = "domicilio"
)

const (
	PaymentCash     = "Efectivo"
	PaymentTransfer = "Transferencia"
)

// CartItem is one order line. Two lines are the same line iff ID and Notes match exactly.
type CartItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// LineTotal is price times quantity.
func (c CartItem) LineTotal() int64 {
	return c.Price * int64(c.Quantity)
}

// OrderRequest is the createOrder payload. It is built once per submission and never mutated.
type OrderRequest struct {
	CustomerName   string     `json:"customerName"`
	OrderType      OrderType  `json:"orderType"`
	Address        string     `json:"address"`
	DeliveryCharge int64      `json:"deliveryCharge"`
	PaymentMethod  string     `json:"paymentMethod"`
	Items          []CartItem `json:"items"`
	Subtotal       int64      `json:"subtotal"`
	Total          int64      `json:"total"`
	Date           time.Time  `json:"date"`
}

type OrderResult struct {
	Success     bool `json:"success"`
	OrderNumber int  `json:"orderNumber"`
}

// OrderRecord is a stored order as listed by getOrders.
type OrderRecord struct {
	OrderNumber   int        `json:"orderNumber"`
	RowIndex      int        `json:"rowIndex"`
	Date          string     `json:"date,omitempty"`
	RawDate       string     `json:"rawDate,omitempty"`
	Customer      string     `json:"customer"`
	Type          OrderType  `json:"type"`
	Address       string     `json:"address,omitempty"`
	PaymentMethod string     `json:"paymentMethod"`
	Total         int64      `json:"total"`
	Items         []CartItem `json:"items,omitempty"`
}

// OrderFilters narrows getOrders. Zero values are omitted from the request.
type OrderFilters struct {
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	DateStart     *time.Time `json:"dateStart,omitempty"`
	DateEnd       *time.Time `json:"dateEnd,omitempty"`
}
