package services

import (
	"strings"

	"charlie-pos/cart"
	"charlie-pos/catalog"
	"charlie-pos/models"
)

// Form is the customer and delivery data typed by the cashier for the current order.
type Form struct {
	CustomerName   string
	OrderType      models.OrderType
	Address        string
	DeliveryCharge int64
	PaymentMethod  string
}

// State is everything one terminal works on. It is owned by a single controller goroutine.
type State struct {
	Catalog *catalog.Cache
	Cart    *cart.Cart
	Form    Form
}

func NewState(c *catalog.Cache) *State {
	s := &State{Catalog: c, Cart: cart.New()}
	s.ResetForm()
	return s
}

// ResetForm restores the form to a local, cash order with no customer.
func (s *State) ResetForm() {
	s.Form = Form{OrderType: models.OrderTypeLocal, PaymentMethod: models.PaymentCash}
}

// ValidationError rejects input before anything is sent to the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validate(f Form, c *cart.Cart) error {
	if strings.TrimSpace(f.CustomerName) == "" {
		return &ValidationError{Field: "customerName", Message: "Por favor ingrese el nombre del cliente"}
	}
	if c.IsEmpty() {
		return &ValidationError{Field: "items", Message: "El carrito está vacío"}
	}
	switch f.OrderType {
	case models.OrderTypeDelivery:
		if strings.TrimSpace(f.Address) == "" {
			return &ValidationError{Field: "address", Message: "Ingrese la dirección de entrega"}
		}
		if f.DeliveryCharge < 0 {
			return &ValidationError{Field: "deliveryCharge", Message: "El valor del domicilio no puede ser negativo"}
		}
	case models.OrderTypeLocal:
	default:
		return &ValidationError{Field: "orderType", Message: "Tipo de orden inválido"}
	}
	return nil
}
