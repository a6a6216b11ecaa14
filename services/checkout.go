package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"charlie-pos/metrics"
	"charlie-pos/models"
	"charlie-pos/notify"
	"charlie-pos/printer"
	"charlie-pos/receipt"
	"charlie-pos/store"

	"go.uber.org/zap"
)

var ErrSubmitInProgress = errors.New("an order is already being submitted")

// Submission is the outcome of a successful checkout. PrintErr reports copies that failed to print;
// the order itself stands.
type Submission struct {
	Result   *models.OrderResult
	Order    *models.OrderRequest
	Receipt  string
	PrintErr error
}

// Checkout turns the current cart and form into a stored, printed order.
type Checkout struct {
	API       *store.API
	Formatter *receipt.Formatter
	Printer   *printer.Dispatcher

	Notifier notify.Notifier
	Metrics  *metrics.Registry
	Log      *zap.Logger
	Now      func() time.Time

	busy sync.Mutex
}

func NewCheckout(api *store.API, f *receipt.Formatter, p *printer.Dispatcher) *Checkout {
	return &Checkout{
		API:       api,
		Formatter: f,
		Printer:   p,
		Notifier:  notify.Discard,
		Log:       zap.NewNop(),
		Now:       time.Now,
	}
}

// Submit validates the form, creates the order in the store, prints its receipts and then clears
// the cart and form. On any error before the order is stored, state is left untouched.
func (c *Checkout) Submit(ctx context.Context, s *State) (*Submission, error) {
	if !c.busy.TryLock() {
		return nil, ErrSubmitInProgress
	}
	defer c.busy.Unlock()

	if err := validate(s.Form, s.Cart); err != nil {
		c.Notifier.Notify(notify.LevelError, err.Error())
		return nil, err
	}

	order := c.buildOrder(s)
	result, err := c.API.CreateOrder(ctx, order)
	if err != nil {
		c.Log.Error("create order",
			zap.String("customer", order.CustomerName),
			zap.Int64("total", order.Total),
			zap.Error(err))
		c.Notifier.Notify(notify.LevelError, "Error al procesar la orden")
		return nil, fmt.Errorf("create order: %w", err)
	}
	c.Metrics.ObserveOrder(order.Total)

	sub := &Submission{
		Result:  result,
		Order:   order,
		Receipt: c.Formatter.Format(result.OrderNumber, order),
	}
	sub.PrintErr = c.Printer.PrintReceipts(ctx, result.OrderNumber, sub.Receipt)

	s.Cart.Clear()
	s.ResetForm()

	c.Log.Info("order submitted",
		zap.Int("order_number", result.OrderNumber),
		zap.Int("lines", len(order.Items)),
		zap.Int64("total", order.Total),
		zap.Bool("printed", sub.PrintErr == nil))
	c.Notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Orden #%d procesada", result.OrderNumber))
	return sub, nil
}

func (c *Checkout) buildOrder(s *State) *models.OrderRequest {
	f := s.Form
	order := &models.OrderRequest{
		CustomerName:  strings.TrimSpace(f.CustomerName),
		OrderType:     f.OrderType,
		PaymentMethod: f.PaymentMethod,
		Items:         s.Cart.Items(),
		Subtotal:      s.Cart.Total(),
		Date:          c.Now().UTC().Truncate(time.Millisecond),
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentCash
	}
	if f.OrderType == models.OrderTypeDelivery {
		order.Address = strings.TrimSpace(f.Address)
		order.DeliveryCharge = f.DeliveryCharge
	}
	order.Total = order.Subtotal + order.DeliveryCharge
	return order
}
