package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"charlie-pos/catalog"
	"charlie-pos/metrics"
	"charlie-pos/models"
	"charlie-pos/notify"
	"charlie-pos/printer"
	"charlie-pos/receipt"
	"charlie-pos/store"
	"charlie-pos/store/storetest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	burger = models.Product{ID: "a", Name: "Burger", Category: "Comidas", Price: 8000}
	fries  = models.Product{ID: "b", Name: "Fries", Category: "Acompañantes", Price: 4000}
)

var fixedNow = time.Date(2025, 11, 23, 20, 30, 0, 0, time.UTC)

type spyPrinter struct {
	jobs []printer.Job
	err  error
}

func (p *spyPrinter) Print(_ context.Context, job printer.Job) error {
	p.jobs = append(p.jobs, job)
	return p.err
}

type fixture struct {
	fake     *storetest.Fake
	state    *State
	checkout *Checkout
	printer  *spyPrinter
	notes    *notify.Recorder
	metrics  *metrics.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := storetest.New().
		On(store.ActionGetProducts, storetest.Reply{Data: []models.Product{burger, fries}}).
		On(store.ActionGetCategories, storetest.Reply{Data: []models.Category{{ID: "1", Name: "Comidas"}, {ID: "2", Name: "Acompañantes"}}})
	api := store.NewAPI(fake)
	cache := catalog.New(api)
	require.NoError(t, cache.Refresh(context.Background()))

	f, err := receipt.NewFormatter(receipt.Business{Name: "CHARLIE FAST FOOD"}, "en-US", "America/Bogota", receipt.NotesSegmented)
	require.NoError(t, err)

	spy := &spyPrinter{}
	rec := &notify.Recorder{}
	m := metrics.NewRegistry()
	c := NewCheckout(api, f, printer.NewDispatcher(spy, printer.WithNotifier(rec)))
	c.Notifier = rec
	c.Metrics = m
	c.Now = func() time.Time { return fixedNow }

	return &fixture{fake: fake, state: NewState(cache), checkout: c, printer: spy, notes: rec, metrics: m}
}

func (fx *fixture) fillAna() {
	fx.state.Cart.Add(burger, "")
	fx.state.Cart.Add(fries, "")
	fx.state.Cart.Add(fries, "")
	fx.state.Form.CustomerName = "Ana"
}

func TestSubmit_EndToEnd(t *testing.T) {
	fx := newFixture(t)
	fx.fake.On(store.ActionCreateOrder, storetest.Reply{OrderNumber: 7})
	fx.fillAna()

	sub, err := fx.checkout.Submit(context.Background(), fx.state)
	require.NoError(t, err)

	calls := fx.fake.CallsTo(store.ActionCreateOrder)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{
		"customerName": "Ana",
		"orderType": "local",
		"address": "",
		"deliveryCharge": 0,
		"paymentMethod": "Efectivo",
		"items": [
			{"id": "a", "name": "Burger", "price": 8000, "quantity": 1, "notes": ""},
			{"id": "b", "name": "Fries", "price": 4000, "quantity": 2, "notes": ""}
		],
		"subtotal": 16000,
		"total": 16000,
		"date": "2025-11-23T20:30:00Z"
	}`, string(calls[0].Payload))

	assert.Equal(t, 7, sub.Result.OrderNumber)
	assert.Equal(t, int64(16000), sub.Order.Subtotal)
	assert.Equal(t, int64(16000), sub.Order.Total)
	assert.NoError(t, sub.PrintErr)

	assert.True(t, fx.state.Cart.IsEmpty())
	assert.Equal(t, "", fx.state.Form.CustomerName)
	assert.Equal(t, models.OrderTypeLocal, fx.state.Form.OrderType)

	require.Len(t, fx.printer.jobs, 2)
	assert.Equal(t, "CLIENTE", fx.printer.jobs[0].Copy)
	assert.Equal(t, "COCINA", fx.printer.jobs[1].Copy)
	for _, j := range fx.printer.jobs {
		assert.Contains(t, j.Text, "Factura: 007")
	}

	assert.Equal(t, []notify.Entry{{Level: notify.LevelSuccess, Message: "Orden #7 procesada"}}, fx.notes.Entries())
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.Orders))
}

func TestSubmit_DateIsUTCMilliseconds(t *testing.T) {
	fx := newFixture(t)
	bogota := time.FixedZone("COT", -5*60*60)
	fx.checkout.Now = func() time.Time { return time.Date(2025, 11, 23, 15, 30, 0, 123456789, bogota) }
	fx.fake.On(store.ActionCreateOrder, storetest.Reply{OrderNumber: 1})
	fx.fillAna()

	_, err := fx.checkout.Submit(context.Background(), fx.state)
	require.NoError(t, err)

	calls := fx.fake.CallsTo(store.ActionCreateOrder)
	require.Len(t, calls, 1)
	var payload struct {
		Date string `json:"date"`
	}
	require.NoError(t, json.Unmarshal(calls[0].Payload, &payload))
	assert.Equal(t, "2025-11-23T20:30:00.123Z", payload.Date)
}

func TestSubmit_Delivery(t *testing.T) {
	fx := newFixture(t)
	fx.fake.On(store.ActionCreateOrder, storetest.Reply{OrderNumber: 12})
	fx.fillAna()
	fx.state.Form.OrderType = models.OrderTypeDelivery
	fx.state.Form.Address = "  Cra 10 # 5-20 "
	fx.state.Form.DeliveryCharge = 3000
	fx.state.Form.PaymentMethod = models.PaymentTransfer

	sub, err := fx.checkout.Submit(context.Background(), fx.state)
	require.NoError(t, err)

	assert.Equal(t, "Cra 10 # 5-20", sub.Order.Address)
	assert.Equal(t, int64(19000), sub.Order.Total)
	assert.Contains(t, sub.Receipt, "Domicilio:")
	assert.Contains(t, sub.Receipt, "Pago: Transferencia")
	assert.Equal(t, "", fx.state.Form.Address)
	assert.Equal(t, int64(0), fx.state.Form.DeliveryCharge)
}

func TestSubmit_LocalDropsDeliveryFields(t *testing.T) {
	fx := newFixture(t)
	fx.fake.On(store.ActionCreateOrder, storetest.Reply{OrderNumber: 1})
	fx.fillAna()
	fx.state.Form.Address = "leftover"
	fx.state.Form.DeliveryCharge = 5000
	fx.state.Form.PaymentMethod = ""

	sub, err := fx.checkout.Submit(context.Background(), fx.state)
	require.NoError(t, err)

	assert.Equal(t, "", sub.Order.Address)
	assert.Equal(t, int64(0), sub.Order.DeliveryCharge)
	assert.Equal(t, int64(16000), sub.Order.Total)
	assert.Equal(t, models.PaymentCash, sub.Order.PaymentMethod)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*fixture)
		field   string
		message string
	}{
		{"missing customer", func(fx *fixture) {
			fx.state.Cart.Add(burger, "")
			fx.state.Form.CustomerName = "   "
		}, "customerName", "Por favor ingrese el nombre del cliente"},
		{"customer checked before cart", func(fx *fixture) {}, "customerName", "Por favor ingrese el nombre del cliente"},
		{"empty cart", func(fx *fixture) {
			fx.state.Form.CustomerName = "Ana"
		}, "items", "El carrito está vacío"},
		{"delivery without address", func(fx *fixture) {
			fx.fillAna()
			fx.state.Form.OrderType = models.OrderTypeDelivery
		}, "address", "Ingrese la dirección de entrega"},
		{"negative delivery charge", func(fx *fixture) {
			fx.fillAna()
			fx.state.Form.OrderType = models.OrderTypeDelivery
			fx.state.Form.Address = "Calle 1"
			fx.state.Form.DeliveryCharge = -1
		}, "deliveryCharge", "El valor del domicilio no puede ser negativo"},
		{"unknown order type", func(fx *fixture) {
			fx.fillAna()
			fx.state.Form.OrderType = "pickup"
		}, "orderType", "Tipo de orden inválido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			tt.prepare(fx)
			before := fx.state.Cart.Items()

			_, err := fx.checkout.Submit(context.Background(), fx.state)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
			assert.Empty(t, fx.fake.CallsTo(store.ActionCreateOrder))
			assert.Equal(t, before, fx.state.Cart.Items())
			assert.Equal(t, []string{tt.message}, fx.notes.Errors())
		})
	}
}

func TestSubmit_StoreFailureKeepsState(t *testing.T) {
	for name, reply := range map[string]storetest.Reply{
		"failure":    {Fail: true, Reason: "sheet locked"},
		"connection": {Err: store.ErrConnection},
	} {
		t.Run(name, func(t *testing.T) {
			fx := newFixture(t)
			fx.fake.On(store.ActionCreateOrder, reply)
			fx.fillAna()

			sub, err := fx.checkout.Submit(context.Background(), fx.state)

			assert.Nil(t, sub)
			assert.Error(t, err)
			assert.Equal(t, 2, fx.state.Cart.Len())
			assert.Equal(t, "Ana", fx.state.Form.CustomerName)
			assert.Empty(t, fx.printer.jobs)
			assert.Equal(t, []string{"Error al procesar la orden"}, fx.notes.Errors())
			assert.Equal(t, 0.0, testutil.ToFloat64(fx.metrics.Orders))
		})
	}
}

func TestSubmit_PrintFailureStillCompletes(t *testing.T) {
	fx := newFixture(t)
	fx.fake.On(store.ActionCreateOrder, storetest.Reply{OrderNumber: 9})
	fx.printer.err = errors.New("offline")
	fx.fillAna()

	sub, err := fx.checkout.Submit(context.Background(), fx.state)
	require.NoError(t, err)

	assert.Error(t, sub.PrintErr)
	assert.Len(t, fx.printer.jobs, 2)
	assert.True(t, fx.state.Cart.IsEmpty())
	assert.Equal(t, []string{"Error al imprimir la factura", "Error al imprimir la factura"}, fx.notes.Errors())
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	fx := newFixture(t)
	fx.fillAna()
	fx.checkout.busy.Lock()
	defer fx.checkout.busy.Unlock()

	_, err := fx.checkout.Submit(context.Background(), fx.state)
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.Empty(t, fx.fake.CallsTo(store.ActionCreateOrder))
}
