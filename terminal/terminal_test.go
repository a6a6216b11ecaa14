package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"charlie-pos/catalog"
	"charlie-pos/models"
	"charlie-pos/notify"
	"charlie-pos/printer"
	"charlie-pos/receipt"
	"charlie-pos/services"
	"charlie-pos/store"
	"charlie-pos/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type session struct {
	fake  *storetest.Fake
	state *services.State
	out   *bytes.Buffer
	paper *bytes.Buffer
}

func run(t *testing.T, fake *storetest.Fake, script string, opts ...func(*Terminal)) *session {
	t.Helper()
	fake.
		On(store.ActionGetProducts, storetest.Reply{Data: []models.Product{
			{ID: "a", Name: "Burger", Category: "Comidas", Price: 8000},
			{ID: "b", Name: "Fries", Category: "Acompañantes", Price: 4000},
		}}).
		On(store.ActionGetCategories, storetest.Reply{Data: []models.Category{{ID: "1", Name: "Comidas"}, {ID: "2", Name: "Acompañantes"}}}).
		On(store.ActionGetPredefinedNotes, storetest.Reply{Data: []string{"Sin cebolla"}})

	api := store.NewAPI(fake)
	cache := catalog.New(api)
	require.NoError(t, cache.Refresh(context.Background()))

	f, err := receipt.NewFormatter(receipt.Business{Name: "CHARLIE FAST FOOD"}, "en-US", "UTC", receipt.NotesSegmented)
	require.NoError(t, err)

	var out, paper bytes.Buffer
	notes := notify.NewWriter(&out)
	checkout := services.NewCheckout(api, f, printer.NewDispatcher(printer.NewWriterPrinter(&paper)))
	checkout.Notifier = notes
	checkout.Now = func() time.Time { return time.Date(2025, 11, 23, 20, 30, 0, 0, time.UTC) }
	admin := services.NewAdmin(api, cache, time.UTC)
	admin.Notifier = notes

	s := services.NewState(cache)
	term := New(strings.NewReader(script), &out, s, checkout, admin, f.Money)
	term.SetNotifier(notes)
	term.now = func() time.Time { return time.Date(2025, 11, 23, 12, 0, 0, 0, time.UTC) }
	for _, opt := range opts {
		opt(term)
	}
	require.NoError(t, term.Run(context.Background()))

	return &session{fake: fake, state: s, out: &out, paper: &paper}
}

func TestTerminal_Checkout(t *testing.T) {
	fake := storetest.New().On(store.ActionCreateOrder, storetest.Reply{OrderNumber: 7})
	s := run(t, fake, strings.Join([]string{
		"agregar a",
		"agregar b",
		"agregar b",
		"carrito",
		"cliente Ana",
		"cobrar",
		"salir",
		"agregar a",
	}, "\n"))

	out := s.out.String()
	assert.Contains(t, out, "✓ Producto agregado al carrito")
	assert.Contains(t, out, "2. Fries x2  $8,000")
	assert.Contains(t, out, "Total: $16,000")
	assert.Contains(t, out, "✓ Orden #7 procesada")
	assert.Contains(t, out, "Factura 007  Total $16,000")

	assert.True(t, s.state.Cart.IsEmpty(), "commands after salir must not run")
	assert.Equal(t, 2, strings.Count(s.paper.String(), "Factura: 007"))
}

func TestTerminal_CartEditing(t *testing.T) {
	s := run(t, storetest.New(), strings.Join([]string{
		"agregar a sin cebolla,  extra queso",
		"agregar a",
		"cantidad 2 +2",
		"cantidad 1 -1",
		"quitar 9",
		"cantidad x 1",
	}, "\n"))

	items := s.state.Cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "", items[0].Notes)
	assert.Contains(t, s.out.String(), `Línea inválida "9"`)
	assert.Contains(t, s.out.String(), `Línea inválida "x"`)
}

func TestTerminal_NotesAreNormalized(t *testing.T) {
	s := run(t, storetest.New(), "agregar a sin cebolla,  extra queso\n")
	assert.Equal(t, "sin cebolla, extra queso", s.state.Cart.Item(0).Notes)
}

func TestTerminal_ClearAsksForConfirmation(t *testing.T) {
	s := run(t, storetest.New(), "agregar a\nvaciar\nn\n")
	assert.Equal(t, 1, s.state.Cart.Len())

	s = run(t, storetest.New(), "agregar a\nvaciar\ns\n")
	assert.True(t, s.state.Cart.IsEmpty())
	assert.Contains(t, s.out.String(), "✓ Carrito limpiado")
}

func TestTerminal_DeliveryForm(t *testing.T) {
	s := run(t, storetest.New(), strings.Join([]string{
		"tipo domicilio",
		"direccion Cra 10 # 5-20",
		"domicilio 3000",
		"pago transferencia",
		"tipo pickup",
		"domicilio -5",
	}, "\n"))

	f := s.state.Form
	assert.Equal(t, models.OrderTypeDelivery, f.OrderType)
	assert.Equal(t, "Cra 10 # 5-20", f.Address)
	assert.Equal(t, int64(3000), f.DeliveryCharge)
	assert.Equal(t, models.PaymentTransfer, f.PaymentMethod)
	assert.Contains(t, s.out.String(), "Uso: tipo local|domicilio")
	assert.Contains(t, s.out.String(), "Uso: domicilio <valor>")
}

func TestTerminal_ValidationIsShown(t *testing.T) {
	s := run(t, storetest.New(), "cobrar\n")
	assert.Contains(t, s.out.String(), "✕ Por favor ingrese el nombre del cliente")
	assert.Empty(t, s.fake.CallsTo(store.ActionCreateOrder))
}

func TestTerminal_Orders(t *testing.T) {
	fake := storetest.New().On(store.ActionGetOrders, storetest.Reply{Data: []models.OrderRecord{
		{OrderNumber: 7, RowIndex: 8, Date: "23/11/2025", Customer: "Ana", Type: models.OrderTypeLocal, PaymentMethod: "Efectivo", Total: 16000},
		{OrderNumber: 8, RowIndex: 9, Date: "23/11/2025", Customer: "Luis", Type: models.OrderTypeLocal, PaymentMethod: "Efectivo", Total: 4000},
	}})
	s := run(t, fake, "ordenes 2025-11-20 efectivo\nborrar-orden 7 8\ns\n")

	calls := fake.CallsTo(store.ActionGetOrders)
	require.Len(t, calls, 1)
	var payload struct {
		Filters models.OrderFilters `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(calls[0].Payload, &payload))
	assert.Equal(t, "Efectivo", payload.Filters.PaymentMethod)
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), payload.Filters.DateStart.UTC())

	out := s.out.String()
	assert.Contains(t, out, "2 órdenes, total $20,000")
	assert.Len(t, fake.CallsTo(store.ActionDeleteOrder), 1)
	assert.Contains(t, out, "✓ Orden eliminada")
}

func TestTerminal_CatalogAdmin(t *testing.T) {
	s := run(t, storetest.New(), strings.Join([]string{
		"producto nuevo Malteada;Comidas;9000;Vainilla",
		"producto a Burger doble;Comidas;12000",
		"categoria nueva Bebidas",
		"borrar-categoria 1",
		"borrar-producto b",
		"s",
	}, "\n"))

	created := s.fake.CallsTo(store.ActionCreateProduct)
	require.Len(t, created, 1)
	assert.JSONEq(t, `{"id":"","name":"Malteada","category":"Comidas","price":9000,"description":"Vainilla"}`, string(created[0].Payload))
	assert.Len(t, s.fake.CallsTo(store.ActionUpdateProduct), 1)
	assert.Len(t, s.fake.CallsTo(store.ActionCreateCategory), 1)
	assert.Empty(t, s.fake.CallsTo(store.ActionDeleteCategory))
	assert.Len(t, s.fake.CallsTo(store.ActionDeleteProduct), 1)
	assert.Contains(t, s.out.String(), "✕ No se puede eliminar una categoría con productos asociados")
}

func TestTerminal_AdminFailureKeepsRunning(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	fake := storetest.New().On(store.ActionCreateProduct, storetest.Reply{Fail: true, Reason: "hoja bloqueada"})
	s := run(t, fake, strings.Join([]string{
		"producto nuevo Malteada;Comidas;9000",
		"agregar a",
	}, "\n"), func(term *Terminal) { term.SetLogger(zap.New(core)) })

	assert.Contains(t, s.out.String(), "✕ Error al guardar el producto")
	assert.Equal(t, 1, s.state.Cart.Len())

	entries := logs.FilterMessage("save product").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
}

func TestTerminal_UnknownCommand(t *testing.T) {
	s := run(t, storetest.New(), "bailar\n")
	assert.Contains(t, s.out.String(), `Comando desconocido "bailar"`)
}
