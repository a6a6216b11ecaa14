// Package terminal is the cashier's line-oriented front end.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"charlie-pos/models"
	"charlie-pos/notify"
	"charlie-pos/receipt"
	"charlie-pos/services"

	"go.uber.org/zap"
)

const help = `Comandos:
  productos [categoria]            lista productos
  categorias                       lista categorias
  notas                            notas predefinidas
  agregar <id> [notas]             agrega una unidad al carrito
  cantidad <n> <+/-delta>          cambia la cantidad de la linea n
  quitar <n>                       elimina la linea n
  vaciar                           vacia el carrito
  carrito                          muestra el carrito
  cliente <nombre>                 nombre del cliente
  tipo local|domicilio             tipo de orden
  direccion <texto>                direccion de entrega
  domicilio <valor>                valor del domicilio
  pago efectivo|transferencia      metodo de pago
  cobrar                           registra e imprime la orden
  recargar                         recarga el catalogo
  ordenes [AAAA-MM-DD] [pago]      ordenes del dia
  borrar-orden <n> <fila>          elimina una orden
  producto <id|nuevo> <nombre>;<categoria>;<precio>[;descripcion]
  borrar-producto <id>
  categoria <id|nueva> <nombre>
  borrar-categoria <id>
  salir`

// Terminal reads commands from in and drives the shared state. It is not safe for concurrent use.
type Terminal struct {
	in       *bufio.Reader
	out      io.Writer
	state    *services.State
	checkout *services.Checkout
	admin    *services.Admin
	money    *receipt.Money
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func New(in io.Reader, out io.Writer, s *services.State, c *services.Checkout, a *services.Admin, money *receipt.Money) *Terminal {
	return &Terminal{
		in:       bufio.NewReader(in),
		out:      out,
		state:    s,
		checkout: c,
		admin:    a,
		money:    money,
		notifier: notify.NewWriter(out),
		log:      zap.NewNop(),
		now:      time.Now,
	}
}

func (t *Terminal) SetLogger(l *zap.Logger) { t.log = l }

// SetNotifier replaces the default writer on out, e.g. to share one notifier with the services.
func (t *Terminal) SetNotifier(n notify.Notifier) { t.notifier = n }

// Run processes commands until "salir", end of input or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	fmt.Fprintln(t.out, "Escriba 'ayuda' para ver los comandos.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(t.out, "> ")
		line, err := t.in.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if t.Exec(ctx, line) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Exec runs one command line and reports whether the terminal should stop.
func (t *Terminal) Exec(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd {
	case "ayuda", "help":
		fmt.Fprintln(t.out, help)
	case "productos":
		t.listProducts(rest)
	case "categorias":
		for _, c := range t.state.Catalog.Categories() {
			fmt.Fprintf(t.out, "%s  %s\n", c.ID, c.Name)
		}
	case "notas":
		for i, n := range t.state.Catalog.PredefinedNotes() {
			fmt.Fprintf(t.out, "%d. %s\n", i+1, n)
		}
	case "agregar":
		t.add(args, rest)
	case "cantidad":
		t.changeQuantity(args)
	case "quitar":
		if i, ok := t.lineIndex(args, 1); ok {
			t.state.Cart.Remove(i)
			t.notifier.Notify(notify.LevelSuccess, "Producto eliminado")
		}
	case "vaciar":
		if t.state.Cart.IsEmpty() {
			return false
		}
		if t.confirm("¿Vaciar el carrito? (s/n): ") {
			t.state.Cart.Clear()
			t.notifier.Notify(notify.LevelSuccess, "Carrito limpiado")
		}
	case "carrito":
		t.printCart()
	case "cliente":
		t.state.Form.CustomerName = rest
	case "tipo":
		t.setOrderType(rest)
	case "direccion":
		t.state.Form.Address = rest
	case "domicilio":
		v, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || v < 0 {
			fmt.Fprintln(t.out, "Uso: domicilio <valor>")
			return false
		}
		t.state.Form.DeliveryCharge = v
	case "pago":
		t.setPayment(rest)
	case "cobrar":
		t.submit(ctx)
	case "recargar":
		if err := t.state.Catalog.Refresh(ctx); err != nil {
			t.log.Warn("refresh catalog", zap.Error(err))
			t.notifier.Notify(notify.LevelError, "Error al cargar el catálogo")
			return false
		}
		t.notifier.Notify(notify.LevelSuccess, "Catálogo actualizado")
	case "ordenes":
		t.listOrders(ctx, args)
	case "borrar-orden":
		t.deleteOrder(ctx, args)
	case "producto":
		t.saveProduct(ctx, args, rest)
	case "borrar-producto":
		if len(args) != 1 {
			fmt.Fprintln(t.out, "Uso: borrar-producto <id>")
			return false
		}
		if t.confirm("¿Estás seguro de eliminar este producto? (s/n): ") {
			if err := t.admin.DeleteProduct(ctx, args[0]); err != nil {
				t.log.Debug("delete product", zap.Error(err))
			}
		}
	case "categoria":
		t.saveCategory(ctx, args, rest)
	case "borrar-categoria":
		if len(args) != 1 {
			fmt.Fprintln(t.out, "Uso: borrar-categoria <id>")
			return false
		}
		if err := t.admin.DeleteCategory(ctx, args[0]); err != nil {
			t.log.Debug("delete category", zap.Error(err))
		}
	case "salir", "exit":
		return true
	default:
		fmt.Fprintf(t.out, "Comando desconocido %q. Escriba 'ayuda'.\n", cmd)
	}
	return false
}

func (t *Terminal) listProducts(category string) {
	products := t.state.Catalog.ProductsIn(category)
	if len(products) == 0 {
		fmt.Fprintln(t.out, "No hay productos")
		return
	}
	for _, p := range products {
		fmt.Fprintf(t.out, "%-6s %-24s %-14s %s\n", p.ID, p.Name, p.Category, t.money.Format(p.Price))
	}
}

func (t *Terminal) add(args []string, rest string) {
	if len(args) == 0 {
		fmt.Fprintln(t.out, "Uso: agregar <id> [notas]")
		return
	}
	p, ok := t.state.Catalog.Product(args[0])
	if !ok {
		t.notifier.Notify(notify.LevelError, "Producto no encontrado")
		return
	}
	notes := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
	t.state.Cart.Add(p, receipt.NormalizeNotes(notes))
	t.notifier.Notify(notify.LevelSuccess, "Producto agregado al carrito")
}

func (t *Terminal) changeQuantity(args []string) {
	i, ok := t.lineIndex(args, 2)
	if !ok {
		return
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintln(t.out, "Uso: cantidad <n> <+/-delta>")
		return
	}
	t.state.Cart.ChangeQuantity(i, delta)
}

// lineIndex parses a 1-based cart line from args[0] and checks it against the cart.
func (t *Terminal) lineIndex(args []string, want int) (int, bool) {
	if len(args) != want {
		fmt.Fprintln(t.out, "Indique el número de línea del carrito")
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > t.state.Cart.Len() {
		fmt.Fprintf(t.out, "Línea inválida %q\n", args[0])
		return 0, false
	}
	return n - 1, true
}

func (t *Terminal) printCart() {
	items := t.state.Cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(t.out, "El carrito está vacío")
		return
	}
	for i, it := range items {
		fmt.Fprintf(t.out, "%d. %s x%d  %s\n", i+1, it.Name, it.Quantity, t.money.Format(it.LineTotal()))
		if it.Notes != "" {
			fmt.Fprintf(t.out, "   %s\n", it.Notes)
		}
	}
	f := t.state.Form
	fmt.Fprintf(t.out, "Total: %s\n", t.money.Format(t.state.Cart.Total()))
	fmt.Fprintf(t.out, "Cliente: %s | Tipo: %s | Pago: %s\n", f.CustomerName, f.OrderType, f.PaymentMethod)
	if f.OrderType == models.OrderTypeDelivery {
		fmt.Fprintf(t.out, "Dirección: %s | Domicilio: %s\n", f.Address, t.money.Format(f.DeliveryCharge))
	}
}

func (t *Terminal) setOrderType(v string) {
	switch strings.ToLower(v) {
	case string(models.OrderTypeLocal):
		t.state.Form.OrderType = models.OrderTypeLocal
		t.state.Form.Address = ""
		t.state.Form.DeliveryCharge = 0
	case string(models.OrderTypeDelivery):
		t.state.Form.OrderType = models.OrderTypeDelivery
	default:
		fmt.Fprintln(t.out, "Uso: tipo local|domicilio")
	}
}

func (t *Terminal) setPayment(v string) {
	switch strings.ToLower(v) {
	case "efectivo":
		t.state.Form.PaymentMethod = models.PaymentCash
	case "transferencia":
		t.state.Form.PaymentMethod = models.PaymentTransfer
	default:
		fmt.Fprintln(t.out, "Uso: pago efectivo|transferencia")
	}
}

func (t *Terminal) submit(ctx context.Context) {
	sub, err := t.checkout.Submit(ctx, t.state)
	if err != nil {
		if errors.Is(err, services.ErrSubmitInProgress) {
			fmt.Fprintln(t.out, "Ya hay una orden en proceso")
		}
		return
	}
	fmt.Fprintf(t.out, "Factura %03d  Total %s\n", sub.Result.OrderNumber, t.money.Format(sub.Order.Total))
}

func (t *Terminal) listOrders(ctx context.Context, args []string) {
	day := t.now()
	payment := ""
	for _, a := range args {
		if d, err := time.ParseInLocation("2006-01-02", a, t.admin.Location); err == nil {
			day = d
			continue
		}
		switch strings.ToLower(a) {
		case "efectivo":
			payment = models.PaymentCash
		case "transferencia":
			payment = models.PaymentTransfer
		default:
			fmt.Fprintln(t.out, "Uso: ordenes [AAAA-MM-DD] [efectivo|transferencia]")
			return
		}
	}
	orders, err := t.admin.OrdersOn(ctx, day, payment)
	if err != nil {
		return
	}
	if len(orders) == 0 {
		fmt.Fprintln(t.out, "No hay órdenes")
		return
	}
	var total int64
	for _, o := range orders {
		total += o.Total
		fmt.Fprintf(t.out, "#%03d fila %d  %s  %-16s %-9s %-13s %s\n",
			o.OrderNumber, o.RowIndex, o.Date, o.Customer, o.Type, o.PaymentMethod, t.money.Format(o.Total))
	}
	fmt.Fprintf(t.out, "%d órdenes, total %s\n", len(orders), t.money.Format(total))
}

func (t *Terminal) deleteOrder(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(t.out, "Uso: borrar-orden <n> <fila>")
		return
	}
	number, err1 := strconv.Atoi(args[0])
	row, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(t.out, "Uso: borrar-orden <n> <fila>")
		return
	}
	if t.confirm("¿Eliminar esta orden? (s/n): ") {
		if err := t.admin.DeleteOrder(ctx, number, row); err != nil {
			t.log.Debug("delete order", zap.Error(err))
		}
	}
}

func (t *Terminal) saveProduct(ctx context.Context, args []string, rest string) {
	usage := "Uso: producto <id|nuevo> <nombre>;<categoria>;<precio>[;descripcion]"
	if len(args) < 2 {
		fmt.Fprintln(t.out, usage)
		return
	}
	parts := strings.Split(strings.TrimSpace(strings.TrimPrefix(rest, args[0])), ";")
	if len(parts) < 3 {
		fmt.Fprintln(t.out, usage)
		return
	}
	price, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		fmt.Fprintln(t.out, usage)
		return
	}
	p := models.Product{Name: parts[0], Category: strings.TrimSpace(parts[1]), Price: price}
	if len(parts) > 3 {
		p.Description = parts[3]
	}
	if args[0] != "nuevo" {
		p.ID = args[0]
	}
	if err := t.admin.SaveProduct(ctx, p); err != nil {
		t.log.Debug("save product", zap.Error(err))
	}
}

func (t *Terminal) saveCategory(ctx context.Context, args []string, rest string) {
	if len(args) < 2 {
		fmt.Fprintln(t.out, "Uso: categoria <id|nueva> <nombre>")
		return
	}
	c := models.Category{Name: strings.TrimSpace(strings.TrimPrefix(rest, args[0]))}
	if args[0] != "nueva" {
		c.ID = args[0]
	}
	if err := t.admin.SaveCategory(ctx, c); err != nil {
		t.log.Debug("save category", zap.Error(err))
	}
}

func (t *Terminal) confirm(prompt string) bool {
	fmt.Fprint(t.out, prompt)
	answer, _ := t.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "si", "sí", "y":
		return true
	}
	return false
}
