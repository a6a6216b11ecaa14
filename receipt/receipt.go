// Package receipt lays out orders as fixed-width text for 80mm thermal printers.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"charlie-pos/models"
)

const (
	// Width is the printable line width in characters.
	Width = 40
	// NoteWidth is the longest note chunk on one line, leaving room for the prefix.
	NoteWidth = 36

	notePrefix = "  * "
)

var rule = strings.Repeat("=", Width)

// Business is the fixed header block.
type Business struct {
	Name    string
	Address string
	Phone   string
	Handle  string
}

type Formatter struct {
	Business Business
	Money    *Money
	Location *time.Location
	Notes    NoteEncoding
	ThankYou []string
}

func NewFormatter(b Business, locale, timeZone string, notes NoteEncoding) (*Formatter, error) {
	money, err := NewMoney(locale)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("receipt time zone %q: %w", timeZone, err)
	}
	return &Formatter{
		Business: b,
		Money:    money,
		Location: loc,
		Notes:    notes,
		ThankYou: []string{"¡Gracias por su compra!", "Vuelve pronto"},
	}, nil
}

// Format renders one receipt for a submitted order.
func (f *Formatter) Format(orderNumber int, o *models.OrderRequest) string {
	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }

	add(Center(f.Business.Name, Width), rule)
	if f.Business.Address != "" {
		add(f.Business.Address)
	}
	if f.Business.Phone != "" {
		add("Tel: " + f.Business.Phone)
	}
	if f.Business.Handle != "" {
		add(f.Business.Handle)
	}
	add(rule, "")

	at := o.Date
	if f.Location != nil {
		at = at.In(f.Location)
	}
	add(
		fmt.Sprintf("Factura: %03d", orderNumber),
		fmt.Sprintf("Fecha: %s %s", at.Format("02/01/2006"), at.Format("03:04 PM")),
		"Cliente: "+o.CustomerName,
		"Tipo: "+strings.ToUpper(string(o.OrderType)),
	)
	if o.Address != "" {
		add("Dirección: " + o.Address)
	}
	add("Pago: "+o.PaymentMethod, "", rule, "PRODUCTOS", rule, "")

	for _, it := range o.Items {
		add(it.Name)
		add(Justify(fmt.Sprintf("%d x %s", it.Quantity, f.Money.Format(it.Price)), f.Money.Format(it.LineTotal()), Width))
		for _, note := range NoteLines(it.Notes, f.Notes) {
			add(notePrefix + note)
		}
		add("")
	}

	add(rule, Justify("Subtotal:", f.Money.Format(o.Subtotal), Width))
	if o.DeliveryCharge > 0 {
		add(Justify("Domicilio:", f.Money.Format(o.DeliveryCharge), Width))
	}
	add(Justify("TOTAL:", f.Money.Format(o.Total), Width), rule, "")
	for _, l := range f.ThankYou {
		add(Center(l, Width))
	}
	return strings.Join(lines, "\n") + "\n\n\n"
}

// Center left-pads text so it sits in the middle of width columns.
func Center(text string, width int) string {
	pad := (width - utf8.RuneCountInString(text)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

// Justify puts left and right at the edges of width columns. Text wider than width gets no padding.
func Justify(left, right string, width int) string {
	pad := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if pad < 0 {
		pad = 0
	}
	return left + strings.Repeat(" ", pad) + right
}
