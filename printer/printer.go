// Package printer sends formatted receipts to a physical or virtual printer, one job per copy.
package printer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charlie-pos/metrics"
	"charlie-pos/notify"
	"charlie-pos/receipt"

	"go.uber.org/zap"
)

// DefaultCopies are printed for every order unless configured otherwise.
var DefaultCopies = []string{"CLIENTE", "COCINA"}

// Job is one labelled copy of a receipt.
type Job struct {
	OrderNumber int
	Copy        string
	Text        string
}

// Title names the job in printer queues.
func (j Job) Title() string {
	return fmt.Sprintf("Factura %03d %s", j.OrderNumber, j.Copy)
}

type Printer interface {
	Print(ctx context.Context, job Job) error
}

// Compose prefixes a receipt with its copy label and a dashed separator.
func Compose(label, text string) string {
	return "\n" + label + "\n" + strings.Repeat("-", receipt.Width) + "\n" + text
}

// Dispatcher prints every configured copy of a receipt, one after another.
type Dispatcher struct {
	printer  Printer
	copies   []string
	notifier notify.Notifier
	metrics  *metrics.Registry
	log      *zap.Logger
}

type Option func(*Dispatcher)

func WithCopies(copies ...string) Option {
	return func(d *Dispatcher) {
		if len(copies) > 0 {
			d.copies = append([]string(nil), copies...)
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

func NewDispatcher(p Printer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		printer:  p,
		copies:   DefaultCopies,
		notifier: notify.Discard,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Copies() []string {
	return append([]string(nil), d.copies...)
}

// PrintReceipts submits one job per copy. A failed copy is reported and the next one is still
// attempted; the returned error joins every copy failure.
func (d *Dispatcher) PrintReceipts(ctx context.Context, orderNumber int, text string) error {
	var errs []error
	for _, label := range d.copies {
		job := Job{OrderNumber: orderNumber, Copy: label, Text: Compose(label, text)}
		if err := d.printer.Print(ctx, job); err != nil {
			d.log.Error("print receipt copy",
				zap.Int("order_number", orderNumber),
				zap.String("copy", label),
				zap.Error(err))
			d.metrics.ObservePrintJob(label, metrics.OutcomeError)
			d.notifier.Notify(notify.LevelError, "Error al imprimir la factura")
			errs = append(errs, fmt.Errorf("copy %s: %w", label, err))
			continue
		}
		d.metrics.ObservePrintJob(label, metrics.OutcomeOK)
	}
	return errors.Join(errs...)
}
