package receipt

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money renders whole-unit amounts as "$" plus the locale's thousands grouping, without decimals.
type Money struct {
	p *message.Printer
}

func NewMoney(locale string) (*Money, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("receipt locale %q: %w", locale, err)
	}
	return &Money{p: message.NewPrinter(tag)}, nil
}

func (m *Money) Format(amount int64) string {
	return "$" + m.p.Sprintf("%d", amount)
}
