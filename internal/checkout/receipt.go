package checkout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
)

// ReceiptOptions controls receipt rendering.
type ReceiptOptions struct {
	Locale   language.Tag
	Location *time.Location
	TaxRate  decimal.Decimal
}

// RenderReceipt prints the sale as a plain-text receipt with locale-aware amounts.
func RenderReceipt(sale ledger.Sale, opts ReceiptOptions) string {
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	p := message.NewPrinter(opts.Locale)

	var b strings.Builder
	p.Fprintf(&b, "Receipt %s\n", sale.ID)
	p.Fprintf(&b, "%s\n", sale.Date.In(opts.Location).Format("02 Jan 2006 15:04"))
	b.WriteString(strings.Repeat("-", 36) + "\n")
	for _, item := range sale.Items {
		label := p.Sprintf("%s x%d", item.Name, item.Quantity)
		p.Fprintf(&b, "%-24s %11.2f\n", label, item.LineTotal().InexactFloat64())
	}
	b.WriteString(strings.Repeat("-", 36) + "\n")
	p.Fprintf(&b, "%-24s %11.2f\n", "Subtotal", sale.Subtotal.InexactFloat64())
	p.Fprintf(&b, "%-24s %11.2f\n", "VAT ("+opts.TaxRate.Mul(decimal.NewFromInt(100)).String()+"%)", sale.Tax.InexactFloat64())
	p.Fprintf(&b, "%-24s %11.2f\n", "Total", sale.Total.InexactFloat64())
	return b.String()
}

// Receipt renders sale with the service's tax rate and the given locale.
func (s *Service) Receipt(sale ledger.Sale, locale language.Tag, loc *time.Location) string {
	return RenderReceipt(sale, ReceiptOptions{Locale: locale, Location: loc, TaxRate: s.taxRate})
}
