// Package invoice renders a printable HTML invoice for a completed order.
package invoice

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/marigold-cafe/api/internal/database"
)

type lineView struct {
	Name     string
	Quantity int32
	Price    string
	Total    string
}

type view struct {
	CafeName    string
	CafePhone   string
	CafeAddress string
	OrderNumber int32
	OrderType   string
	TableNumber string
	Customer    string
	PlacedAt    string
	Lines       []lineView
	Subtotal    string
	Tax         string
	Total       string
}

var tmpl = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice #{{.OrderNumber}}</title>
<style>
body { font-family: monospace; max-width: 380px; margin: 0 auto; padding: 16px; }
h1 { font-size: 18px; text-align: center; margin-bottom: 4px; }
.meta { text-align: center; font-size: 12px; margin-bottom: 12px; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: 4px 0; font-size: 13px; }
td.amount, th.amount { text-align: right; }
tr.rule td { border-top: 1px dashed #000; }
.totals td { font-size: 13px; }
.grand td { font-weight: bold; font-size: 15px; }
@media print { body { padding: 0; } }
</style>
</head>
<body>
<h1>{{.CafeName}}</h1>
<div class="meta">
{{if .CafeAddress}}{{.CafeAddress}}<br>{{end}}
{{if .CafePhone}}{{.CafePhone}}<br>{{end}}
Order #{{.OrderNumber}} &middot; {{.OrderType}}{{if .TableNumber}} &middot; Table {{.TableNumber}}{{end}}<br>
{{if .Customer}}{{.Customer}}<br>{{end}}
{{.PlacedAt}}
</div>
<table>
<tr><th>Item</th><th>Qty</th><th class="amount">Amount</th></tr>
{{range .Lines}}<tr class="line"><td>{{.Name}}</td><td>{{.Quantity}}</td><td class="amount">{{.Total}}</td></tr>
{{end}}<tr class="rule totals"><td colspan="2">Subtotal</td><td class="amount">{{.Subtotal}}</td></tr>
<tr class="totals"><td colspan="2">Tax</td><td class="amount">{{.Tax}}</td></tr>
<tr class="grand"><td colspan="2">Total</td><td class="amount">{{.Total}}</td></tr>
</table>
</body>
</html>
`))

// Render produces the invoice HTML for an order and its items.
func Render(order database.Order, items []database.OrderItem, cafeName, cafePhone, cafeAddress string) (string, error) {
	v := view{
		CafeName:    cafeName,
		CafePhone:   cafePhone,
		CafeAddress: cafeAddress,
		OrderNumber: order.OrderNumber,
		OrderType:   strings.ReplaceAll(order.OrderType, "_", " "),
		Subtotal:    formatNumeric(order.Subtotal),
		Tax:         formatNumeric(order.Tax),
		Total:       formatNumeric(order.Total),
	}
	if order.TableNumber.Valid {
		v.TableNumber = order.TableNumber.String
	}
	if order.CustomerName.Valid {
		v.Customer = order.CustomerName.String
	}
	v.PlacedAt = order.CreatedAt.Format("02 Jan 2006 3:04 PM")

	for _, it := range items {
		price := numericToDecimal(it.ItemPrice)
		lineTotal := price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		v.Lines = append(v.Lines, lineView{
			Name:     it.ItemName,
			Quantity: it.Quantity,
			Price:    "₹" + price.StringFixed(2),
			Total:    "₹" + lineTotal.StringFixed(2),
		})
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Filename names the download after the human-facing order number.
func Filename(order database.Order) string {
	return fmt.Sprintf("invoice-%d.html", order.OrderNumber)
}

func formatNumeric(n pgtype.Numeric) string {
	return "₹" + numericToDecimal(n).StringFixed(2)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
