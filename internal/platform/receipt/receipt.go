// Package receipt renders printable pharmacy receipts for completed sales.
package receipt

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Line is a single medicine row on a printed receipt.
type Line struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Total    decimal.Decimal
}

// Data holds everything the receipt template needs. Handlers build it from
// a completed bill so this package stays free of domain imports.
type Data struct {
	Hospital       string
	BillID         string
	RegistrationID string
	PatientName    string
	Items          []Line
	Total          decimal.Decimal
	PaymentMethod  string
	IssuedAt       time.Time
}

const receiptHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt {{.BillID}}</title>
<style>
  body { font-family: monospace; max-width: 420px; margin: 0 auto; padding: 16px; }
  h1 { font-size: 16px; text-align: center; }
  .meta { margin: 12px 0; font-size: 13px; }
  table { width: 100%; border-collapse: collapse; font-size: 13px; }
  th, td { text-align: left; padding: 4px 2px; border-bottom: 1px dashed #999; }
  td.num, th.num { text-align: right; }
  .total { font-weight: bold; font-size: 14px; }
  .footer { margin-top: 16px; text-align: center; font-size: 12px; }
</style>
</head>
<body>
<h1>{{.Hospital}}</h1>
<div class="meta">
  Bill No: {{.BillID}}<br>
  Patient: {{.PatientName}} ({{.RegistrationID}})<br>
  Date: {{.IssuedAt.Format "02 Jan 2006 15:04"}}<br>
  Payment: {{.PaymentMethod}}
</div>
<table>
  <tr><th>Medicine</th><th class="num">Qty</th><th class="num">Rate</th><th class="num">Amount</th></tr>
  {{range .Items}}
  <tr>
    <td>{{.Name}}</td>
    <td class="num">{{.Quantity}}</td>
    <td class="num">{{.Price.StringFixed 2}}</td>
    <td class="num">{{.Total.StringFixed 2}}</td>
  </tr>
  {{end}}
  <tr class="total"><td colspan="3">Total</td><td class="num">{{.Total.StringFixed 2}}</td></tr>
</table>
<div class="footer">Get well soon.</div>
</body>
</html>
`

// Renderer renders receipts as printable HTML.
type Renderer struct {
	hospital string
	tmpl     *template.Template
}

// NewRenderer creates a Renderer. The hospital name appears in the receipt
// header on every printout.
func NewRenderer(hospital string) *Renderer {
	if hospital == "" {
		hospital = "Drishti Eye Hospital"
	}
	return &Renderer{
		hospital: hospital,
		tmpl:     template.Must(template.New("receipt").Parse(receiptHTML)),
	}
}

// Render writes the receipt HTML for the given data to w.
func (r *Renderer) Render(w io.Writer, data Data) error {
	if data.Hospital == "" {
		data.Hospital = r.hospital
	}
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render receipt %s: %w", data.BillID, err)
	}
	return nil
}
