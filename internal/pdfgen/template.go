package pdfgen

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/ngoctanz/party-management/internal/billing"
)

// FormatVND renders an amount the way Vietnamese invoices expect it:
// dot-grouped thousands with a trailing đồng sign.
func FormatVND(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String() + " ₫"
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%g", p)
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"vnd":     FormatVND,
	"date":    formatDate,
	"percent": formatPercent,
}).Parse(invoiceHTML))

// InvoiceHTML renders the printable invoice document fed to the PDF renderer.
func InvoiceHTML(bill billing.Bill) (string, error) {
	var b strings.Builder
	if err := invoiceTmpl.Execute(&b, bill); err != nil {
		return "", fmt.Errorf("render invoice template: %w", err)
	}
	return b.String(), nil
}

const invoiceHTML = `<!DOCTYPE html>
<html lang="vi">
<head>
<meta charset="UTF-8">
<title>Hóa đơn #{{.OrderCode}}</title>
<style>
  @page { margin: 15mm; size: A4; }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body { font-family: 'Arial', 'Helvetica', sans-serif; font-size: 13px; color: #222; }
  .header { text-align: center; margin-bottom: 18px; }
  .header h1 { font-size: 20px; text-transform: uppercase; }
  .meta { margin-bottom: 14px; }
  .meta p { margin: 2px 0; }
  table.items { width: 100%; border-collapse: collapse; margin-bottom: 16px; }
  table.items th, table.items td { border: 1px solid #444; padding: 5px 7px; }
  table.items th { background: #f0f0f0; }
  .text-center { text-align: center; }
  .text-right { text-align: right; }
  table.totals { width: 46%; margin-left: auto; border-collapse: collapse; }
  table.totals td { padding: 4px 7px; }
  table.totals td.label { text-align: left; }
  table.totals td.amount { text-align: right; }
  .discount { color: #b00; }
  .grand-total-row td { border-top: 2px solid #222; font-weight: bold; font-size: 15px; }
  .footer { margin-top: 28px; text-align: center; font-style: italic; color: #555; }
</style>
</head>
<body>
  <div class="header">
    <h1>Hóa đơn đặt tiệc</h1>
    <p>Mã đơn: <strong>{{.OrderCode}}</strong></p>
  </div>
  <div class="meta">
    <p>Khách hàng: <strong>{{.CustomerName}}</strong></p>
    <p>Địa chỉ: {{.Address}}</p>
    <p>Ngày: {{date .CreatedAt}}</p>
  </div>
  <table class="items">
    <thead>
      <tr>
        {{if .Print.ShowIndex}}<th>STT</th>{{end}}
        {{if .Print.ShowName}}<th>Món</th>{{end}}
        {{if .Print.ShowQuantity}}<th>SL</th>{{end}}
        {{if .Print.ShowUnit}}<th>ĐVT</th>{{end}}
        {{if .Print.ShowPortion}}<th>Định lượng</th>{{end}}
        {{if .Print.ShowUnitPrice}}<th>Đơn giá</th>{{end}}
        {{if .Print.ShowExtraFee}}<th>Phí khác</th>{{end}}
        {{if .Print.ShowLineTotal}}<th>Thành tiền</th>{{end}}
      </tr>
    </thead>
    <tbody>
      {{range .Items}}
      <tr>
        {{if $.Print.ShowIndex}}<td class="text-center">{{.No}}</td>{{end}}
        {{if $.Print.ShowName}}<td>{{.Name}}</td>{{end}}
        {{if $.Print.ShowQuantity}}<td class="text-center">{{.Quantity}}</td>{{end}}
        {{if $.Print.ShowUnit}}<td class="text-center">{{if .Unit}}{{.Unit}}{{else}}-{{end}}</td>{{end}}
        {{if $.Print.ShowPortion}}<td class="text-center">{{if .Portion}}{{.Portion}}{{else}}-{{end}}</td>{{end}}
        {{if $.Print.ShowUnitPrice}}<td class="text-right">{{vnd .Price}}</td>{{end}}
        {{if $.Print.ShowExtraFee}}<td class="text-right">{{vnd .ExtraFee}}</td>{{end}}
        {{if $.Print.ShowLineTotal}}<td class="text-right">{{vnd .Total}}</td>{{end}}
      </tr>
      {{end}}
    </tbody>
  </table>
  <table class="totals">
    <tr>
      <td class="label">Tạm tính:</td>
      <td class="amount">{{vnd .Subtotal}}</td>
    </tr>
    {{if gt .Discount.Percent 0.0}}
    <tr>
      <td class="label">Chiết khấu ({{percent .Discount.Percent}}%):</td>
      <td class="amount discount">-{{vnd .Discount.Amount}}</td>
    </tr>
    <tr>
      <td class="label">Sau chiết khấu:</td>
      <td class="amount">{{vnd .AfterDiscount}}</td>
    </tr>
    {{end}}
    {{if gt .VAT.Percent 0.0}}
    <tr>
      <td class="label">VAT ({{percent .VAT.Percent}}%):</td>
      <td class="amount">{{vnd .VAT.Amount}}</td>
    </tr>
    {{end}}
    {{if gt .Charges.Transport 0.0}}
    <tr><td class="label">Phí vận chuyển:</td><td class="amount">{{vnd .Charges.Transport}}</td></tr>
    {{end}}
    {{if gt .Charges.Equipment 0.0}}
    <tr><td class="label">Phí thiết bị:</td><td class="amount">{{vnd .Charges.Equipment}}</td></tr>
    {{end}}
    {{if gt .Charges.Table 0.0}}
    <tr><td class="label">Phí bàn ghế:</td><td class="amount">{{vnd .Charges.Table}}</td></tr>
    {{end}}
    {{if gt .Charges.Service 0.0}}
    <tr><td class="label">Phí dịch vụ:</td><td class="amount">{{vnd .Charges.Service}}</td></tr>
    {{end}}
    {{if gt .Charges.Other 0.0}}
    <tr><td class="label">Phí khác:</td><td class="amount">{{vnd .Charges.Other}}</td></tr>
    {{end}}
    <tr class="grand-total-row">
      <td class="label">TỔNG CỘNG:</td>
      <td class="amount">{{vnd .GrandTotal}}</td>
    </tr>
  </table>
  <div class="footer">Cảm ơn quý khách!</div>
</body>
</html>`
