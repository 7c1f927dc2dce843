package pdfgen

import (
	"strings"
	"testing"
	"time"

	"github.com/ngoctanz/party-management/internal/billing"
)

func TestFormatVND(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0 ₫"},
		{1000, "1.000 ₫"},
		{1022000, "1.022.000 ₫"},
		{999, "999 ₫"},
	}
	for _, c := range cases {
		if got := FormatVND(c.in); got != c.want {
			t.Errorf("FormatVND(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func sampleBill() billing.Bill {
	return billing.Bill{
		OrderCode:    "DH-001",
		CustomerName: "Nguyen Van A",
		Address:      "12 Le Loi",
		CreatedAt:    time.Date(2025, 3, 1, 11, 30, 0, 0, time.UTC),
		Items: []billing.Item{
			{No: 1, Name: "Gà hấp", Quantity: 10, Price: 100000, Total: 1000000},
		},
		Subtotal:      1000000,
		Discount:      billing.Rated{Percent: 10, Amount: 100000},
		AfterDiscount: 900000,
		VAT:           billing.Rated{Percent: 8, Amount: 72000},
		Charges:       billing.Charges{Other: 50000, Total: 50000},
		GrandTotal:    1022000,
		Print:         billing.DefaultPrintConfig(),
	}
}

func TestInvoiceHTML(t *testing.T) {
	html, err := InvoiceHTML(sampleBill())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"DH-001",
		"Nguyen Van A",
		"12 Le Loi",
		"1.022.000 ₫", // grand total
		"Gà hấp",
		"01/03/2025",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestInvoiceHTMLHiddenColumns(t *testing.T) {
	bill := sampleBill()
	bill.Print = billing.PrintConfig{ShowName: true, ShowLineTotal: true}
	html, err := InvoiceHTML(bill)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "STT") {
		t.Error("index column must be hidden when disabled")
	}
}

func TestInvoiceHTMLEscapesContent(t *testing.T) {
	bill := sampleBill()
	bill.CustomerName = `<script>alert(1)</script>`
	html, err := InvoiceHTML(bill)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("customer-supplied text must be HTML-escaped")
	}
}
