package billing

import (
	"math"
	"testing"
	"time"

	"github.com/ngoctanz/party-management/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildBillBreakdown(t *testing.T) {
	order := &models.Order{
		Code:         "DH-001",
		CustomerName: "Nguyen Van A",
		Address:      "12 Le Loi",
		OrderDate:    time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
		Price:        1000000,
		Discount:     10,
		VAT:          8,
		OtherCharge:  50000,
		Foods: []models.OrderFood{
			{Position: 0, Food: "Gà hấp", Quantity: "10 mâm"},
			{Position: 1, Food: "Xôi", Quantity: "5"},
		},
	}
	bill := BuildBill(order)

	if !almostEqual(bill.Discount.Amount, 100000) {
		t.Fatalf("discount amount = %v, want 100000", bill.Discount.Amount)
	}
	if !almostEqual(bill.AfterDiscount, 900000) {
		t.Fatalf("after discount = %v, want 900000", bill.AfterDiscount)
	}
	if !almostEqual(bill.VAT.Amount, 72000) {
		t.Fatalf("vat amount = %v, want 72000", bill.VAT.Amount)
	}
	if !almostEqual(bill.Charges.Total, 50000) {
		t.Fatalf("charges total = %v, want 50000", bill.Charges.Total)
	}
	if !almostEqual(bill.GrandTotal, 1022000) {
		t.Fatalf("grand total = %v, want 1022000", bill.GrandTotal)
	}
	if len(bill.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(bill.Items))
	}
	if bill.Items[0].No != 1 || bill.Items[1].No != 2 {
		t.Fatalf("items must be numbered from 1: %+v", bill.Items)
	}
	if !almostEqual(bill.Items[0].Quantity, 10) {
		t.Fatalf("quantity of %q = %v, want 10", bill.Items[0].Name, bill.Items[0].Quantity)
	}
}

func TestBuildBillZeroRates(t *testing.T) {
	order := &models.Order{Code: "DH-002", CustomerName: "B", Address: "x", Price: 500000}
	bill := BuildBill(order)
	if !almostEqual(bill.GrandTotal, 500000) {
		t.Fatalf("grand total = %v, want 500000", bill.GrandTotal)
	}
	if !almostEqual(bill.Discount.Amount, 0) || !almostEqual(bill.VAT.Amount, 0) {
		t.Fatalf("zero rates must yield zero amounts: %+v", bill)
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"10 mâm", 10},
		{"5", 5},
		{"2.5kg", 2.5},
		{" 7 bàn ", 7},
		{"mười", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := parseQuantity(c.in); !almostEqual(got, c.want) {
			t.Errorf("parseQuantity(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestBillValidate(t *testing.T) {
	b := Bill{OrderCode: "DH-003", CustomerName: "C", Items: []Item{}}
	if err := b.Validate(); err != nil {
		t.Fatalf("valid bill rejected: %v", err)
	}
	missing := Bill{Items: []Item{}}
	if err := missing.Validate(); err == nil {
		t.Fatal("bill without orderId/customerName must be rejected")
	}
	noItems := Bill{OrderCode: "DH-004", CustomerName: "D"}
	if err := noItems.Validate(); err == nil {
		t.Fatal("bill with nil items must be rejected")
	}
}
