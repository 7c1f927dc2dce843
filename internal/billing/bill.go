// Package billing derives presentation-ready invoice breakdowns from orders.
package billing

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ngoctanz/party-management/internal/models"
)

// Bill is the invoice structure handed to the PDF template. Field names on
// the wire match what the frontend already sends to the export endpoints.
type Bill struct {
	OrderCode     string      `json:"orderId"`
	CustomerName  string      `json:"customerName"`
	Address       string      `json:"address"`
	CreatedAt     time.Time   `json:"createdAt"`
	Items         []Item      `json:"items"`
	Subtotal      float64     `json:"subtotal"`
	Discount      Rated       `json:"discount"`
	AfterDiscount float64     `json:"afterDiscount"`
	VAT           Rated       `json:"vat"`
	Charges       Charges     `json:"charges"`
	GrandTotal    float64     `json:"grandTotal"`
	Print         PrintConfig `json:"printConfig"`
}

// Item is one numbered food line (1-indexed).
type Item struct {
	No       int     `json:"no"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"dvt,omitempty"`
	Portion  string  `json:"dinhLuong,omitempty"`
	Price    float64 `json:"price"`
	ExtraFee float64 `json:"phiKhac"`
	Total    float64 `json:"total"`
}

// Rated pairs a percentage with the amount it resolves to.
type Rated struct {
	Percent float64 `json:"percent"`
	Amount  float64 `json:"amount"`
}

type Charges struct {
	Transport float64 `json:"transport"`
	Equipment float64 `json:"equipment"`
	Table     float64 `json:"table"`
	Service   float64 `json:"service"`
	Other     float64 `json:"other"`
	Total     float64 `json:"total"`
}

// PrintConfig toggles invoice table columns.
type PrintConfig struct {
	ShowIndex     bool `json:"showSTT"`
	ShowName      bool `json:"showMon"`
	ShowQuantity  bool `json:"showSL"`
	ShowUnit      bool `json:"showDVT"`
	ShowPortion   bool `json:"showDinhLuong"`
	ShowUnitPrice bool `json:"showDonGia"`
	ShowExtraFee  bool `json:"showPhiKhac"`
	ShowLineTotal bool `json:"showThanhTien"`
}

func DefaultPrintConfig() PrintConfig {
	return PrintConfig{
		ShowIndex:     true,
		ShowName:      true,
		ShowQuantity:  true,
		ShowUnitPrice: true,
		ShowLineTotal: true,
	}
}

// BuildBill maps an order snapshot to its invoice breakdown. Pure: callers
// must reject malformed orders beforehand.
//
// Fixed derivation order, no rounding until display:
// discount applies to the base price, VAT to the discounted amount, and the
// five surcharges are added on top untouched.
func BuildBill(o *models.Order) Bill {
	subtotal := o.Price
	discountAmount := subtotal * o.Discount / 100
	afterDiscount := subtotal - discountAmount
	vatAmount := afterDiscount * o.VAT / 100
	totalCharges := o.TransportCharge + o.EquipmentCharge + o.TableCharge + o.ServiceCharge + o.OtherCharge

	items := make([]Item, 0, len(o.Foods))
	for i, f := range o.Foods {
		items = append(items, Item{
			No:       i + 1,
			Name:     f.Food,
			Quantity: parseQuantity(f.Quantity),
		})
	}

	return Bill{
		OrderCode:     o.Code,
		CustomerName:  o.CustomerName,
		Address:       o.Address,
		CreatedAt:     o.OrderDate,
		Items:         items,
		Subtotal:      subtotal,
		Discount:      Rated{Percent: o.Discount, Amount: discountAmount},
		AfterDiscount: afterDiscount,
		VAT:           Rated{Percent: o.VAT, Amount: vatAmount},
		Charges: Charges{
			Transport: o.TransportCharge,
			Equipment: o.EquipmentCharge,
			Table:     o.TableCharge,
			Service:   o.ServiceCharge,
			Other:     o.OtherCharge,
			Total:     totalCharges,
		},
		GrandTotal: afterDiscount + vatAmount + totalCharges,
		Print:      DefaultPrintConfig(),
	}
}

// parseQuantity pulls the leading number out of a free-form quantity string
// ("10 mâm" -> 10); anything unparsable counts as zero.
func parseQuantity(q string) float64 {
	q = strings.TrimSpace(q)
	end := 0
	for end < len(q) && (q[end] >= '0' && q[end] <= '9' || q[end] == '.') {
		end++
	}
	n, err := strconv.ParseFloat(q[:end], 64)
	if err != nil {
		return 0
	}
	return n
}

// Validate guards the export endpoints that accept a client-built bill.
func (b *Bill) Validate() error {
	if b.OrderCode == "" || b.CustomerName == "" {
		return errors.New("Missing required fields: orderId, customerName")
	}
	if b.Items == nil {
		return errors.New("Items must be an array")
	}
	return nil
}
