package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is the central catering engagement record. Reference fields keep both
// the foreign key column and an optional preloaded struct; responses flatten
// back to the bare ids (see services.OrderDTO), so the wire shape never
// depends on what the storage layer happened to join.
type Order struct {
	ID uint `gorm:"primaryKey"`
	// Human-readable order code supplied by the client, unique across orders.
	Code      string    `gorm:"size:64;uniqueIndex;not null"`
	OrderDate time.Time `gorm:"index;not null"`

	TypeOrderID *uint `gorm:"index"`
	TypeOrder   *TypeOrder
	PartnerID   *uint `gorm:"index"`
	Partner     *Partner

	CustomerName string `gorm:"not null;index"`
	Address      string `gorm:"not null"`
	Floor        *string
	Basement     *string
	GuestCount   int `gorm:"not null"`
	Note         *string

	Foods []OrderFood `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	ServingTime *string
	Price       float64 `gorm:"not null;index"`
	UnitID      *uint   `gorm:"index"`
	Unit        *Unit

	// Percentages in [0,100].
	Discount float64 `gorm:"not null;default:0"`
	VAT      float64 `gorm:"column:vat;not null;default:0"`

	TransportCharge float64 `gorm:"not null;default:0"`
	EquipmentCharge float64 `gorm:"not null;default:0"`
	TableCharge     float64 `gorm:"not null;default:0"`
	ServiceCharge   float64 `gorm:"not null;default:0"`
	OtherCharge     float64 `gorm:"not null;default:0"`

	ArrivalTime  *string
	TransferTime *string

	Media []OrderMedia `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	UserID uint `gorm:"index;not null"`
	User   *User

	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time
}

// OrderFood is one line item of an order's food list. Position keeps the
// client-supplied ordering. Quantity stays a free-form string ("10 mâm",
// "5kg", ...), numeric conversion happens only in the invoice calculator.
type OrderFood struct {
	ID       uint   `gorm:"primaryKey"`
	OrderID  uint   `gorm:"index;not null"`
	Position int    `gorm:"not null"`
	Food     string `gorm:"not null"`
	Quantity string `gorm:"not null"`
}

// OrderMedia is one uploaded image/video URL attached to an order.
type OrderMedia struct {
	ID       uint   `gorm:"primaryKey"`
	OrderID  uint   `gorm:"index;not null"`
	Position int    `gorm:"not null"`
	URL      string `gorm:"size:2048;not null"`
}
