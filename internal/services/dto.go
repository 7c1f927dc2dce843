package services

import (
	"time"

	"github.com/ngoctanz/party-management/internal/models"
)

// OrderDTO is the wire shape of an order. Reference fields are flattened to
// bare ids so clients never receive nested entities.
type OrderDTO struct {
	ID               uint       `json:"id"`
	Code             string     `json:"idOrder"`
	OrderDate        time.Time  `json:"order_date"`
	TypeOrderID      *uint      `json:"id_type_order"`
	PartnerID        *uint      `json:"idPartner"`
	CustomerName     string     `json:"customer_name"`
	Address          string     `json:"address"`
	Floor            *string    `json:"floor"`
	Basement         *string    `json:"basement"`
	GuestCount       int        `json:"customer_quantity"`
	Note             *string    `json:"note"`
	Foods            []FoodItem `json:"food_list"`
	ServingTime      *string    `json:"serving_time"`
	Price            float64    `json:"price"`
	UnitID           *uint      `json:"unit"`
	Discount         float64    `json:"discount"`
	VAT              float64    `json:"vat"`
	TransportCharge  float64    `json:"transport_charge"`
	EquipmentCharge  float64    `json:"equipment_charge"`
	TableCharge      float64    `json:"table_charge"`
	ServiceCharge    float64    `json:"service_charge"`
	OtherCharge      float64    `json:"other_charge"`
	ArrivalTime      *string    `json:"arrival_time"`
	TransferTime     *string    `json:"transfer_time"`
	Media            []string   `json:"imagevideo_list"`
	UserID           uint       `json:"idUser"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func orderToDTO(o *models.Order) OrderDTO {
	foods := make([]FoodItem, 0, len(o.Foods))
	for _, f := range o.Foods {
		foods = append(foods, FoodItem{Food: f.Food, Quantity: f.Quantity})
	}
	media := make([]string, 0, len(o.Media))
	for _, m := range o.Media {
		media = append(media, m.URL)
	}
	return OrderDTO{
		ID:              o.ID,
		Code:            o.Code,
		OrderDate:       o.OrderDate,
		TypeOrderID:     o.TypeOrderID,
		PartnerID:       o.PartnerID,
		CustomerName:    o.CustomerName,
		Address:         o.Address,
		Floor:           o.Floor,
		Basement:        o.Basement,
		GuestCount:      o.GuestCount,
		Note:            o.Note,
		Foods:           foods,
		ServingTime:     o.ServingTime,
		Price:           o.Price,
		UnitID:          o.UnitID,
		Discount:        o.Discount,
		VAT:             o.VAT,
		TransportCharge: o.TransportCharge,
		EquipmentCharge: o.EquipmentCharge,
		TableCharge:     o.TableCharge,
		ServiceCharge:   o.ServiceCharge,
		OtherCharge:     o.OtherCharge,
		ArrivalTime:     o.ArrivalTime,
		TransferTime:    o.TransferTime,
		Media:           media,
		UserID:          o.UserID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func ordersToDTO(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, orderToDTO(&orders[i]))
	}
	return out
}
