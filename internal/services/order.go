package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ngoctanz/party-management/internal/apperr"
	"github.com/ngoctanz/party-management/internal/httpx"
	"github.com/ngoctanz/party-management/internal/media"
	"github.com/ngoctanz/party-management/internal/models"
	"github.com/ngoctanz/party-management/internal/validation"
)

const maxMediaWorkers = 4

// OrderService owns the order lifecycle: validation, persistence and the
// reconciliation of attached media against the object store.
type OrderService struct {
	db     *gorm.DB
	media  media.Store
	folder string
}

func NewOrderService(db *gorm.DB, store media.Store, folder string) *OrderService {
	return &OrderService{db: db, media: store, folder: folder}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// BuildOrderData validates a full order payload and maps it onto a row.
// Attached media is set by the caller once uploads settle.
func BuildOrderData(fields map[string]any) (models.Order, validation.Violations) {
	v := validation.Violations{}
	var o models.Order

	o.Code = coerceString(fields["idOrder"])
	validation.Required("idOrder", o.Code, v)

	if raw := coerceString(fields["order_date"]); raw == "" {
		v.Add("order_date", "required")
	} else if t, err := parseDate(raw); err != nil {
		v.Add("order_date", "must_be_a_valid_date")
	} else {
		o.OrderDate = t
	}

	o.TypeOrderID = optionalID(v, fields, "id_type_order")
	o.PartnerID = optionalID(v, fields, "idPartner")
	o.UnitID = optionalID(v, fields, "unit")

	o.CustomerName = coerceString(fields["customer_name"])
	validation.Required("customer_name", o.CustomerName, v)
	o.Address = coerceString(fields["address"])
	validation.Required("address", o.Address, v)

	o.Floor = optionalString(fields["floor"])
	o.Basement = optionalString(fields["basement"])
	o.Note = optionalString(fields["note"])
	o.ServingTime = optionalString(fields["serving_time"])
	o.ArrivalTime = optionalString(fields["arrival_time"])
	o.TransferTime = optionalString(fields["transfer_time"])

	if n, ok := coerceInt(fields["customer_quantity"]); !ok {
		v.Add("customer_quantity", "required")
	} else {
		o.GuestCount = n
		validation.MinInt("customer_quantity", n, 1, v)
	}

	foods := ParseFoodList(fields["food_list"])
	if len(foods) == 0 {
		v.Add("food_list", "must_contain_at_least_one_entry")
	}
	o.Foods = foodRows(foods)

	if price, ok := coerceFloat(fields["price"]); !ok {
		v.Add("price", "required")
	} else {
		o.Price = price
		validation.NonNegative("price", price, v)
	}

	o.Discount = floatOrZero(fields["discount"])
	validation.RangeFloat("discount", o.Discount, 0, 100, v)
	o.VAT = floatOrZero(fields["vat"])
	validation.RangeFloat("vat", o.VAT, 0, 100, v)

	o.TransportCharge = floatOrZero(fields["transport_charge"])
	validation.NonNegative("transport_charge", o.TransportCharge, v)
	o.EquipmentCharge = floatOrZero(fields["equipment_charge"])
	validation.NonNegative("equipment_charge", o.EquipmentCharge, v)
	o.TableCharge = floatOrZero(fields["table_charge"])
	validation.NonNegative("table_charge", o.TableCharge, v)
	o.ServiceCharge = floatOrZero(fields["service_charge"])
	validation.NonNegative("service_charge", o.ServiceCharge, v)
	o.OtherCharge = floatOrZero(fields["other_charge"])
	validation.NonNegative("other_charge", o.OtherCharge, v)

	if uid, ok := coerceID(fields["idUser"]); !ok {
		v.Add("idUser", "required")
	} else {
		o.UserID = uid
	}

	return o, v
}

func optionalString(v any) *string {
	s := coerceString(v)
	if s == "" {
		return nil
	}
	return &s
}

func optionalID(v validation.Violations, fields map[string]any, key string) *uint {
	raw, present := fields[key]
	if !present || raw == nil || coerceString(raw) == "" {
		return nil
	}
	id, ok := coerceID(raw)
	if !ok {
		v.Add(key, "must_be_a_numeric_id")
		return nil
	}
	return &id
}

func foodRows(items []FoodItem) []models.OrderFood {
	rows := make([]models.OrderFood, 0, len(items))
	for i, it := range items {
		rows = append(rows, models.OrderFood{Position: i, Food: it.Food, Quantity: it.Quantity})
	}
	return rows
}

func mediaRows(urls []string) []models.OrderMedia {
	rows := make([]models.OrderMedia, 0, len(urls))
	for i, u := range urls {
		rows = append(rows, models.OrderMedia{Position: i, URL: u})
	}
	return rows
}

func mediaURLs(rows []models.OrderMedia) []string {
	urls := make([]string, 0, len(rows))
	for _, m := range rows {
		urls = append(urls, m.URL)
	}
	return urls
}

// uploadAll pushes attachments to the object store concurrently. A failed
// upload drops only that attachment; the order of the returned URLs follows
// the input order.
func (s *OrderService) uploadAll(ctx context.Context, files []media.Upload) []string {
	if len(files) == 0 {
		return nil
	}
	urls := make([]string, len(files))
	g := new(errgroup.Group)
	g.SetLimit(maxMediaWorkers)
	for i, f := range files {
		g.Go(func() error {
			url, err := s.media.Upload(ctx, f, s.folder)
			if err != nil {
				log.Printf("media upload failed for %q: %v", f.Filename, err)
				return nil
			}
			urls[i] = url
			return nil
		})
	}
	_ = g.Wait()
	return FilterValidURLs(urls)
}

// deleteAll removes store objects best-effort. Failures are logged and never
// propagated, so cleanup cannot fail the operation that triggered it.
func (s *OrderService) deleteAll(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	g := new(errgroup.Group)
	g.SetLimit(maxMediaWorkers)
	for _, u := range urls {
		g.Go(func() error {
			if err := s.media.Delete(ctx, u); err != nil {
				log.Printf("media delete failed for %q: %v", u, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Create validates the payload, uploads attachments and persists the order.
// Attachment URLs the client already holds (imagevideo_list) are kept ahead
// of freshly uploaded ones.
func (s *OrderService) Create(ctx context.Context, fields map[string]any, files []media.Upload) (OrderDTO, error) {
	order, violations := BuildOrderData(fields)
	if !violations.Empty() {
		return OrderDTO{}, apperr.BadRequest(violations.Join())
	}

	retained := ParseMediaList(fields["imagevideo_list"])
	final := append(FilterValidURLs(retained), s.uploadAll(ctx, files)...)
	order.Media = mediaRows(final)

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return OrderDTO{}, apperr.Conflict("order id already exists")
		}
		return OrderDTO{}, err
	}
	return orderToDTO(&order), nil
}

func (s *OrderService) find(ctx context.Context, id uint, unscoped bool) (*models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Foods", byPosition).Preload("Media", byPosition)
	if unscoped {
		q = q.Unscoped()
	}
	var o models.Order
	if err := q.First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, err
	}
	return &o, nil
}

// Get returns a visible order with its food and media rows loaded.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	return s.find(ctx, id, false)
}

func (s *OrderService) GetByID(ctx context.Context, id uint) (OrderDTO, error) {
	o, err := s.find(ctx, id, false)
	if err != nil {
		return OrderDTO{}, err
	}
	return orderToDTO(o), nil
}

// Update applies a change to an order. When the request carries files or an
// imagevideo_list field the payload is treated as a full rewrite with media
// reconciliation; otherwise only the present fields are merged.
func (s *OrderService) Update(ctx context.Context, id uint, fields map[string]any, files []media.Upload) (OrderDTO, error) {
	current, err := s.find(ctx, id, false)
	if err != nil {
		return OrderDTO{}, err
	}
	if _, hasMedia := fields["imagevideo_list"]; hasMedia || len(files) > 0 {
		return s.updateWithMedia(ctx, current, fields, files)
	}
	return s.updatePlain(ctx, current, fields)
}

func (s *OrderService) updateWithMedia(ctx context.Context, current *models.Order, fields map[string]any, files []media.Upload) (OrderDTO, error) {
	rebuilt, violations := BuildOrderData(fields)
	if !violations.Empty() {
		return OrderDTO{}, apperr.BadRequest(violations.Join())
	}

	retained := ParseMediaList(fields["imagevideo_list"])
	final := append(FilterValidURLs(retained), s.uploadAll(ctx, files)...)
	s.deleteAll(ctx, diffURLs(mediaURLs(current.Media), final))
	rebuilt.Media = mediaRows(final)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", current.ID).Updates(orderColumns(&rebuilt)).Error; err != nil {
			return err
		}
		return replaceChildren(tx, current.ID, rebuilt.Foods, rebuilt.Media)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return OrderDTO{}, apperr.Conflict("order id already exists")
		}
		return OrderDTO{}, err
	}
	return s.GetByID(ctx, current.ID)
}

func (s *OrderService) updatePlain(ctx context.Context, current *models.Order, fields map[string]any) (OrderDTO, error) {
	cols, foods, foodsSet, violations := buildOrderUpdates(fields)
	if !violations.Empty() {
		return OrderDTO{}, apperr.BadRequest(violations.Join())
	}
	if len(cols) == 0 && !foodsSet {
		return orderToDTO(current), nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(cols) > 0 {
			if err := tx.Model(&models.Order{}).Where("id = ?", current.ID).Updates(cols).Error; err != nil {
				return err
			}
		}
		if foodsSet {
			if err := tx.Where("order_id = ?", current.ID).Delete(&models.OrderFood{}).Error; err != nil {
				return err
			}
			if len(foods) > 0 {
				for i := range foods {
					foods[i].OrderID = current.ID
				}
				if err := tx.Create(&foods).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return OrderDTO{}, apperr.Conflict("order id already exists")
		}
		return OrderDTO{}, err
	}
	return s.GetByID(ctx, current.ID)
}

// buildOrderUpdates maps only the fields present in the payload to columns.
// An explicit null or blank on an optional reference clears it.
func buildOrderUpdates(fields map[string]any) (map[string]any, []models.OrderFood, bool, validation.Violations) {
	v := validation.Violations{}
	cols := map[string]any{}

	if raw, ok := fields["idOrder"]; ok {
		s := coerceString(raw)
		validation.Required("idOrder", s, v)
		cols["code"] = s
	}
	if raw, ok := fields["order_date"]; ok {
		if t, err := parseDate(coerceString(raw)); err != nil {
			v.Add("order_date", "must_be_a_valid_date")
		} else {
			cols["order_date"] = t
		}
	}
	for key, col := range map[string]string{"id_type_order": "type_order_id", "idPartner": "partner_id", "unit": "unit_id"} {
		if _, ok := fields[key]; ok {
			cols[col] = optionalID(v, fields, key)
		}
	}
	if raw, ok := fields["customer_name"]; ok {
		s := coerceString(raw)
		validation.Required("customer_name", s, v)
		cols["customer_name"] = s
	}
	if raw, ok := fields["address"]; ok {
		s := coerceString(raw)
		validation.Required("address", s, v)
		cols["address"] = s
	}
	for key, col := range map[string]string{
		"floor":         "floor",
		"basement":      "basement",
		"note":          "note",
		"serving_time":  "serving_time",
		"arrival_time":  "arrival_time",
		"transfer_time": "transfer_time",
	} {
		if raw, ok := fields[key]; ok {
			cols[col] = optionalString(raw)
		}
	}
	if raw, ok := fields["customer_quantity"]; ok {
		if n, good := coerceInt(raw); !good {
			v.Add("customer_quantity", "must_be_a_number")
		} else {
			validation.MinInt("customer_quantity", n, 1, v)
			cols["guest_count"] = n
		}
	}
	if raw, ok := fields["price"]; ok {
		if f, good := coerceFloat(raw); !good {
			v.Add("price", "must_be_a_number")
		} else {
			validation.NonNegative("price", f, v)
			cols["price"] = f
		}
	}
	for key, col := range map[string]string{"discount": "discount", "vat": "vat"} {
		if raw, ok := fields[key]; ok {
			f := floatOrZero(raw)
			validation.RangeFloat(key, f, 0, 100, v)
			cols[col] = f
		}
	}
	for _, key := range []string{"transport_charge", "equipment_charge", "table_charge", "service_charge", "other_charge"} {
		if raw, ok := fields[key]; ok {
			f := floatOrZero(raw)
			validation.NonNegative(key, f, v)
			cols[key] = f
		}
	}
	if raw, ok := fields["idUser"]; ok {
		if uid, good := coerceID(raw); !good {
			v.Add("idUser", "must_be_a_numeric_id")
		} else {
			cols["user_id"] = uid
		}
	}

	var foods []models.OrderFood
	foodsSet := false
	if raw, ok := fields["food_list"]; ok {
		foods = foodRows(ParseFoodList(raw))
		foodsSet = true
	}
	return cols, foods, foodsSet, v
}

func orderColumns(o *models.Order) map[string]any {
	return map[string]any{
		"code":             o.Code,
		"order_date":       o.OrderDate,
		"type_order_id":    o.TypeOrderID,
		"partner_id":       o.PartnerID,
		"customer_name":    o.CustomerName,
		"address":          o.Address,
		"floor":            o.Floor,
		"basement":         o.Basement,
		"guest_count":      o.GuestCount,
		"note":             o.Note,
		"serving_time":     o.ServingTime,
		"price":            o.Price,
		"unit_id":          o.UnitID,
		"discount":         o.Discount,
		"vat":              o.VAT,
		"transport_charge": o.TransportCharge,
		"equipment_charge": o.EquipmentCharge,
		"table_charge":     o.TableCharge,
		"service_charge":   o.ServiceCharge,
		"other_charge":     o.OtherCharge,
		"arrival_time":     o.ArrivalTime,
		"transfer_time":    o.TransferTime,
		"user_id":          o.UserID,
	}
}

func replaceChildren(tx *gorm.DB, orderID uint, foods []models.OrderFood, media []models.OrderMedia) error {
	if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderFood{}).Error; err != nil {
		return err
	}
	if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderMedia{}).Error; err != nil {
		return err
	}
	if len(foods) > 0 {
		for i := range foods {
			foods[i].OrderID = orderID
		}
		if err := tx.Create(&foods).Error; err != nil {
			return err
		}
	}
	if len(media) > 0 {
		for i := range media {
			media[i].OrderID = orderID
		}
		if err := tx.Create(&media).Error; err != nil {
			return err
		}
	}
	return nil
}

// Hide soft-deletes an order: it disappears from every listing but keeps its
// rows and media for a later purge.
func (s *OrderService) Hide(ctx context.Context, id uint) (OrderDTO, error) {
	o, err := s.find(ctx, id, false)
	if err != nil {
		return OrderDTO{}, err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Order{}, id).Error; err != nil {
		return OrderDTO{}, err
	}
	return orderToDTO(o), nil
}

// Delete removes an order permanently, hidden or not, cleaning up its media
// in the object store first.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	o, err := s.find(ctx, id, true)
	if err != nil {
		return err
	}
	s.deleteAll(ctx, mediaURLs(o.Media))
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderFood{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderMedia{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Order{}, id).Error
	})
}

func (s *OrderService) List(ctx context.Context, p httpx.PageParams) ([]OrderDTO, int64, error) {
	return s.query(ctx, p, OrderFilters{}, "", 0)
}

func (s *OrderService) Search(ctx context.Context, p httpx.PageParams, f OrderFilters) ([]OrderDTO, int64, error) {
	return s.query(ctx, p, f, "", 0)
}

func (s *OrderService) ListByUser(ctx context.Context, userID uint, p httpx.PageParams) ([]OrderDTO, int64, error) {
	return s.query(ctx, p, OrderFilters{}, "user_id", userID)
}

func (s *OrderService) ListByPartner(ctx context.Context, partnerID uint, p httpx.PageParams) ([]OrderDTO, int64, error) {
	return s.query(ctx, p, OrderFilters{}, "partner_id", partnerID)
}

// query runs the shared listing pipeline: filters, a total count unaffected
// by pagination, then the page ordered newest first with id as tie-break.
func (s *OrderService) query(ctx context.Context, p httpx.PageParams, f OrderFilters, ownerCol string, ownerID uint) ([]OrderDTO, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if ownerCol != "" {
		q = q.Where(ownerCol+" = ?", ownerID)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		foodMatch := s.db.Model(&models.OrderFood{}).Select("order_id").Where("LOWER(food) LIKE ?", like)
		q = q.Where(
			s.db.Where("LOWER(customer_name) LIKE ?", like).
				Or("LOWER(address) LIKE ?", like).
				Or("LOWER(code) LIKE ?", like).
				Or("id IN (?)", foodMatch),
		)
	}
	if f.TypeOrderID != nil {
		q = q.Where("type_order_id = ?", *f.TypeOrderID)
	}
	if f.PartnerID != nil {
		q = q.Where("partner_id = ?", *f.PartnerID)
	}
	if f.DateFrom != nil {
		q = q.Where("order_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("order_date <= ?", *f.DateTo)
	}
	if f.PriceMin != nil {
		q = q.Where("price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("price <= ?", *f.PriceMax)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Preload("Foods", byPosition).Preload("Media", byPosition).
		Order("created_at DESC, id ASC").
		Limit(p.Limit).Offset(p.Skip).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return ordersToDTO(orders), total, nil
}
