package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/ngoctanz/party-management/internal/apperr"
	"github.com/ngoctanz/party-management/internal/httpx"
	"github.com/ngoctanz/party-management/internal/models"
	"github.com/ngoctanz/party-management/internal/validation"
)

// FoodHandler serves the v2 food catalog.
type FoodHandler struct {
	db *gorm.DB
}

func NewFoodHandler(db *gorm.DB) *FoodHandler {
	return &FoodHandler{db: db}
}

type foodRequest struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

// List handles GET /v2/food. Without page+limit it returns the full catalog;
// with them it pages, optionally narrowed by a case-insensitive name search.
func (h *FoodHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	base := h.db.WithContext(r.Context()).Model(&models.Food{})
	if search := strings.TrimSpace(q.Get("search")); search != "" {
		base = base.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if q.Get("page") == "" || q.Get("limit") == "" {
		var foods []models.Food
		if err := base.Order("name ASC").Find(&foods).Error; err != nil {
			writeErr(w, err)
			return
		}
		httpx.OK(w, "Foods retrieved successfully", foods)
		return
	}

	p := httpx.ParsePageParams(q)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		writeErr(w, err)
		return
	}
	var foods []models.Food
	if err := base.Order("name ASC").Limit(p.Limit).Offset(p.Skip).Find(&foods).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.Paginated(w, "Foods retrieved successfully", foods, httpx.NewPageMeta(p, total))
}

// Get handles GET /v2/food/{id}.
func (h *FoodHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var food models.Food
	if err := h.db.WithContext(r.Context()).First(&food, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound("Food not found"))
			return
		}
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Food retrieved successfully", food)
}

// Create handles POST /v2/food.
func (h *FoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req foodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.MaxLen("name", req.Name, 200, v)
	if req.Price == nil {
		v.Add("price", "required")
	} else {
		validation.NonNegative("price", *req.Price, v)
	}
	if !v.Empty() {
		writeErr(w, apperr.BadRequest(v.Join()))
		return
	}

	food := models.Food{Name: req.Name, Price: *req.Price}
	if err := h.db.WithContext(r.Context()).Create(&food).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.Created(w, "Food created successfully", food)
}

// Update handles PUT /v2/food/{id}. Only the fields present change.
func (h *FoodHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var req foodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	cols := map[string]any{}
	v := validation.Violations{}
	if name := strings.TrimSpace(req.Name); name != "" {
		validation.MaxLen("name", name, 200, v)
		cols["name"] = name
	}
	if req.Price != nil {
		validation.NonNegative("price", *req.Price, v)
		cols["price"] = *req.Price
	}
	if !v.Empty() {
		writeErr(w, apperr.BadRequest(v.Join()))
		return
	}
	if len(cols) == 0 {
		writeErr(w, apperr.BadRequest("nothing to update"))
		return
	}

	var food models.Food
	if err := h.db.WithContext(r.Context()).First(&food, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound("Food not found"))
			return
		}
		writeErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Model(&food).Updates(cols).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Food updated successfully", food)
}

// Hide handles PATCH /v2/food/{id}/hide.
func (h *FoodHandler) Hide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var food models.Food
	if err := h.db.WithContext(r.Context()).First(&food, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound("Food not found"))
			return
		}
		writeErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(&food).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Food hidden successfully", food)
}

// Delete handles DELETE /v2/food/{id}: permanent removal.
func (h *FoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var food models.Food
	if err := h.db.WithContext(r.Context()).Unscoped().First(&food, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound("Food not found"))
			return
		}
		writeErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Unscoped().Delete(&food).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Food deleted successfully", nil)
}
