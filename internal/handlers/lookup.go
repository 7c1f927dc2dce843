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

// lookupEntity is any of the small name-unique reference tables orders point
// at. They share one CRUD surface, so one generic handler serves all three.
type lookupEntity interface {
	models.Partner | models.TypeOrder | models.Unit
}

type LookupHandler[T lookupEntity] struct {
	db   *gorm.DB
	noun string // "Partner", "Type order", "Unit" for response messages
}

func NewLookupHandler[T lookupEntity](db *gorm.DB, noun string) *LookupHandler[T] {
	return &LookupHandler[T]{db: db, noun: noun}
}

func (h *LookupHandler[T]) plural() string {
	return strings.ToLower(h.noun) + "s"
}

type nameRequest struct {
	Name string `json:"name"`
}

func (r *nameRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	v := validation.Violations{}
	validation.Required("name", r.Name, v)
	validation.MaxLen("name", r.Name, 100, v)
	if !v.Empty() {
		return apperr.BadRequest(v.Join())
	}
	return nil
}

// Create handles POST /.
func (h *LookupHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeErr(w, err)
		return
	}
	record := newNamed[T](req.Name)
	if err := h.db.WithContext(r.Context()).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeErr(w, apperr.Conflict(h.noun+" name already exists"))
			return
		}
		writeErr(w, err)
		return
	}
	httpx.Created(w, h.noun+" created successfully!", record)
}

// List handles GET /.
func (h *LookupHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	var records []T
	if err := h.db.WithContext(r.Context()).Order("created_at DESC").Find(&records).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Get "+h.plural()+" successfully", records)
}

// Get handles GET /{id}.
func (h *LookupHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var record T
	if err := h.db.WithContext(r.Context()).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound(h.noun+" not found"))
			return
		}
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Get "+strings.ToLower(h.noun)+" details successfully", record)
}

// Update handles PATCH /update/{id}: rename only.
func (h *LookupHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeErr(w, err)
		return
	}
	var record T
	if err := h.db.WithContext(r.Context()).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound(h.noun+" not found"))
			return
		}
		writeErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Model(&record).Update("name", req.Name).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeErr(w, apperr.Conflict(h.noun+" name already exists"))
			return
		}
		writeErr(w, err)
		return
	}
	httpx.OK(w, h.noun+" updated successfully", record)
}

// Hide handles DELETE /hide/{id}: soft delete.
func (h *LookupHandler[T]) Hide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var record T
	if err := h.db.WithContext(r.Context()).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound(h.noun+" not found"))
			return
		}
		writeErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(&record).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, h.noun+" hidden successfully", record)
}

// Delete handles DELETE /{id}: permanent removal, hidden or not.
func (h *LookupHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var record T
	if err := h.db.WithContext(r.Context()).Unscoped().First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound(h.noun+" not found"))
			return
		}
		writeErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Unscoped().Delete(&record).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, h.noun+" deleted successfully", nil)
}

// newNamed builds a fresh lookup row; the three entity types share the Name
// field but Go generics cannot set it through the type parameter directly.
func newNamed[T lookupEntity](name string) T {
	var record T
	switch p := any(&record).(type) {
	case *models.Partner:
		p.Name = name
	case *models.TypeOrder:
		p.Name = name
	case *models.Unit:
		p.Name = name
	}
	return record
}
