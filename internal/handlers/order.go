package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ngoctanz/party-management/internal/apperr"
	"github.com/ngoctanz/party-management/internal/httpx"
	"github.com/ngoctanz/party-management/internal/media"
	"github.com/ngoctanz/party-management/internal/services"
)

const (
	maxOrderFiles   = 10
	maxFileSize     = 20 << 20 // 20MB per attachment
	multipartMemory = 32 << 20
	orderFilesField = "files"
)

// Attachment types the store accepts. Anything else is rejected up front
// instead of burning an upload attempt.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
}

// OrderHandler serves the order lifecycle endpoints on top of OrderService.
type OrderHandler struct {
	svc *services.OrderService
}

func NewOrderHandler(svc *services.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// orderPayload reads the request as either multipart form data (scalar
// fields plus binary attachments) or a plain JSON object.
func orderPayload(r *http.Request) (map[string]any, []media.Upload, error) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		var fields map[string]any
		if err := decodeJSON(r, &fields); err != nil {
			return nil, nil, err
		}
		return fields, nil, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, nil, apperr.BadRequest("invalid multipart form")
	}
	fields := make(map[string]any, len(r.MultipartForm.Value))
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	headers := r.MultipartForm.File[orderFilesField]
	if len(headers) > maxOrderFiles {
		return nil, nil, apperr.BadRequest("too many files: at most 10 attachments per order")
	}
	files := make([]media.Upload, 0, len(headers))
	for _, fh := range headers {
		upload, err := readUpload(fh)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, upload)
	}
	return fields, files, nil
}

func readUpload(fh *multipart.FileHeader) (media.Upload, error) {
	if fh.Size > maxFileSize {
		return media.Upload{}, apperr.BadRequest("file too large: attachments are limited to 20MB")
	}
	contentType := fh.Header.Get("Content-Type")
	if !allowedMimeTypes[contentType] {
		return media.Upload{}, apperr.BadRequest("Invalid file type. Only images and videos are allowed.")
	}
	f, err := fh.Open()
	if err != nil {
		return media.Upload{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	if err != nil {
		return media.Upload{}, err
	}
	if int64(len(data)) > maxFileSize {
		return media.Upload{}, apperr.BadRequest("file too large: attachments are limited to 20MB")
	}
	return media.Upload{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}

// Create handles POST /v1/order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, files, err := orderPayload(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	order, err := h.svc.Create(r.Context(), fields, files)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.Created(w, "Order created successfully", order)
}

// List handles GET /v1/order.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	p := httpx.ParsePageParams(r.URL.Query())
	orders, total, err := h.svc.List(r.Context(), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.Paginated(w, "Orders retrieved successfully", orders, httpx.NewPageMeta(p, total))
}

// Search handles GET /v1/order/search with the combined filter set.
func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := httpx.ParsePageParams(q)
	filters, err := services.ParseOrderFilters(q)
	if err != nil {
		writeErr(w, err)
		return
	}
	orders, total, err := h.svc.Search(r.Context(), p, filters)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.Paginated(w, "Orders retrieved successfully", orders, httpx.NewPageMeta(p, total))
}

// Get handles GET /v1/order/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	order, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Order retrieved successfully", order)
}

// Update handles PUT /v1/order/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	fields, files, err := orderPayload(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	order, err := h.svc.Update(r.Context(), id, fields, files)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Order updated successfully", order)
}

// Hide handles PATCH /v1/order/{id}/hide.
func (h *OrderHandler) Hide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	order, err := h.svc.Hide(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Order hidden successfully", order)
}

// Delete handles DELETE /v1/order/{id}: permanent removal including stored media.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Order deleted successfully", nil)
}

// ListByUser handles GET /v1/order/user/{userId}.
func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeErr(w, err)
		return
	}
	p := httpx.ParsePageParams(r.URL.Query())
	orders, total, err := h.svc.ListByUser(r.Context(), userID, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.Paginated(w, "Orders retrieved successfully", orders, httpx.NewPageMeta(p, total))
}

// ListByPartner handles GET /v1/order/partner/{partnerId}.
func (h *OrderHandler) ListByPartner(w http.ResponseWriter, r *http.Request) {
	partnerID, err := pathID(r, "partnerId")
	if err != nil {
		writeErr(w, err)
		return
	}
	p := httpx.ParsePageParams(r.URL.Query())
	orders, total, err := h.svc.ListByPartner(r.Context(), partnerID, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.Paginated(w, "Orders retrieved successfully", orders, httpx.NewPageMeta(p, total))
}
