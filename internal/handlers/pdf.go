package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ngoctanz/party-management/internal/apperr"
	"github.com/ngoctanz/party-management/internal/billing"
	"github.com/ngoctanz/party-management/internal/pdfgen"
	"github.com/ngoctanz/party-management/internal/services"
)

// PDFHandler renders invoices. POST endpoints take a client-built bill;
// GET endpoints derive the bill from a stored order.
type PDFHandler struct {
	orders   *services.OrderService
	renderer pdfgen.Renderer
}

func NewPDFHandler(orders *services.OrderService, renderer pdfgen.Renderer) *PDFHandler {
	return &PDFHandler{orders: orders, renderer: renderer}
}

func (h *PDFHandler) render(w http.ResponseWriter, r *http.Request, bill billing.Bill, inline bool) {
	html, err := pdfgen.InvoiceHTML(bill)
	if err != nil {
		writeErr(w, err)
		return
	}
	pdf, err := h.renderer.Render(r.Context(), html)
	if err != nil {
		writeErr(w, err)
		return
	}

	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=invoice-%s.pdf", disposition, bill.OrderCode))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}

func (h *PDFHandler) fromData(w http.ResponseWriter, r *http.Request, inline bool) {
	var bill billing.Bill
	if err := decodeJSON(r, &bill); err != nil {
		writeErr(w, err)
		return
	}
	if err := bill.Validate(); err != nil {
		writeErr(w, apperr.BadRequest(err.Error()))
		return
	}
	if bill.Print == (billing.PrintConfig{}) {
		bill.Print = billing.DefaultPrintConfig()
	}
	h.render(w, r, bill, inline)
}

func (h *PDFHandler) fromOrder(w http.ResponseWriter, r *http.Request, inline bool) {
	id, err := pathID(r, "orderId")
	if err != nil {
		writeErr(w, err)
		return
	}
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.render(w, r, billing.BuildBill(order), inline)
}

// Generate handles POST /v1/pdf/generate.
func (h *PDFHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.fromData(w, r, false)
}

// Preview handles POST /v1/pdf/preview.
func (h *PDFHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.fromData(w, r, true)
}

// Invoice handles GET /v1/pdf/invoice/{orderId}.
func (h *PDFHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	h.fromOrder(w, r, false)
}

// InvoicePreview handles GET /v1/pdf/preview/{orderId}.
func (h *PDFHandler) InvoicePreview(w http.ResponseWriter, r *http.Request) {
	h.fromOrder(w, r, true)
}
