package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response shape of every JSON endpoint.
type Envelope struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Data       any       `json:"data"`
	Pagination *PageMeta `json:"pagination,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body, err := json.Marshal(payload)
	if err != nil {
		// best-effort error response; avoid writing partial JSON
		http.Error(w, `{"success":false,"message":"encode error","data":null}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Paginated writes a success envelope carrying page metadata alongside data.
func Paginated(w http.ResponseWriter, message string, data any, meta PageMeta) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data, Pagination: &meta})
}

func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}
