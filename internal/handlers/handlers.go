// Package handlers implements the HTTP endpoints. Handlers stay thin:
// decode, call the service or storage layer, write the response envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ngoctanz/party-management/internal/apperr"
	"github.com/ngoctanz/party-management/internal/httpx"
)

// writeErr maps service errors onto the response envelope. Unknown errors
// become an opaque 500; their detail goes to the log only.
func writeErr(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		httpx.Fail(w, ae.Status, ae.Message)
		return
	}
	log.Printf("internal error: %v", err)
	httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequest("invalid JSON body")
	}
	return nil
}

// pathID parses the named numeric path segment of a Go 1.22 mux pattern.
func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, apperr.BadRequest(name + " must be a numeric id")
	}
	return uint(n), nil
}
