package services

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ngoctanz/party-management/internal/apperr"
)

// OrderFilters carries the parsed /v1/order/search criteria. Nil pointers
// mean "not filtered". All filters combine with AND; Search alone is an OR
// across customer name, address, code and food names.
type OrderFilters struct {
	Search      string
	TypeOrderID *uint
	PartnerID   *uint
	DateFrom    *time.Time
	DateTo      *time.Time
	PriceMin    *float64
	PriceMax    *float64
}

// ParseOrderFilters reads the search query parameters and rejects
// inconsistent ranges before any query runs.
func ParseOrderFilters(q url.Values) (OrderFilters, error) {
	var f OrderFilters
	f.Search = strings.TrimSpace(q.Get("search"))

	var err error
	if f.TypeOrderID, err = idParam(q, "typeOrderId"); err != nil {
		return f, err
	}
	if f.PartnerID, err = idParam(q, "partnerId"); err != nil {
		return f, err
	}

	if v := strings.TrimSpace(q.Get("dateFrom")); v != "" {
		day, perr := parseDate(v)
		if perr != nil {
			return f, apperr.BadRequest("dateFrom must be a date (YYYY-MM-DD)")
		}
		from := startOfDay(day)
		f.DateFrom = &from
	}
	if v := strings.TrimSpace(q.Get("dateTo")); v != "" {
		day, perr := parseDate(v)
		if perr != nil {
			return f, apperr.BadRequest("dateTo must be a date (YYYY-MM-DD)")
		}
		to := endOfDay(day)
		f.DateTo = &to
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return f, apperr.BadRequest("dateFrom cannot be after dateTo")
	}

	if v := strings.TrimSpace(q.Get("priceMin")); v != "" {
		min, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return f, apperr.BadRequest("priceMin must be a number")
		}
		f.PriceMin = &min
	}
	if v := strings.TrimSpace(q.Get("priceMax")); v != "" {
		max, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return f, apperr.BadRequest("priceMax must be a number")
		}
		f.PriceMax = &max
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return f, apperr.BadRequest("priceMin cannot be greater than priceMax")
	}

	return f, nil
}

func idParam(q url.Values, name string) (*uint, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil || n == 0 {
		return nil, apperr.BadRequest(name + " must be a numeric id")
	}
	id := uint(n)
	return &id, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 999999999, time.UTC)
}
