package services

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FoodItem mirrors one food_list entry on the wire. Quantity is free-form
// text ("10 mâm"), not a number.
type FoodItem struct {
	Food     string `json:"food"`
	Quantity string `json:"quantity"`
}

// Legacy clients send order payloads as multipart form fields, so every
// scalar arrives as a string and the list fields arrive either structured or
// as a JSON-encoded string. The coercions below mirror that looseness;
// anything unusable degrades to the zero value instead of failing the field.

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		if s {
			return "true"
		}
		return "false"
	}
	return ""
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func coerceInt(v any) (int, bool) {
	f, ok := coerceFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func coerceID(v any) (uint, bool) {
	f, ok := coerceFloat(v)
	if !ok || f < 1 || f != float64(uint(f)) {
		return 0, false
	}
	return uint(f), true
}

// floatOrZero mirrors `parseFloat(x) || 0` for optional numeric fields.
func floatOrZero(v any) float64 {
	f, ok := coerceFloat(v)
	if !ok {
		return 0
	}
	return f
}

// parseDate accepts a bare day or a full RFC 3339 timestamp, in UTC.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseFoodList accepts a structured list or a JSON-encoded string. Entries
// without a usable name or quantity are dropped; a malformed encoding yields
// an empty list, never an error.
func ParseFoodList(v any) []FoodItem {
	switch list := v.(type) {
	case nil:
		return nil
	case []FoodItem:
		out := make([]FoodItem, 0, len(list))
		for _, it := range list {
			food, qty := strings.TrimSpace(it.Food), strings.TrimSpace(it.Quantity)
			if food == "" || qty == "" {
				continue
			}
			out = append(out, FoodItem{Food: food, Quantity: qty})
		}
		return out
	case []any:
		out := make([]FoodItem, 0, len(list))
		for _, e := range list {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			food, qty := coerceString(m["food"]), coerceString(m["quantity"])
			if food == "" || qty == "" {
				continue
			}
			out = append(out, FoodItem{Food: food, Quantity: qty})
		}
		return out
	case string:
		var raw any
		if err := json.Unmarshal([]byte(list), &raw); err != nil {
			return []FoodItem{}
		}
		arr, ok := raw.([]any)
		if !ok {
			return []FoodItem{}
		}
		return ParseFoodList(arr)
	}
	return []FoodItem{}
}

// ParseMediaList accepts a list of URLs or a JSON-encoded string; a plain
// non-JSON string counts as a single URL. Blank entries are dropped.
func ParseMediaList(v any) []string {
	switch list := v.(type) {
	case nil:
		return nil
	case []string:
		return FilterValidURLs(list)
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			if s := coerceString(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var raw any
		if err := json.Unmarshal([]byte(list), &raw); err != nil {
			return FilterValidURLs([]string{list})
		}
		arr, ok := raw.([]any)
		if !ok {
			return nil
		}
		return ParseMediaList(arr)
	}
	return nil
}

// FilterValidURLs drops blank entries, preserving order.
func FilterValidURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) != "" {
			out = append(out, u)
		}
	}
	return out
}

// diffURLs returns the members of current missing from final, preserving
// current's order: exactly the objects reconciliation must delete.
func diffURLs(current, final []string) []string {
	keep := make(map[string]struct{}, len(final))
	for _, u := range FilterValidURLs(final) {
		keep[u] = struct{}{}
	}
	var gone []string
	seen := make(map[string]struct{}, len(current))
	for _, u := range FilterValidURLs(current) {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if _, ok := keep[u]; !ok {
			gone = append(gone, u)
		}
	}
	return gone
}
