package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ngoctanz/party-management/internal/apperr"
	"github.com/ngoctanz/party-management/internal/db"
	"github.com/ngoctanz/party-management/internal/httpx"
	"github.com/ngoctanz/party-management/internal/media"
	"github.com/ngoctanz/party-management/internal/models"
)

// fakeStore records uploads and deletes; filenames in fail are rejected.
type fakeStore struct {
	mu      sync.Mutex
	fail    map[string]bool
	deleted []string
}

func (s *fakeStore) Upload(_ context.Context, file media.Upload, folder string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[file.Filename] {
		return "", errors.New("upload rejected")
	}
	return "https://cdn.test/" + folder + "/" + file.Filename, nil
}

func (s *fakeStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	return nil
}

func (s *fakeStore) deletedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func setupOrderTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, m := range db.Models() {
		if err := conn.AutoMigrate(m); err != nil {
			t.Fatalf("migrate %T: %v", m, err)
		}
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB) models.User {
	t.Helper()
	user := models.User{Username: "staffer", Password: "x", Role: models.RoleStaff}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func orderFields(code string, userID uint) map[string]any {
	return map[string]any{
		"idOrder":           code,
		"order_date":        "2025-03-01",
		"customer_name":     "Nguyen Van A",
		"address":           "12 Le Loi",
		"customer_quantity": "100",
		"food_list":         []any{map[string]any{"food": "Gà hấp", "quantity": "10 mâm"}},
		"price":             "1000000",
		"discount":          "10",
		"vat":               "8",
		"other_charge":      "50000",
		"idUser":            fmt.Sprintf("%d", userID),
	}
}

func newTestService(t *testing.T) (*OrderService, *fakeStore, models.User) {
	t.Helper()
	conn := setupOrderTestDB(t)
	store := &fakeStore{fail: map[string]bool{}}
	return NewOrderService(conn, store, "test/orders"), store, seedUser(t, conn)
}

func TestCreateOrder(t *testing.T) {
	svc, _, user := newTestService(t)

	dto, err := svc.Create(context.Background(), orderFields("DH-001", user.ID), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Code != "DH-001" || dto.UserID != user.ID {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if len(dto.Foods) != 1 || dto.Foods[0].Food != "Gà hấp" {
		t.Fatalf("foods = %+v", dto.Foods)
	}
	if dto.GuestCount != 100 || dto.Price != 1000000 || dto.Discount != 10 {
		t.Fatalf("numeric coercion failed: %+v", dto)
	}
	if len(dto.Media) != 0 {
		t.Fatalf("media = %v, want empty", dto.Media)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, user := newTestService(t)

	fields := orderFields("DH-002", user.ID)
	delete(fields, "customer_name")
	fields["food_list"] = "{broken json"

	_, err := svc.Create(context.Background(), fields, nil)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != 400 {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestCreateOrderDuplicateCode(t *testing.T) {
	svc, _, user := newTestService(t)

	if _, err := svc.Create(context.Background(), orderFields("DH-003", user.ID), nil); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), orderFields("DH-003", user.ID), nil)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != 409 {
		t.Fatalf("err = %v, want 409 conflict", err)
	}
}

func TestCreateOrderUploadsMedia(t *testing.T) {
	svc, _, user := newTestService(t)

	files := []media.Upload{
		{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("a")},
		{Filename: "b.jpg", ContentType: "image/jpeg", Data: []byte("b")},
	}
	dto, err := svc.Create(context.Background(), orderFields("DH-004", user.ID), files)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(dto.Media) != 2 {
		t.Fatalf("media = %v, want 2 urls", dto.Media)
	}
}

func TestCreateOrderSkipsFailedUploads(t *testing.T) {
	svc, store, user := newTestService(t)
	store.fail["bad.jpg"] = true

	files := []media.Upload{
		{Filename: "ok.jpg", ContentType: "image/jpeg", Data: []byte("x")},
		{Filename: "bad.jpg", ContentType: "image/jpeg", Data: []byte("y")},
	}
	dto, err := svc.Create(context.Background(), orderFields("DH-005", user.ID), files)
	if err != nil {
		t.Fatalf("create must not fail on a single bad upload: %v", err)
	}
	if len(dto.Media) != 1 || dto.Media[0] != "https://cdn.test/test/orders/ok.jpg" {
		t.Fatalf("media = %v, want only the successful upload", dto.Media)
	}
}

func TestUpdateMediaReconciliation(t *testing.T) {
	svc, store, user := newTestService(t)

	fields := orderFields("DH-006", user.ID)
	fields["imagevideo_list"] = []any{"https://cdn.test/A.jpg", "https://cdn.test/B.jpg", "https://cdn.test/C.jpg"}
	created, err := svc.Create(context.Background(), fields, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Client keeps B and C, drops A, adds a fresh upload D.
	upd := orderFields("DH-006", user.ID)
	upd["imagevideo_list"] = []any{"https://cdn.test/B.jpg", "https://cdn.test/C.jpg"}
	files := []media.Upload{{Filename: "D.jpg", ContentType: "image/jpeg", Data: []byte("d")}}

	dto, err := svc.Update(context.Background(), created.ID, upd, files)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []string{"https://cdn.test/B.jpg", "https://cdn.test/C.jpg", "https://cdn.test/test/orders/D.jpg"}
	if len(dto.Media) != len(want) {
		t.Fatalf("media = %v, want %v", dto.Media, want)
	}
	for i := range want {
		if dto.Media[i] != want[i] {
			t.Fatalf("media = %v, want %v", dto.Media, want)
		}
	}
	deleted := store.deletedURLs()
	if len(deleted) != 1 || deleted[0] != "https://cdn.test/A.jpg" {
		t.Fatalf("deleted = %v, want exactly A.jpg", deleted)
	}
}

func TestUpdatePlainMergesFields(t *testing.T) {
	svc, _, user := newTestService(t)

	created, err := svc.Create(context.Background(), orderFields("DH-007", user.ID), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	dto, err := svc.Update(context.Background(), created.ID, map[string]any{"customer_name": "Tran B", "price": "2000000"}, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.CustomerName != "Tran B" || dto.Price != 2000000 {
		t.Fatalf("update not applied: %+v", dto)
	}
	if dto.Address != "12 Le Loi" || len(dto.Foods) != 1 {
		t.Fatalf("untouched fields must survive: %+v", dto)
	}
}

func TestUpdateMissingOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), 9999, map[string]any{"price": "1"}, nil)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != 404 {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestHideExcludesFromListings(t *testing.T) {
	svc, _, user := newTestService(t)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		dto, err := svc.Create(ctx, orderFields(fmt.Sprintf("DH-10%d", i), user.ID), nil)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, dto.ID)
	}
	if _, err := svc.Hide(ctx, ids[0]); err != nil {
		t.Fatalf("hide: %v", err)
	}

	p := httpx.PageParams{Page: 1, Limit: 10}
	orders, total, err := svc.List(ctx, p)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(orders) != 2 {
		t.Fatalf("total = %d len = %d, hidden order must not appear", total, len(orders))
	}
	if _, err := svc.GetByID(ctx, ids[0]); err == nil {
		t.Fatal("hidden order must not be readable")
	}

	// Total stays the same regardless of page size.
	_, totalSmall, err := svc.List(ctx, httpx.PageParams{Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("list limit 1: %v", err)
	}
	if totalSmall != total {
		t.Fatalf("total must be independent of limit: %d vs %d", totalSmall, total)
	}
}

func TestDeleteRemovesOrderAndMedia(t *testing.T) {
	svc, store, user := newTestService(t)
	ctx := context.Background()

	fields := orderFields("DH-200", user.ID)
	fields["imagevideo_list"] = []any{"https://cdn.test/x.jpg"}
	created, err := svc.Create(ctx, fields, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	deleted := store.deletedURLs()
	if len(deleted) != 1 || deleted[0] != "https://cdn.test/x.jpg" {
		t.Fatalf("store cleanup = %v", deleted)
	}
	if _, err := svc.find(ctx, created.ID, true); err == nil {
		t.Fatal("hard-deleted order must be gone even unscoped")
	}
}

func TestDeleteWorksOnHiddenOrders(t *testing.T) {
	svc, _, user := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, orderFields("DH-201", user.ID), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Hide(ctx, created.ID); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete after hide: %v", err)
	}
}

func TestSearchByFoodName(t *testing.T) {
	svc, _, user := newTestService(t)
	ctx := context.Background()

	a := orderFields("DH-300", user.ID)
	a["food_list"] = []any{map[string]any{"food": "Bún chả", "quantity": "10"}}
	b := orderFields("DH-301", user.ID)
	b["food_list"] = []any{map[string]any{"food": "Phở bò", "quantity": "5"}}
	for _, f := range []map[string]any{a, b} {
		if _, err := svc.Create(ctx, f, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	p := httpx.PageParams{Page: 1, Limit: 10}
	orders, total, err := svc.Search(ctx, p, OrderFilters{Search: "bún"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].Code != "DH-300" {
		t.Fatalf("search by food = %+v (total %d)", orders, total)
	}
}

func TestSearchPriceAndDateRange(t *testing.T) {
	svc, _, user := newTestService(t)
	ctx := context.Background()

	cheap := orderFields("DH-310", user.ID)
	cheap["price"] = "100000"
	cheap["order_date"] = "2025-01-10"
	rich := orderFields("DH-311", user.ID)
	rich["price"] = "5000000"
	rich["order_date"] = "2025-02-20"
	for _, f := range []map[string]any{cheap, rich} {
		if _, err := svc.Create(ctx, f, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	p := httpx.PageParams{Page: 1, Limit: 10}
	min, max := 1000000.0, 10000000.0
	orders, total, err := svc.Search(ctx, p, OrderFilters{PriceMin: &min, PriceMax: &max})
	if err != nil {
		t.Fatalf("price search: %v", err)
	}
	if total != 1 || orders[0].Code != "DH-311" {
		t.Fatalf("price range = %+v (total %d)", orders, total)
	}

	from := startOfDay(mustDate(t, "2025-01-01"))
	to := endOfDay(mustDate(t, "2025-01-31"))
	orders, total, err = svc.Search(ctx, p, OrderFilters{DateFrom: &from, DateTo: &to})
	if err != nil {
		t.Fatalf("date search: %v", err)
	}
	if total != 1 || orders[0].Code != "DH-310" {
		t.Fatalf("date range = %+v (total %d)", orders, total)
	}
}

func TestListByUserAndPartner(t *testing.T) {
	svc, _, user := newTestService(t)
	ctx := context.Background()
	other := models.User{Username: "other", Password: "x", Role: models.RoleStaff}
	if err := svc.db.Create(&other).Error; err != nil {
		t.Fatalf("seed other user: %v", err)
	}
	partner := models.Partner{Name: "ACME Events"}
	if err := svc.db.Create(&partner).Error; err != nil {
		t.Fatalf("seed partner: %v", err)
	}

	mine := orderFields("DH-400", user.ID)
	mine["idPartner"] = fmt.Sprintf("%d", partner.ID)
	theirs := orderFields("DH-401", other.ID)
	for _, f := range []map[string]any{mine, theirs} {
		if _, err := svc.Create(ctx, f, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	p := httpx.PageParams{Page: 1, Limit: 10}
	orders, total, err := svc.ListByUser(ctx, user.ID, p)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if total != 1 || orders[0].Code != "DH-400" {
		t.Fatalf("by user = %+v", orders)
	}

	orders, total, err = svc.ListByPartner(ctx, partner.ID, p)
	if err != nil {
		t.Fatalf("list by partner: %v", err)
	}
	if total != 1 || orders[0].Code != "DH-400" {
		t.Fatalf("by partner = %+v", orders)
	}
	if orders[0].PartnerID == nil || *orders[0].PartnerID != partner.ID {
		t.Fatalf("partner reference must flatten to the id: %+v", orders[0])
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := parseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}
