package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ngoctanz/party-management/internal/models"
)

func TestUserCreate(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)

	req := httptest.NewRequest(http.MethodPost, "/v1/user", strings.NewReader(`{"username":"chef01","password":"Kitchen9","role":"kitchen"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("code = %d body = %s", w.Code, w.Body.String())
	}
	var saved models.User
	if err := conn.Where("username = ?", "chef01").First(&saved).Error; err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if saved.Role != models.RoleKitchen {
		t.Fatalf("role = %q, want kitchen", saved.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(saved.Password), []byte("Kitchen9")) != nil {
		t.Fatal("password must be stored as a bcrypt hash of the input")
	}
	if strings.Contains(w.Body.String(), "Kitchen9") || strings.Contains(w.Body.String(), saved.Password) {
		t.Fatal("password material must never appear in a response")
	}
}

func TestUserCreatePasswordPolicy(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)

	for _, password := range []string{"short", "digitsonly1234", "lettersonly", "has space 12"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/user", strings.NewReader(`{"username":"someone","password":"`+password+`"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.Create(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("password %q: code = %d, want 400", password, w.Code)
		}
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)

	body := `{"username":"repeat1","password":"Abcdef1"}`
	for i, wantCode := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/v1/user", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.Create(w, req)
		if w.Code != wantCode {
			t.Fatalf("attempt %d: code = %d, want %d (body %s)", i, w.Code, wantCode, w.Body.String())
		}
	}
}

func TestUserUpdateStripsProtectedFields(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)

	user := models.User{Username: "victim", Password: "hash", Role: models.RoleStaff}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/v1/user/update/1",
		strings.NewReader(`{"username":"renamed","role":"admin","password":"pwned!1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	h.Update(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", w.Code, w.Body.String())
	}

	var saved models.User
	if err := conn.First(&saved, user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if saved.Username != "renamed" {
		t.Fatalf("username = %q, want renamed", saved.Username)
	}
	if saved.Role != models.RoleStaff || saved.Password != "hash" {
		t.Fatalf("protected fields changed: role=%q password=%q", saved.Role, saved.Password)
	}
}

func TestUserSearch(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)
	for _, name := range []string{"annette", "bob", "anton"} {
		if err := conn.Create(&models.User{Username: name, Password: "x", Role: models.RoleStaff}).Error; err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/user/search?name=AN", nil)
	w := httptest.NewRecorder()
	h.Search(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	body := envelope(t, w)
	data, _ := body["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("matches = %d, want annette and anton", len(data))
	}
}
