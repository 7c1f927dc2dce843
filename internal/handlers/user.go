package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ngoctanz/party-management/internal/apperr"
	"github.com/ngoctanz/party-management/internal/httpx"
	"github.com/ngoctanz/party-management/internal/models"
	"github.com/ngoctanz/party-management/internal/validation"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create handles POST /v1/user. Open registration; the role defaults to
// staff and must be one of the known roles when given.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	v := validation.Violations{}
	validation.Required("username", req.Username, v)
	validation.MinLen("username", req.Username, 4, v)
	validation.MaxLen("username", req.Username, 20, v)
	validation.Password("password", req.Password, v)
	if req.Role == "" {
		req.Role = models.RoleStaff
	}
	if !models.ValidRole(req.Role) {
		v.Add("role", "unknown_role")
	}
	if !v.Empty() {
		writeErr(w, apperr.BadRequest(v.Join()))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeErr(w, err)
		return
	}
	user := models.User{Username: req.Username, Password: string(hash), Role: req.Role}
	if err := h.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeErr(w, apperr.Conflict("username already exists"))
			return
		}
		writeErr(w, err)
		return
	}
	httpx.Created(w, "User created successfully!", user)
}

// List handles GET /v1/user (admin only, enforced by the router).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.db.WithContext(r.Context()).Order("created_at DESC").Find(&users).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Get users successfully", users)
}

// Search handles GET /v1/user/search?name= with a case-insensitive substring
// match on the username.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	var users []models.User
	q := h.db.WithContext(r.Context())
	if name != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if err := q.Order("username ASC").Find(&users).Error; err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Get user details successfully", users)
}

// Get handles GET /v1/user/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound("User not found"))
			return
		}
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Get user details successfully", user)
}

// Update handles PATCH /v1/user/update/{id}. The password, role, refresh
// token and delete markers can never be changed through this endpoint.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, err)
		return
	}
	for _, protected := range []string{"password", "role", "refresh_token", "isDeleted", "deletedAt"} {
		delete(body, protected)
	}

	cols := map[string]any{}
	if raw, ok := body["username"]; ok {
		name, _ := raw.(string)
		name = strings.TrimSpace(name)
		v := validation.Violations{}
		validation.Required("username", name, v)
		validation.MinLen("username", name, 4, v)
		validation.MaxLen("username", name, 20, v)
		if !v.Empty() {
			writeErr(w, apperr.BadRequest(v.Join()))
			return
		}
		cols["username"] = name
	}
	if len(cols) == 0 {
		writeErr(w, apperr.BadRequest("nothing to update"))
		return
	}

	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound("User not found"))
			return
		}
		writeErr(w, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Model(&user).Updates(cols).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeErr(w, apperr.Conflict("username already exists"))
			return
		}
		writeErr(w, err)
		return
	}
	httpx.OK(w, "update user is successful!", user)
}
