package handlers

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ngoctanz/party-management/internal/apperr"
	"github.com/ngoctanz/party-management/internal/auth"
	"github.com/ngoctanz/party-management/internal/httpx"
	"github.com/ngoctanz/party-management/internal/models"
)

// AuthHandler owns the session endpoints: login, refresh, logout and the
// current-user probe. The refresh token is persisted on the user row so a
// stolen-but-rotated token stops working immediately.
type AuthHandler struct {
	db     *gorm.DB
	jwt    *auth.Manager
	secure bool
}

func NewAuthHandler(db *gorm.DB, jwt *auth.Manager, secure bool) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt, secure: secure}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, user *models.User) (string, string, error) {
	access, err := h.jwt.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err := h.jwt.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	if err := h.db.Model(user).Update("refresh_token", refresh).Error; err != nil {
		return "", "", err
	}
	auth.SetSessionCookies(w, access, refresh, h.jwt.AccessTTL(), h.jwt.RefreshTTL(), h.secure)
	return access, refresh, nil
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeErr(w, apperr.BadRequest("username and password are required"))
		return
	}

	var user models.User
	err := h.db.WithContext(r.Context()).Where("username = ?", req.Username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.Unauthorized("Invalid credentials"))
			return
		}
		writeErr(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		writeErr(w, apperr.Unauthorized("Invalid credentials"))
		return
	}

	access, refresh, err := h.issueSession(w, &user)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "login successful!", map[string]any{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Refresh handles POST /v1/auth/refresh_token. The token is accepted from
// the cookie or the body and must match the one stored on the user row.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(auth.RefreshCookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = decodeJSON(r, &body)
		token = body.RefreshToken
	}
	if token == "" {
		writeErr(w, apperr.Unauthorized("Refresh token not found"))
		return
	}

	claims, err := h.jwt.ParseRefreshToken(token)
	if err != nil {
		writeErr(w, apperr.Unauthorized("Invalid or expired refresh token"))
		return
	}

	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, claims.UserID).Error; err != nil {
		writeErr(w, apperr.Unauthorized("Invalid refresh token"))
		return
	}
	if user.RefreshToken == nil || *user.RefreshToken != token {
		writeErr(w, apperr.Unauthorized("Invalid refresh token"))
		return
	}

	access, refresh, err := h.issueSession(w, &user)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Token refreshed successfully", map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Logout handles POST /v1/auth/logout: drops the stored refresh token and
// expires both cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeErr(w, apperr.Unauthorized("Unauthorized: No or invalid token"))
		return
	}
	err := h.db.WithContext(r.Context()).
		Model(&models.User{}).Where("id = ?", claims.UserID).
		Update("refresh_token", nil).Error
	if err != nil {
		writeErr(w, err)
		return
	}
	auth.ClearSessionCookies(w, h.secure)
	httpx.OK(w, "Logged out successfully", nil)
}

// Me handles GET /v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeErr(w, apperr.Unauthorized("Unauthorized: No or invalid token"))
		return
	}
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErr(w, apperr.NotFound("User not found"))
			return
		}
		writeErr(w, err)
		return
	}
	httpx.OK(w, "Get current user successfully", user)
}
