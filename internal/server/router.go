// Package server wires handlers, middleware and routes into one http.Handler.
package server

import (
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ngoctanz/party-management/internal/auth"
	"github.com/ngoctanz/party-management/internal/config"
	"github.com/ngoctanz/party-management/internal/handlers"
	"github.com/ngoctanz/party-management/internal/httpx"
	"github.com/ngoctanz/party-management/internal/media"
	"github.com/ngoctanz/party-management/internal/models"
	"github.com/ngoctanz/party-management/internal/pdfgen"
	"github.com/ngoctanz/party-management/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config, jwtm *auth.Manager, store media.Store, renderer pdfgen.Renderer) http.Handler {
	mux := http.NewServeMux()

	orderSvc := services.NewOrderService(db, store, cfg.MediaFolder)

	authHandler := handlers.NewAuthHandler(db, jwtm, cfg.Production())
	userHandler := handlers.NewUserHandler(db)
	orderHandler := handlers.NewOrderHandler(orderSvc)
	pdfHandler := handlers.NewPDFHandler(orderSvc, renderer)
	foodHandler := handlers.NewFoodHandler(db)
	partnerHandler := handlers.NewLookupHandler[models.Partner](db, "Partner")
	typeOrderHandler := handlers.NewLookupHandler[models.TypeOrder](db, "Type order")
	unitHandler := handlers.NewLookupHandler[models.Unit](db, "Unit")

	// Brute-force protection mirrors the limits the frontend was built
	// against: tight on login and registration, loose on general auth traffic.
	authLimiter := auth.NewIPLimiter(15*time.Minute, 100, "Too many requests, please try again later")
	loginLimiter := auth.NewIPLimiter(15*time.Minute, 5, "Too many login attempts, please try again later")
	refreshLimiter := auth.NewIPLimiter(10*time.Minute, 20, "Too many refresh attempts, please try again later")
	registerLimiter := auth.NewIPLimiter(time.Hour, 3, "Too many accounts created, please try again later")

	protect := func(h http.HandlerFunc) http.Handler {
		return jwtm.RequireAuth(h)
	}
	staffOnly := func(h http.HandlerFunc) http.Handler {
		return jwtm.RequireAuth(auth.RequireRole(models.RoleAdmin, models.RoleStaff)(h))
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return jwtm.RequireAuth(auth.RequireRole(models.RoleAdmin)(h))
	}

	// --- v1 ---
	mux.HandleFunc("GET /v1/status", func(w http.ResponseWriter, _ *http.Request) {
		httpx.OK(w, "APIs V1 ready to use!", nil)
	})

	mux.Handle("POST /v1/auth/login", authLimiter.Middleware(loginLimiter.Middleware(http.HandlerFunc(authHandler.Login))))
	mux.Handle("POST /v1/auth/refresh_token", authLimiter.Middleware(refreshLimiter.Middleware(http.HandlerFunc(authHandler.Refresh))))
	mux.Handle("GET /v1/auth/me", authLimiter.Middleware(protect(authHandler.Me)))
	mux.Handle("POST /v1/auth/logout", authLimiter.Middleware(protect(authHandler.Logout)))

	mux.Handle("GET /v1/user", adminOnly(userHandler.List))
	mux.Handle("POST /v1/user", registerLimiter.Middleware(http.HandlerFunc(userHandler.Create)))
	mux.HandleFunc("GET /v1/user/search", userHandler.Search)
	mux.HandleFunc("GET /v1/user/{id}", userHandler.Get)
	mux.HandleFunc("PATCH /v1/user/update/{id}", userHandler.Update)

	mux.Handle("GET /v1/order", protect(orderHandler.List))
	mux.Handle("POST /v1/order", staffOnly(orderHandler.Create))
	mux.Handle("GET /v1/order/search", protect(orderHandler.Search))
	mux.Handle("GET /v1/order/{id}", protect(orderHandler.Get))
	mux.Handle("PUT /v1/order/{id}", staffOnly(orderHandler.Update))
	mux.Handle("DELETE /v1/order/{id}", staffOnly(orderHandler.Delete))
	mux.Handle("PATCH /v1/order/{id}/hide", staffOnly(orderHandler.Hide))
	mux.Handle("GET /v1/order/user/{userId}", staffOnly(orderHandler.ListByUser))
	mux.Handle("GET /v1/order/partner/{partnerId}", protect(orderHandler.ListByPartner))

	registerLookup(mux, "/v1/partner", partnerHandler, protect)
	registerLookup(mux, "/v1/type-order", typeOrderHandler, protect)
	registerLookup(mux, "/v1/unit", unitHandler, protect)

	mux.Handle("POST /v1/pdf/generate", protect(pdfHandler.Generate))
	mux.Handle("POST /v1/pdf/preview", protect(pdfHandler.Preview))
	mux.Handle("GET /v1/pdf/invoice/{orderId}", protect(pdfHandler.Invoice))
	mux.Handle("GET /v1/pdf/preview/{orderId}", protect(pdfHandler.InvoicePreview))

	mux.HandleFunc("/v1/init-admin", initAdmin(db))
	mux.HandleFunc("/v1/clear-database", clearDatabase(db, cfg))

	// --- v2 ---
	mux.HandleFunc("GET /v2/status", func(w http.ResponseWriter, _ *http.Request) {
		httpx.OK(w, "APIs V2 ready to use!", nil)
	})
	mux.Handle("GET /v2/food", protect(foodHandler.List))
	mux.Handle("POST /v2/food", protect(foodHandler.Create))
	mux.Handle("GET /v2/food/{id}", protect(foodHandler.Get))
	mux.Handle("PUT /v2/food/{id}", protect(foodHandler.Update))
	mux.Handle("DELETE /v2/food/{id}", protect(foodHandler.Delete))
	mux.Handle("PATCH /v2/food/{id}/hide", protect(foodHandler.Hide))

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "Route not found")
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(withRecover(withLogging(mux)))
}

// registerLookup mounts the shared CRUD surface of a reference table.
func registerLookup[T interface {
	models.Partner | models.TypeOrder | models.Unit
}](mux *http.ServeMux, prefix string, h *handlers.LookupHandler[T], protect func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET "+prefix, protect(h.List))
	mux.Handle("POST "+prefix, protect(h.Create))
	mux.Handle("GET "+prefix+"/{id}", protect(h.Get))
	mux.Handle("PATCH "+prefix+"/update/{id}", protect(h.Update))
	mux.Handle("DELETE "+prefix+"/hide/{id}", protect(h.Hide))
	mux.Handle("DELETE "+prefix+"/{id}", protect(h.Delete))
}

// initAdmin bootstraps the first admin account with a well-known password
// the operator is expected to change immediately.
func initAdmin(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var count int64
		if err := db.WithContext(r.Context()).Model(&models.User{}).
			Where("username = ?", "admin").Count(&count).Error; err != nil {
			httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if count > 0 {
			httpx.OK(w, "Admin user already exists!", nil)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte("Admin@123"), bcrypt.DefaultCost)
		if err != nil {
			httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		user := models.User{Username: "admin", Password: string(hash), Role: models.RoleAdmin}
		if err := db.WithContext(r.Context()).Create(&user).Error; err != nil {
			httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		httpx.Created(w, "Admin user created!", nil)
	}
}

// clearDatabase wipes users and orders. Development escape hatch only;
// refused outright in production.
func clearDatabase(db *gorm.DB, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Production() {
			httpx.Fail(w, http.StatusForbidden, "Forbidden: You do not have permission")
			return
		}
		err := db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
			for _, m := range []any{&models.OrderFood{}, &models.OrderMedia{}, &models.Order{}, &models.User{}} {
				if err := tx.Unscoped().Where("1 = 1").Delete(m).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		httpx.OK(w, "Database cleared!", nil)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
