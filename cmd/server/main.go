package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ngoctanz/party-management/internal/auth"
	"github.com/ngoctanz/party-management/internal/config"
	"github.com/ngoctanz/party-management/internal/db"
	"github.com/ngoctanz/party-management/internal/media"
	"github.com/ngoctanz/party-management/internal/pdfgen"
	"github.com/ngoctanz/party-management/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if *migrateOnlyFlag {
		log.Println("migrations completed; exiting as requested")
		return
	}

	var store media.Store = media.Disabled{}
	if cfg.CloudinaryURL != "" {
		cloud, err := media.NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			log.Fatalf("cloudinary setup failed: %v", err)
		}
		store = cloud
	} else {
		log.Println("CLOUDINARY_URL not set; media uploads disabled")
	}

	jwtm := auth.NewManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	renderer := pdfgen.NewChromeRenderer()

	handler := server.New(dbConn, cfg, jwtm, store, renderer)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	go func() {
		log.Printf("Server listening on %s env=%s", srv.Addr, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
