package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"lootlook/broadcast"
	"lootlook/config"
	"lootlook/database"
	"lootlook/handlers"
	"lootlook/middleware"
	"lootlook/repository"
	"lootlook/scheduler"
	"lootlook/scraper"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize database
	if err := database.InitDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Create tables
	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	itemRepo := repository.NewItemRepository()
	priceRepo := repository.NewPriceRepository()

	// Initialize scraper and websocket hub
	sc := scraper.New(cfg)
	hub := broadcast.NewHub()

	// Initialize handlers
	h := handlers.NewHandlers(userRepo, itemRepo, priceRepo, sc, hub, cfg.JWTSecret)

	// Initialize and start the scheduled price checker
	priceChecker := scheduler.NewPriceChecker(sc, hub, cfg.MaxConcurrentScrapes)
	priceChecker.Start()
	defer priceChecker.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(10))

	// Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/api/register", h.Register).Methods("POST")
	r.HandleFunc("/api/login", h.Login).Methods("POST")

	// Authenticated routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	api.HandleFunc("/users", h.ListUsers).Methods("GET")
	api.HandleFunc("/items", h.AddItem).Methods("POST")
	api.HandleFunc("/items", h.GetItems).Methods("GET")
	api.HandleFunc("/items/deleted", h.GetDeletedItems).Methods("GET")
	api.HandleFunc("/items/export", h.ExportCSV).Methods("GET")
	api.HandleFunc("/items/share", h.ShareItem).Methods("POST")
	api.HandleFunc("/items/unshare", h.UnshareItem).Methods("POST")
	api.HandleFunc("/items/{id}", h.UpdateItem).Methods("PUT")
	api.HandleFunc("/items/{id}", h.DeleteItem).Methods("DELETE")
	api.HandleFunc("/items/{id}/restore", h.RestoreItem).Methods("POST")
	api.HandleFunc("/items/{id}/refresh", h.RefreshItem).Methods("POST")
	api.HandleFunc("/items/{id}/history", h.GetPriceHistory).Methods("GET")
	api.HandleFunc("/ws", hub.HandleWS).Methods("GET")

	// Saved screenshots are served as static files
	r.PathPrefix("/screenshots/").Handler(
		http.StripPrefix("/screenshots/", http.FileServer(http.Dir(cfg.ScreenshotDir))))

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, c.Handler(r)))
}
