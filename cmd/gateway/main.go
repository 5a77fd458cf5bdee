package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/mindprobe/mindprobe-api/internal/api/http"
	"github.com/mindprobe/mindprobe-api/internal/assessment"
	auth "github.com/mindprobe/mindprobe-api/internal/auth/middleware"
	"github.com/mindprobe/mindprobe-api/internal/config"
	"github.com/mindprobe/mindprobe-api/internal/db"
	"github.com/mindprobe/mindprobe-api/internal/rbac"
	"github.com/mindprobe/mindprobe-api/internal/scoring"
	syncx "github.com/mindprobe/mindprobe-api/internal/sync"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	engine := scoring.NewDefaultEngine()
	store := assessment.NewSQLStore(dbh, cfg.DBDriver, engine, syncx.NewEventRepo(dbh))

	authSvc := auth.NewAuthService(cfg.AuthSecret)
	if err := auth.EnsureAdmin(dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsDev
	if cfg.Mode == config.ModeProd {
		origins = cfg.CORSOriginsProd
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/register", auth.RegisterHandler(dbh, authSvc))
	r.Post("/auth/login", auth.LoginHandler(dbh, authSvc))

	// Public catalog: definitions are served taker-safe (no scoring config).
	r.Get("/categories", api.ListCategoriesHandler(store))
	r.Get("/categories/{categoryID}", api.GetCategoryHandler(store))
	r.Get("/tests", api.ListTestsHandler(store))
	r.Get("/tests/{testID}", api.GetTestHandler(store))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode != config.ModeProd))

		pr.Get("/auth/me", auth.MeHandler(dbh))

		// Taker flow
		pr.With(rbac.Require("attempt:start")).
			Post("/tests/{testID}/start", api.StartAttemptHandler(store))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAnswersHandler(store))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(store))
		pr.With(rbac.Require("attempt:view-own")).
			Get("/my-results", api.MyResultsHandler(store))

		// Admin authoring
		pr.With(rbac.Require("test:manage")).
			Post("/tests", api.CreateTestHandler(store))
		pr.With(rbac.Require("test:manage")).
			Get("/admin/tests/{testID}", api.GetTestAdminHandler(store))
		pr.With(rbac.Require("test:manage")).
			Put("/tests/{testID}", api.UpdateTestHandler(store))
		pr.With(rbac.Require("test:manage")).
			Delete("/tests/{testID}", api.DeleteTestHandler(store))

		pr.With(rbac.Require("category:manage")).
			Post("/categories", api.CreateCategoryHandler(store))
		pr.With(rbac.Require("category:manage")).
			Put("/categories/{categoryID}", api.UpdateCategoryHandler(store))
		pr.With(rbac.Require("category:manage")).
			Delete("/categories/{categoryID}", api.DeleteCategoryHandler(store))

		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
