package main

import (
	"context"
	"log/slog"
	"net/http"
	"print-calc/http-server/calculation/calculate"
	getmaterials "print-calc/http-server/materials/get"
	"print-calc/http-server/order/plan"
	"print-calc/http-server/order/steps"
	savequote "print-calc/http-server/quote/save"
	gettemplate "print-calc/http-server/template/get"
	savetemplate "print-calc/http-server/template/save"
	"print-calc/internal/config"
	"print-calc/internal/middleware/auth"
	"print-calc/internal/service/calculation"
	"print-calc/internal/service/export"
	"print-calc/internal/service/planner"
	"print-calc/internal/storage/mysql"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func routes(cfg config.Config, log *slog.Logger, storage *mysql.Storage, engine *calculation.Engine, scheduler *planner.Planner, exporter *export.Service) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins, // фронтенд
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	//ip пользователя
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", health(log, storage))

	// шаблоны продукции
	router.Get("/api/templates", gettemplate.GetAllTemplates(log, storage))
	router.Get("/api/templates/{id}", gettemplate.GetTemplate(log, storage))

	//Материалы для замены в расчёте
	router.Get("/api/materials", getmaterials.GetMaterials(log, storage))

	// расчёт и выгрузка в Excel
	router.Post("/api/calculations", calculate.Calculate(log, storage, engine))
	router.Post("/api/calculations/export", calculate.Export(log, storage, engine, exporter))

	router.Post("/api/quotes", savequote.SaveQuote(log, storage, engine))

	// планирование производства
	router.Post("/api/orders/{id}/plan", plan.PlanOrder(log, storage, scheduler))
	router.Get("/api/orders/{id}/steps", steps.GetSteps(log, storage))

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(auth.DefaultRealm, cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Get("/templates/{id}", gettemplate.GetTemplate(log, storage))
	adminRouter.Post("/templates", savetemplate.SaveTemplateAdmin(log, storage))

	router.Mount("/api/admin", adminRouter)

	return router
}

func health(log *slog.Logger, storage *mysql.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := storage.Ping(ctx); err != nil {
			log.Error("db ping failed", slog.String("op", "handlers.health"), slog.String("error", err.Error()))
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
