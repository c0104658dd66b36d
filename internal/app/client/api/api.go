// Локальный HTTP API компаньона для интерфейса клиники.
//
//GET  /api/v1/health                       # Состояние компаньона
//GET  /api/v1/sync/status                  # Статус синхронизации
//GET  /api/v1/sync/events                  # Поток статусов (WebSocket)
//POST /api/v1/sync                         # Синхронизировать сейчас
//GET  /api/v1/sync/operations              # Журнал неотправленных операций
//POST /api/v1/sync/operations/{id}/retry   # Повторить отклоненную операцию
//PUT  /api/v1/sync/offline                 # Офлайн-режим
//POST /api/v1/clients ...                  # Клиенты, пациенты, приемы, счета
//GET  /api/v1/nomenclature, /api/v1/branches
//GET  /api/v1/settings ...                 # Учетные данные и филиал

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	clinicAPI "clinicsync/internal/app/client/api/http/clinic"
	healthAPI "clinicsync/internal/app/client/api/http/health"
	"clinicsync/internal/app/client/api/http/middleware"
	"clinicsync/internal/app/client/api/http/middleware/logger"
	"clinicsync/internal/app/client/api/http/middleware/loopback"
	referenceAPI "clinicsync/internal/app/client/api/http/reference"
	settingsAPI "clinicsync/internal/app/client/api/http/settings"
	syncAPI "clinicsync/internal/app/client/api/http/sync"
)

// Service все, что локальный API использует из движка
type Service interface {
	syncAPI.Service
	clinicAPI.Service
	referenceAPI.Service
	settingsAPI.Service
}

type Handlers struct {
	Health    *healthAPI.Handler
	Sync      *syncAPI.Handler
	Clinic    *clinicAPI.Handler
	Reference *referenceAPI.Handler
	Settings  *settingsAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(service Service, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("ClinicSync Companion API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(API, service, log)
	h.Health.SetupRoutes(API)
	h.Sync.SetupRoutes(API)
	h.Clinic.SetupRoutes(API)
	h.Reference.SetupRoutes(API)
	h.Settings.SetupRoutes(API)

	mux.Get(syncAPI.EventsPath, h.Sync.Events)

	return mux
}

func handlers(api huma.API, service Service, log *slog.Logger) *Handlers {
	middlewares := middleware.NewContainer(logger.New(log).Middleware())
	localOnly := loopback.New(api, log).Middleware()

	return &Handlers{
		Health:    healthAPI.NewHandler(service, log, middlewares.Chain()),
		Sync:      syncAPI.NewHandler(service, log, middlewares.Chain(localOnly)),
		Clinic:    clinicAPI.NewHandler(service, log, middlewares.Chain(localOnly)),
		Reference: referenceAPI.NewHandler(service, log, middlewares.Chain(localOnly)),
		Settings:  settingsAPI.NewHandler(service, log, middlewares.Chain(localOnly)),
	}
}
