package reference

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/api/http/apierr"
	"clinicsync/internal/domain/clinic"
)

// Service справочники, загруженные с сервера
type Service interface {
	GetAllNomenclature(ctx context.Context) ([]clinic.NomenclatureItem, error)
	SearchNomenclature(ctx context.Context, query string, limit int) ([]clinic.NomenclatureItem, error)
	GetBranches(ctx context.Context) ([]clinic.Branch, error)
}

type nomenclatureInput struct {
	Query string `query:"q" doc:"Часть названия или кода, без него весь справочник"`
	Limit int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
}

type nomenclatureOutput struct {
	Body []clinic.NomenclatureItem
}

type branchesOutput struct {
	Body []clinic.Branch
}

type Handler struct {
	service    Service
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service Service, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{service: service, log: log, middleware: middleware}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "nomenclature-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/nomenclature",
		Summary:     "Номенклатура",
		Description: "Поиск идет только по активным позициям",
		Tags:        []string{"reference"},
		Middlewares: h.middleware,
	}, h.nomenclature)

	huma.Register(api, huma.Operation{
		OperationID: "branches-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/branches",
		Summary:     "Филиалы",
		Tags:        []string{"reference"},
		Middlewares: h.middleware,
	}, h.branches)
}

func (h *Handler) nomenclature(ctx context.Context, input *nomenclatureInput) (*nomenclatureOutput, error) {
	var (
		items []clinic.NomenclatureItem
		err   error
	)
	if input.Query == "" {
		items, err = h.service.GetAllNomenclature(ctx)
	} else {
		items, err = h.service.SearchNomenclature(ctx, input.Query, input.Limit)
	}
	if err != nil {
		return nil, apierr.From(err)
	}
	return &nomenclatureOutput{Body: items}, nil
}

func (h *Handler) branches(ctx context.Context, _ *struct{}) (*branchesOutput, error) {
	branches, err := h.service.GetBranches(ctx)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &branchesOutput{Body: branches}, nil
}
