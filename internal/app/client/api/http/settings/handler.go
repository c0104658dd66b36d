package settings

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/api/http/apierr"
	"clinicsync/internal/app/client/crypto"
	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/sync"
)

// Service настройки подключения к центральному серверу
type Service interface {
	Credentials() sync.Credentials
	UpdateCredentials(ctx context.Context, serverURL, apiKey string) error
	UpdateBranch(ctx context.Context, branchID int64, branchName string) error
	FetchBranches(ctx context.Context, serverURL, apiKey string) ([]clinic.Branch, error)
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
		OperationID: "settings-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Текущие настройки подключения",
		Tags:        []string{"settings"},
		Middlewares: h.middleware,
	}, h.get)

	huma.Register(api, huma.Operation{
		OperationID: "settings-update-credentials",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/credentials",
		Summary:     "Сохранить адрес сервера и API-ключ",
		Description: "Действуют со следующего запроса к серверу; ключ хранится зашифрованным",
		Tags:        []string{"settings"},
		Middlewares: h.middleware,
	}, h.updateCredentials)

	huma.Register(api, huma.Operation{
		OperationID: "settings-update-branch",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/branch",
		Summary:     "Выбрать филиал",
		Tags:        []string{"settings"},
		Middlewares: h.middleware,
	}, h.updateBranch)

	huma.Register(api, huma.Operation{
		OperationID: "settings-lookup-branches",
		Method:      http.MethodPost,
		Path:        "/api/v1/settings/branches",
		Summary:     "Филиалы сервера для мастера настройки",
		Description: "Запрашивает филиалы с переданными, еще не сохраненными учетными данными",
		Tags:        []string{"settings"},
		Middlewares: h.middleware,
	}, h.lookupBranches)
}

func (h *Handler) current() settingsResponse {
	creds := h.service.Credentials()
	resp := settingsResponse{
		ServerURL:  creds.ServerURL,
		BranchID:   creds.BranchID,
		BranchName: creds.BranchName,
		Configured: creds.IsConfigured(),
	}
	if creds.APIKey != "" {
		resp.APIKeyMasked = crypto.MaskSensitiveData(creds.APIKey)
	}
	return resp
}

func (h *Handler) get(_ context.Context, _ *struct{}) (*settingsOutput, error) {
	return &settingsOutput{Body: h.current()}, nil
}

func (h *Handler) updateCredentials(ctx context.Context, input *credentialsInput) (*settingsOutput, error) {
	if err := h.service.UpdateCredentials(ctx, input.Body.ServerURL, input.Body.APIKey); err != nil {
		return nil, apierr.From(err)
	}
	return &settingsOutput{Body: h.current()}, nil
}

func (h *Handler) updateBranch(ctx context.Context, input *branchInput) (*settingsOutput, error) {
	if err := h.service.UpdateBranch(ctx, input.Body.BranchID, input.Body.BranchName); err != nil {
		return nil, apierr.From(err)
	}
	return &settingsOutput{Body: h.current()}, nil
}

func (h *Handler) lookupBranches(ctx context.Context, input *credentialsInput) (*branchesOutput, error) {
	branches, err := h.service.FetchBranches(ctx, input.Body.ServerURL, input.Body.APIKey)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &branchesOutput{Body: branches}, nil
}
