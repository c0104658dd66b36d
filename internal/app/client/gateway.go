package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/config"
	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
	"clinicsync/internal/domain/sync"
)

const (
	userAgent = "ClinicSync-Companion/1.0"

	headerAPIKey         = "X-Api-Key"
	headerBranchID       = "X-Branch-Id"
	headerIdempotencyKey = "Idempotency-Key"
)

// Gateway граница с центральным сервером
type Gateway interface {
	Push(ctx context.Context, op *operation.Operation) (int64, error)
	PullNomenclature(ctx context.Context) ([]clinic.NomenclatureItem, error)
	PullBranches(ctx context.Context) ([]clinic.Branch, error)
	Ping(ctx context.Context) error
}

// CredentialsProvider источник текущих учетных данных; читается при каждом запросе
type CredentialsProvider interface {
	Current() sync.Credentials
}

// RemoteGateway HTTP-клиент центрального сервера
type RemoteGateway struct {
	client *resty.Client
	// probe без повторов: проверка связи должна отвечать быстро
	probe *resty.Client
	creds CredentialsProvider
	log   *slog.Logger
}

type pushResponse struct {
	ID int64 `json:"id"`
}

func NewRemoteGateway(cfg config.SyncConfig, creds CredentialsProvider, log *slog.Logger) *RemoteGateway {
	client := resty.New().
		SetTimeout(cfg.RequestTimeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		AddRetryCondition(retryable).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	probe := resty.New().
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", userAgent)

	return &RemoteGateway{
		client: client,
		probe:  probe,
		creds:  creds,
		log:    log.With(slog.String("component", "gateway")),
	}
}

// retryable повторяет сбои транспорта, 5xx и 429, но не отмененные запросы
func retryable(resp *resty.Response, err error) bool {
	if resp != nil && resp.Request != nil && resp.Request.Context().Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (g *RemoteGateway) credentials(op string) (sync.Credentials, error) {
	creds := g.creds.Current()
	if !creds.IsConfigured() {
		return creds, &sync.AuthError{Op: op, Message: "server url or api key is empty", Err: sync.ErrNotConfigured}
	}
	return creds, nil
}

func (g *RemoteGateway) request(ctx context.Context, c *resty.Client, creds sync.Credentials) *resty.Request {
	req := c.R().
		SetContext(ctx).
		SetHeader(headerAPIKey, creds.APIKey)
	if creds.BranchID > 0 {
		req.SetHeader(headerBranchID, strconv.FormatInt(creds.BranchID, 10))
	}
	return req
}

// Push отправляет операцию. Ключ идемпотентности равен id операции, поэтому повтор после
// потерянного ответа возвращает тот же канонический id.
func (g *RemoteGateway) Push(ctx context.Context, op *operation.Operation) (int64, error) {
	name := "push " + op.EntityType.String()
	creds, err := g.credentials(name)
	if err != nil {
		return 0, err
	}
	body, err := operation.Encode(op.Payload)
	if err != nil {
		return 0, err
	}

	url := creds.ServerURL + "/api/v1/sync/" + op.EntityType.String() + "s"
	method := resty.MethodPost
	if op.Kind == operation.KindUpdate {
		url += "/" + strconv.FormatInt(op.EntityID, 10)
		method = resty.MethodPut
	}

	resp, err := g.request(ctx, g.client, creds).
		SetHeader("Content-Type", "application/json").
		SetHeader(headerIdempotencyKey, op.ID).
		SetBody(body).
		Execute(method, url)
	if err := classify(name, resp, err); err != nil {
		return 0, err
	}

	var out pushResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil || out.ID <= 0 {
		return 0, &sync.ApplicationError{
			Op:         name,
			StatusCode: resp.StatusCode(),
			Message:    "response without canonical id",
		}
	}

	g.log.Debug("operation accepted",
		slog.String("operation_id", op.ID),
		slog.Int64("canonical_id", out.ID),
		slog.Int("attempts", resp.Request.Attempt))
	return out.ID, nil
}

// PullNomenclature загружает справочник номенклатуры целиком
func (g *RemoteGateway) PullNomenclature(ctx context.Context) ([]clinic.NomenclatureItem, error) {
	var items []clinic.NomenclatureItem
	if err := g.pull(ctx, "pull nomenclature", "/api/v1/sync/nomenclature", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// PullBranches загружает список филиалов
func (g *RemoteGateway) PullBranches(ctx context.Context) ([]clinic.Branch, error) {
	var branches []clinic.Branch
	if err := g.pull(ctx, "pull branches", "/api/v1/sync/branches", &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// FetchBranches запрашивает филиалы с еще не сохраненными учетными данными (мастер настройки)
func (g *RemoteGateway) FetchBranches(ctx context.Context, serverURL, apiKey string) ([]clinic.Branch, error) {
	creds := sync.Credentials{ServerURL: normalizeServerURL(serverURL), APIKey: apiKey}
	if !creds.IsConfigured() {
		return nil, &sync.AuthError{Op: "fetch branches", Message: "server url or api key is empty", Err: sync.ErrNotConfigured}
	}
	var branches []clinic.Branch
	if err := g.get(ctx, creds, "fetch branches", "/api/v1/sync/branches", &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// Ping однократно проверяет доступность сервера
func (g *RemoteGateway) Ping(ctx context.Context) error {
	creds, err := g.credentials("ping")
	if err != nil {
		return err
	}
	resp, err := g.request(ctx, g.probe, creds).Get(creds.ServerURL + "/api/v1/health")
	return classify("ping", resp, err)
}

func (g *RemoteGateway) pull(ctx context.Context, name, path string, out any) error {
	creds, err := g.credentials(name)
	if err != nil {
		return err
	}
	return g.get(ctx, creds, name, path, out)
}

func (g *RemoteGateway) get(ctx context.Context, creds sync.Credentials, name, path string, out any) error {
	resp, err := g.request(ctx, g.client, creds).Get(creds.ServerURL + path)
	if err := classify(name, resp, err); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &sync.ApplicationError{
			Op:         name,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("invalid response: %v", err),
		}
	}
	return nil
}

// classify переводит результат запроса в таксономию ошибок синхронизации
func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &sync.ConnectivityError{Op: op, Err: err}
	}
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &sync.AuthError{Op: op, StatusCode: code, Message: errorMessage(resp)}
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return &sync.ConnectivityError{Op: op, Err: fmt.Errorf("server returned %d: %s", code, errorMessage(resp))}
	default:
		return &sync.ApplicationError{Op: op, StatusCode: code, Message: errorMessage(resp)}
	}
}

// errorMessage достает текст ошибки из тела ответа
func errorMessage(resp *resty.Response) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		for _, msg := range []string{body.Detail, body.Message, body.Error} {
			if msg != "" {
				return msg
			}
		}
	}
	msg := strings.TrimSpace(string(resp.Body()))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return msg
}
