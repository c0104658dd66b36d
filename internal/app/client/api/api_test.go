package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client"
	"clinicsync/internal/app/client/api"
	syncAPI "clinicsync/internal/app/client/api/http/sync"
	"clinicsync/internal/app/client/config"
	"clinicsync/internal/domain/clinic"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Env:        "local",
		DataDir:    dir,
		DBPath:     filepath.Join(dir, "clinic.db"),
		SecretPath: filepath.Join(dir, "secret.key"),
		Sync:       config.DefaultSync(),
	}
	cfg.Sync.AutoSyncOnWrite = false

	ctx := context.Background()
	app, err := client.New(ctx, cfg, log)
	require.NoError(t, err)
	require.NoError(t, app.Init(ctx))

	srv := httptest.NewServer(api.New(app, log))
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, headers map[string]string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestAPI_ClientLifecycle(t *testing.T) {
	srv := newTestServer(t)
	ivanov := map[string]any{"full_name": "Иванов Иван", "phone": "+79991234567"}
	key := map[string]string{"Idempotency-Key": "ui-req-1"}

	code, body := do(t, srv, http.MethodPost, "/api/v1/clients", ivanov, key)
	require.Equal(t, http.StatusCreated, code, string(body))
	var created clinic.Client
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, int64(-1), created.ID)
	assert.Equal(t, clinic.SyncLocalOnly, created.SyncState)

	// повтор того же запроса не создает второго клиента
	code, body = do(t, srv, http.MethodPost, "/api/v1/clients", ivanov, key)
	require.Equal(t, http.StatusCreated, code)
	var again clinic.Client
	require.NoError(t, json.Unmarshal(body, &again))
	assert.Equal(t, created.ID, again.ID)

	code, body = do(t, srv, http.MethodGet, "/api/v1/clients?"+url.Values{"q": {"иванов"}}.Encode(), nil, nil)
	require.Equal(t, http.StatusOK, code)
	var found []clinic.Client
	require.NoError(t, json.Unmarshal(body, &found))
	require.Len(t, found, 1)

	code, body = do(t, srv, http.MethodPost, "/api/v1/patients", map[string]any{
		"name": "Барсик", "species": "кот", "gender": "male", "client_id": created.ID,
	}, nil)
	require.Equal(t, http.StatusCreated, code, string(body))

	code, body = do(t, srv, http.MethodGet, "/api/v1/clients/-1/patients", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var patients []clinic.Patient
	require.NoError(t, json.Unmarshal(body, &patients))
	require.Len(t, patients, 1)
	assert.Equal(t, "Барсик", patients[0].Name)

	code, body = do(t, srv, http.MethodGet, "/api/v1/sync/status", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, float64(2), status["pending_count"])
	assert.Equal(t, "idle", status["phase"])

	code, body = do(t, srv, http.MethodGet, "/api/v1/sync/operations", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var ops []map[string]any
	require.NoError(t, json.Unmarshal(body, &ops))
	require.Len(t, ops, 2)
	assert.Equal(t, "ui-req-1", ops[0]["operation_id"])
	assert.Equal(t, "Иванов Иван", ops[0]["payload"].(map[string]any)["full_name"])
	assert.Equal(t, []any{"ui-req-1"}, ops[1]["depends_on"])
}

func TestAPI_ErrorMapping(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, http.MethodGet, "/api/v1/clients/42", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/patients", map[string]any{
		"name": "Барсик", "species": "кот", "client_id": -999,
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/clients", map[string]any{"full_name": "Иванов Иван", "phone": "+7"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/sync/operations/unknown/retry", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// без учетных данных цикл завершается ошибкой авторизации
	code, body := do(t, srv, http.MethodPost, "/api/v1/sync", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var result map[string]any
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["error"], "server url or api key is empty")
}

func TestAPI_WorkOffline(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, http.MethodPut, "/api/v1/sync/offline", map[string]any{"offline": true}, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/sync", nil, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestAPI_Settings(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/api/v1/settings", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"configured":false`)

	code, body = do(t, srv, http.MethodPut, "/api/v1/settings/credentials", map[string]any{
		"server_url": "https://central.example.com/",
		"api_key":    "sk_live_abcdef123456",
	}, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var settings map[string]any
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, "https://central.example.com", settings["server_url"])
	assert.Equal(t, true, settings["configured"])
	assert.NotContains(t, string(body), "sk_live_abcdef123456")

	code, _ = do(t, srv, http.MethodPut, "/api/v1/settings/branch", map[string]any{"branch_id": 3, "branch_name": "Северный"}, nil)
	require.Equal(t, http.StatusOK, code)
}

func TestAPI_StatusEvents(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + syncAPI.EventsPath
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var event syncAPI.Event
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, "sync_status", event.Type)
	assert.Equal(t, 0, event.Status.PendingCount)

	code, _ := do(t, srv, http.MethodPost, "/api/v1/clients", map[string]any{"full_name": "Иванов Иван", "phone": "+79991234567"}, nil)
	require.Equal(t, http.StatusCreated, code)

	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, 1, event.Status.PendingCount)
}
