package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	gosync "sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/config"
	"clinicsync/internal/app/client/crypto"
	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/infrastructure/storage/sqlite"
)

const testAPIKey = "sk_live_test_key_0001"

// pushRecord запрос на отправку, полученный тестовым сервером
type pushRecord struct {
	Method string
	Entity string
	Key    string
	Body   map[string]any
}

// fakeCentral тестовый центральный сервер
type fakeCentral struct {
	srv *httptest.Server

	mu           gosync.Mutex
	apiKey       string
	nextID       int64
	byKey        map[string]int64
	pushes       []pushRecord
	pulls        int
	dropAcks     int
	reject       func(entity string, body map[string]any) (int, string)
	nomenclature []clinic.NomenclatureItem
	branches     []clinic.Branch

	// pullEntered и pullGate приостанавливают загрузку номенклатуры
	pullEntered chan struct{}
	pullGate    chan struct{}
	// pushEntered и pushGate приостанавливают первую отправку
	pushEntered chan struct{}
	pushGate    chan struct{}
}

func newFakeCentral(t *testing.T) *fakeCentral {
	t.Helper()
	f := &fakeCentral{
		apiKey: testAPIKey,
		nextID: 100,
		byKey:  make(map[string]int64),
		nomenclature: []clinic.NomenclatureItem{
			{ID: 7, Name: "Первичный прием", Price: 1500, IsActive: true},
			{ID: 8, Name: "Вакцинация", Price: 900.5, IsActive: true},
		},
		branches: []clinic.Branch{{ID: 1, Name: "Центральный"}},
	}

	r := chi.NewRouter()
	r.Use(f.auth)
	r.Get("/api/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/v1/sync/nomenclature", f.pullNomenclature)
	r.Get("/api/v1/sync/branches", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.branches)
	})
	r.Post("/api/v1/sync/{entity}", f.push)
	r.Put("/api/v1/sync/{entity}/{id}", f.push)

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCentral) URL() string { return f.srv.URL }

func (f *fakeCentral) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		key := f.apiKey
		f.mu.Unlock()
		if r.Header.Get(headerAPIKey) != key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeCentral) pullNomenclature(w http.ResponseWriter, _ *http.Request) {
	if f.pullEntered != nil {
		f.pullEntered <- struct{}{}
		<-f.pullGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	writeJSON(w, http.StatusOK, f.nomenclature)
}

func (f *fakeCentral) push(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	key := r.Header.Get(headerIdempotencyKey)

	var body map[string]any
	data, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	f.mu.Lock()
	entered, gate := f.pushEntered, f.pushGate
	f.pushEntered = nil
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	f.pushes = append(f.pushes, pushRecord{Method: r.Method, Entity: entity, Key: key, Body: body})
	if f.reject != nil {
		if code, msg := f.reject(entity, body); code != 0 {
			f.mu.Unlock()
			writeJSON(w, code, map[string]string{"detail": msg})
			return
		}
	}
	id, seen := f.byKey[key]
	if !seen {
		if r.Method == http.MethodPut {
			id, _ = strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		} else {
			f.nextID++
			id = f.nextID
		}
		f.byKey[key] = id
	}
	drop := f.dropAcks > 0
	if drop {
		f.dropAcks--
	}
	f.mu.Unlock()

	if drop {
		// сервер все записал, но ответ до клиента не дошел
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (f *fakeCentral) Pushes() []pushRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pushRecord(nil), f.pushes...)
}

func (f *fakeCentral) pullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls
}

// Created число сущностей, созданных на сервере
func (f *fakeCentral) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int(f.nextID - 100)
}

func (f *fakeCentral) set(fn func(f *fakeCentral)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSyncConfig() config.SyncConfig {
	cfg := config.DefaultSync()
	cfg.RequestTimeout = 2 * time.Second
	cfg.RetryCount = 0
	cfg.RetryWait = 5 * time.Millisecond
	cfg.RetryMaxWait = 20 * time.Millisecond
	cfg.ProbeInterval = time.Hour
	cfg.SyncInterval = 0
	cfg.AutoSyncOnWrite = false
	return cfg
}

func openTestStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "clinic.db"), discardLogger())
	require.NoError(t, err)
	return store
}

func testBox(t *testing.T) *crypto.SecretBox {
	t.Helper()
	secret, err := crypto.GenerateRandomBytes(32)
	require.NoError(t, err)
	box, err := crypto.NewSecretBox(secret)
	require.NoError(t, err)
	return box
}

func testConfig(serverURL, apiKey string) *config.Config {
	return &config.Config{
		Env:        "local",
		ServerURL:  serverURL,
		APIKey:     apiKey,
		BranchID:   1,
		BranchName: "Центральный",
		Sync:       testSyncConfig(),
	}
}

// newTestApp собирает движок поверх хранилища; Start не вызывается, фоновых циклов нет
func newTestApp(t *testing.T, store *sqlite.Storage, serverURL, apiKey string) *App {
	t.Helper()
	app := newApp(testConfig(serverURL, apiKey), discardLogger(), testBox(t), store)
	require.NoError(t, app.Init(context.Background()))
	t.Cleanup(func() { _ = app.Close() })
	return app
}
