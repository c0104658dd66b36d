package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	gosync "sync"

	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/crypto"
	"clinicsync/internal/domain/sync"
	"clinicsync/internal/infrastructure/storage/sqlite"
)

const (
	settingServerURL  = "server_url"
	settingAPIKey     = "api_key_sealed"
	settingBranchID   = "branch_id"
	settingBranchName = "branch_name"
)

// CredentialStore текущие учетные данные центрального сервера.
// Хранятся в таблице настроек, API-ключ зашифрован.
type CredentialStore struct {
	store     LocalStore
	box       *crypto.SecretBox
	log       *slog.Logger
	mu        gosync.RWMutex
	current   sync.Credentials
	listeners []func(sync.Credentials)
}

func NewCredentialStore(store LocalStore, box *crypto.SecretBox, log *slog.Logger) *CredentialStore {
	return &CredentialStore{
		store: store,
		box:   box,
		log:   log.With(slog.String("component", "credentials")),
	}
}

// Load читает сохраненные учетные данные; значения из fallback заполняют пустые поля
func (c *CredentialStore) Load(ctx context.Context, fallback sync.Credentials) error {
	creds := sync.Credentials{}

	get := func(key string) (string, error) {
		v, err := c.store.GetSetting(ctx, key)
		if errors.Is(err, sqlite.ErrSettingNotFound) {
			return "", nil
		}
		return v, err
	}

	var err error
	if creds.ServerURL, err = get(settingServerURL); err != nil {
		return err
	}
	sealed, err := get(settingAPIKey)
	if err != nil {
		return err
	}
	if sealed != "" {
		if creds.APIKey, err = c.box.Open(sealed); err != nil {
			return fmt.Errorf("ошибка расшифровки API-ключа: %w", err)
		}
	}
	branchID, err := get(settingBranchID)
	if err != nil {
		return err
	}
	if branchID != "" {
		if creds.BranchID, err = strconv.ParseInt(branchID, 10, 64); err != nil {
			return fmt.Errorf("некорректный branch_id %q: %w", branchID, err)
		}
	}
	if creds.BranchName, err = get(settingBranchName); err != nil {
		return err
	}

	if creds.ServerURL == "" {
		creds.ServerURL = fallback.ServerURL
	}
	if creds.APIKey == "" {
		creds.APIKey = fallback.APIKey
	}
	if creds.BranchID == 0 {
		creds.BranchID = fallback.BranchID
		creds.BranchName = fallback.BranchName
	}
	creds.ServerURL = normalizeServerURL(creds.ServerURL)

	c.mu.Lock()
	c.current = creds
	c.mu.Unlock()
	return nil
}

// Current возвращает копию текущих учетных данных
func (c *CredentialStore) Current() sync.Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// OnChange подписывает на смену учетных данных
func (c *CredentialStore) OnChange(fn func(sync.Credentials)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// UpdateCredentials сохраняет адрес сервера и ключ; действует со следующего запроса
func (c *CredentialStore) UpdateCredentials(ctx context.Context, serverURL, apiKey string) error {
	serverURL = normalizeServerURL(serverURL)
	if serverURL == "" || apiKey == "" {
		return fmt.Errorf("%w: server url and api key are required", sync.ErrNotConfigured)
	}
	sealed, err := c.box.Seal(apiKey)
	if err != nil {
		return fmt.Errorf("ошибка шифрования API-ключа: %w", err)
	}
	if err := c.store.PutSettings(ctx, map[string]string{
		settingServerURL: serverURL,
		settingAPIKey:    sealed,
	}); err != nil {
		return err
	}

	c.apply(func(creds *sync.Credentials) {
		creds.ServerURL = serverURL
		creds.APIKey = apiKey
	})
	c.log.Info("credentials updated", slog.String("server_url", serverURL),
		slog.String("api_key", crypto.MaskSensitiveData(apiKey)))
	return nil
}

// UpdateBranch сохраняет выбранный филиал
func (c *CredentialStore) UpdateBranch(ctx context.Context, branchID int64, branchName string) error {
	if branchID <= 0 {
		return fmt.Errorf("некорректный филиал: %d", branchID)
	}
	if err := c.store.PutSettings(ctx, map[string]string{
		settingBranchID:   strconv.FormatInt(branchID, 10),
		settingBranchName: branchName,
	}); err != nil {
		return err
	}

	c.apply(func(creds *sync.Credentials) {
		creds.BranchID = branchID
		creds.BranchName = branchName
	})
	c.log.Info("branch updated", slog.Int64("branch_id", branchID), slog.String("branch_name", branchName))
	return nil
}

// Replace применяет учетные данные целиком (горячая перезагрузка конфигурации)
func (c *CredentialStore) Replace(ctx context.Context, creds sync.Credentials) error {
	if creds == c.Current() {
		return nil
	}
	if creds.ServerURL != "" && creds.APIKey != "" {
		if err := c.UpdateCredentials(ctx, creds.ServerURL, creds.APIKey); err != nil {
			return err
		}
	}
	if creds.BranchID > 0 {
		return c.UpdateBranch(ctx, creds.BranchID, creds.BranchName)
	}
	return nil
}

func (c *CredentialStore) apply(change func(*sync.Credentials)) {
	c.mu.Lock()
	change(&c.current)
	creds := c.current
	listeners := append([]func(sync.Credentials){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(creds)
	}
}

func normalizeServerURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}
