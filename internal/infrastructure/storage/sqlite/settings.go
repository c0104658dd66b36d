package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSettingNotFound настройка еще не сохранялась
var ErrSettingNotFound = errors.New("setting not found")

func (s *Storage) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения настройки %s: %w", key, err)
	}
	return value, nil
}

// PutSettings сохраняет набор настроек одной транзакцией
func (s *Storage) PutSettings(ctx context.Context, values map[string]string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(s.now())
		for key, value := range values {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				key, value, now)
			if err != nil {
				return fmt.Errorf("ошибка сохранения настройки %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *Storage) PutSetting(ctx context.Context, key, value string) error {
	return s.PutSettings(ctx, map[string]string{key: value})
}
