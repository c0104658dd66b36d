// Package cmdutil общие помощники команд компаньона
package cmdutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"clinicsync/internal/app/client"
	"clinicsync/internal/domain/clinic"
)

type envKey struct{}

// Env состояние, которое корневая команда передает подкомандам
type Env struct {
	App  *client.App
	JSON bool
}

func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// From возвращает окружение команды или ошибку, если приложение не создано
func From(cmd *cobra.Command) (*Env, error) {
	env, ok := cmd.Context().Value(envKey{}).(*Env)
	if !ok || env == nil || env.App == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return env, nil
}

// PrintJSON выводит значение с отступами
func PrintJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table табличный вывод с выравниванием колонок
func Table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

// SyncState цветная метка состояния синхронизации сущности
func SyncState(state clinic.SyncState) string {
	switch state {
	case clinic.SyncSynced:
		return color.GreenString(string(state))
	case clinic.SyncPendingPush:
		return color.YellowString(string(state))
	default:
		return color.CyanString(string(state))
	}
}

func Deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
