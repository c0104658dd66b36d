package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/api"
)

const shutdownTimeout = 10 * time.Second

var listenAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить компаньон с локальным API",
	Long: `Запускает фоновую проверку связи, периодическую синхронизацию и локальный
HTTP API для интерфейса клиники. API слушает только loopback-адрес.

Поток статуса синхронизации: ws://<адрес>/api/v1/sync/events`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddress
		if listenAddress != "" {
			addr = listenAddress
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
		defer stop()

		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("не удалось открыть адрес %s: %w", addr, err)
		}

		server := &http.Server{
			Handler:           api.New(app, log),
			ReadHeaderTimeout: 5 * time.Second,
			// websocket-соединения закрываются вместе с базовым контекстом
			BaseContext: func(net.Listener) context.Context { return ctx },
		}

		app.Start()

		serveErr := make(chan error, 1)
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		log.Info("Локальный API запущен", slog.String("address", listener.Addr().String()))
		fmt.Printf("API: http://%s/api/v1\n", listener.Addr())
		fmt.Printf("Документация: http://%s/docs\n", listener.Addr())
		fmt.Println("Для остановки нажмите Ctrl+C...")

		select {
		case <-ctx.Done():
			log.Info("Получен сигнал завершения")
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("ошибка HTTP-сервера: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Ошибка остановки HTTP-сервера", slog.String("error", err.Error()))
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddress, "listen", "l", "", "адрес локального API (по умолчанию listen_address из конфигурации)")
}
