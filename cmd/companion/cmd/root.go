package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/cmd/companion/cmd/operations"
	"clinicsync/cmd/companion/cmd/records"
	"clinicsync/cmd/companion/cmd/settings"
	"clinicsync/cmd/companion/cmd/sync"
	"clinicsync/internal/app/client"
	"clinicsync/internal/app/client/config"
	"clinicsync/internal/utils/logger"
)

var (
	cfgFile    string
	cfg        *config.Config
	log        *slog.Logger
	logCloser  io.Closer
	app        *client.App
	debug      bool
	jsonOutput bool
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "companion",
	Short: "ClinicSync - офлайн-компаньон ветеринарной клиники",
	Long: `ClinicSync Companion хранит данные клиники локально и работает без сети.

Новые клиенты, пациенты, приемы и счета сразу сохраняются в локальной базе
и попадают в журнал операций. При появлении связи журнал отправляется на
центральный сервер в порядке зависимостей, временные ID заменяются на
серверные.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	err := rootCmd.Execute()
	// приложение закрывается и после ошибки команды
	if cerr := closeApp(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}

	log, logCloser = logger.NewWithFile(logger.Options{Env: cfg.Env, Level: level, File: cfg.LogFile})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err = client.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}
	if err := app.Init(ctx); err != nil {
		_ = closeApp()
		return fmt.Errorf("ошибка восстановления журнала: %w", err)
	}

	cmd.SetContext(cmdutil.WithEnv(ctx, &cmdutil.Env{App: app, JSON: jsonOutput}))
	return nil
}

func closeApp() error {
	var err error
	if app != nil {
		err = app.Close()
		app = nil
	}
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	return err
}

func init() {
	// Глобальные флаги
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (по умолчанию ~/.clinicsync/companion.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "URL центрального сервера, если он не сохранен в настройках")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(settings.SettingsCmd)
	rootCmd.AddCommand(operations.OperationsCmd)
	rootCmd.AddCommand(records.ClientCmd)
	rootCmd.AddCommand(records.PatientCmd)
	rootCmd.AddCommand(records.AppointmentCmd)
	rootCmd.AddCommand(records.InvoiceCmd)
	rootCmd.AddCommand(records.NomenclatureCmd)
}
