package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/internal/app/client"
	domainsync "clinicsync/internal/domain/sync"
)

var (
	syncTimeout time.Duration
	showStats   bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизировать с центральным сервером",
	Long: `Выполняет один цикл синхронизации.

Сначала загружаются справочники (номенклатура и филиалы), затем журнал
операций отправляется на сервер: клиенты, потом пациенты, потом приемы
и счета. Операция, отклоненная сервером, блокирует только зависящие от нее.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if syncTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, syncTimeout)
			defer cancel()
		}

		result, err := env.App.FullSync(ctx)
		if result == nil {
			return fmt.Errorf("ошибка синхронизации: %w", err)
		}
		if env.JSON {
			if perr := cmdutil.PrintJSON(result); perr != nil {
				return perr
			}
			return err
		}

		printResult(result, err)
		if showStats {
			printStats(env.App)
		}
		if err != nil {
			return fmt.Errorf("синхронизация не завершена: %w", err)
		}
		return nil
	},
}

func printResult(result *domainsync.SyncResult, err error) {
	fmt.Println("=== Синхронизация данных ===")
	if err == nil {
		color.Green("✅ Синхронизация завершена!")
	} else {
		color.Red("❌ %s", hint(err))
	}
	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Загружено справочников: %d\n", result.Pulled)
	fmt.Printf("Отправлено операций: %d\n", result.Pushed)
	if result.Failed > 0 {
		color.Yellow("Отклонено сервером: %d", result.Failed)
	}
	if result.Blocked > 0 {
		fmt.Printf("Ждут отклоненных операций: %d\n", result.Blocked)
	}
	fmt.Printf("Осталось в журнале: %d\n", result.PendingCount)
}

func printStats(app *client.App) {
	stats := app.SyncStats()
	fmt.Println("\n📊 Статистика:")
	fmt.Printf("  Всего синхронизаций: %d\n", stats.TotalSyncs)
	fmt.Printf("  С ошибками: %d\n", stats.TotalErrors)
	fmt.Printf("  Отправлено операций: %d\n", stats.TotalPushed)
	fmt.Printf("  Отклонено: %d\n", stats.TotalFailed)
	fmt.Printf("  Среднее время: %.2f сек\n", stats.AvgSyncDuration)
}

func hint(err error) string {
	switch {
	case errors.Is(err, domainsync.ErrNotConfigured):
		return "Сервер не настроен. Выполните: companion settings credentials"
	case domainsync.IsAuth(err):
		return "Сервер отклонил ключ API: " + err.Error()
	case domainsync.IsConnectivity(err):
		return "Сервер недоступен, данные сохранены локально: " + err.Error()
	default:
		return err.Error()
	}
}

func init() {
	SyncCmd.Flags().DurationVar(&syncTimeout, "timeout", 2*time.Minute, "ограничение времени цикла")
	SyncCmd.Flags().BoolVar(&showStats, "stats", false, "показать статистику после синхронизации")
}
