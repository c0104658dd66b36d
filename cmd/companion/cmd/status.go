package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/internal/app/client/crypto"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Состояние журнала и учетных данных",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		status := env.App.GetSyncStatus()
		creds := env.App.Credentials()

		if env.JSON {
			return cmdutil.PrintJSON(map[string]any{
				"status":          status,
				"needs_attention": status.NeedsAttention(),
				"credentials":     creds,
				"configured":      creds.IsConfigured(),
			})
		}

		fmt.Println("=== Статус компаньона ===")
		if creds.IsConfigured() {
			fmt.Printf("Сервер: %s\n", creds.ServerURL)
			fmt.Printf("API-ключ: %s\n", crypto.MaskSensitiveData(creds.APIKey))
		} else {
			color.Yellow("⚠️  Сервер не настроен. Выполните: companion settings credentials")
		}
		if creds.BranchID != 0 {
			fmt.Printf("Филиал: %s (%d)\n", creds.BranchName, creds.BranchID)
		}

		fmt.Printf("\nОжидают отправки: %d\n", status.PendingCount)
		if status.FailedCount > 0 {
			color.Red("Отклонены сервером: %d", status.FailedCount)
			fmt.Println("   Используйте 'companion operations list --failed' для просмотра")
		} else {
			fmt.Println("Отклонены сервером: 0")
		}
		if status.AuthError != "" {
			color.Red("Ошибка авторизации: %s", status.AuthError)
		}
		if status.LastSyncAt != nil {
			fmt.Printf("Последняя синхронизация: %s\n", status.LastSyncAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}
