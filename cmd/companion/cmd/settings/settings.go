package settings

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/internal/app/client/crypto"
	"clinicsync/internal/domain/clinic"
)

var (
	credURL    string
	credKeyEnv string
	branchName string
	fetchLive  bool
)

var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Настройки подключения к серверу",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		creds := env.App.Credentials()
		if env.JSON {
			return cmdutil.PrintJSON(map[string]any{
				"server_url":  creds.ServerURL,
				"api_key":     crypto.MaskSensitiveData(creds.APIKey),
				"branch_id":   creds.BranchID,
				"branch_name": creds.BranchName,
				"configured":  creds.IsConfigured(),
			})
		}
		fmt.Printf("Сервер:   %s\n", orDash(creds.ServerURL))
		fmt.Printf("API-ключ: %s\n", orDash(crypto.MaskSensitiveData(creds.APIKey)))
		fmt.Printf("Филиал:   %s\n", branchLabel(creds.BranchID, creds.BranchName))
		return nil
	},
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Сохранить адрес сервера и API-ключ",
	Long: `Сохраняет адрес центрального сервера и API-ключ филиала.

Ключ запрашивается без отображения на экране либо читается из переменной
окружения, указанной в --key-env. В базе ключ хранится зашифрованным.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		if credURL == "" {
			return fmt.Errorf("укажите адрес сервера: --url")
		}

		apiKey, err := readAPIKey()
		if err != nil {
			return err
		}

		if err := env.App.UpdateCredentials(cmd.Context(), credURL, apiKey); err != nil {
			return fmt.Errorf("ошибка сохранения учетных данных: %w", err)
		}
		color.Green("✅ Учетные данные сохранены")
		return nil
	},
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "Список филиалов",
	Long: `Показывает филиалы из последней загрузки справочников.
С флагом --fetch запрашивает список у сервера по сохраненным учетным данным.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}

		var branches []clinic.Branch
		if fetchLive {
			creds := env.App.Credentials()
			branches, err = env.App.FetchBranches(cmd.Context(), creds.ServerURL, creds.APIKey)
		} else {
			branches, err = env.App.GetBranches(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("ошибка получения филиалов: %w", err)
		}

		if env.JSON {
			return cmdutil.PrintJSON(branches)
		}
		if len(branches) == 0 {
			fmt.Println("Филиалы не найдены. Выполните синхронизацию или используйте --fetch")
			return nil
		}
		w := cmdutil.Table()
		fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tАДРЕС")
		for _, b := range branches {
			fmt.Fprintf(w, "%d\t%s\t%s\n", b.ID, b.Name, cmdutil.Deref(b.Address))
		}
		return w.Flush()
	},
}

var branchCmd = &cobra.Command{
	Use:   "branch <id>",
	Short: "Выбрать филиал",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("некорректный ID филиала: %s", args[0])
		}

		name := branchName
		if name == "" {
			branches, err := env.App.GetBranches(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range branches {
				if b.ID == id {
					name = b.Name
				}
			}
		}

		if err := env.App.UpdateBranch(cmd.Context(), id, name); err != nil {
			return fmt.Errorf("ошибка сохранения филиала: %w", err)
		}
		color.Green("✅ Выбран филиал %s", branchLabel(id, name))
		return nil
	},
}

func readAPIKey() (string, error) {
	if credKeyEnv != "" {
		key := strings.TrimSpace(os.Getenv(credKeyEnv))
		if key == "" {
			return "", fmt.Errorf("переменная окружения %s пуста", credKeyEnv)
		}
		return key, nil
	}

	fmt.Print("Введите API-ключ: ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ошибка чтения ключа: %w", err)
	}
	if len(strings.TrimSpace(string(key))) == 0 {
		return "", fmt.Errorf("ключ не может быть пустым")
	}
	return strings.TrimSpace(string(key)), nil
}

func branchLabel(id int64, name string) string {
	if id == 0 {
		return "-"
	}
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("%s (#%d)", name, id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	credentialsCmd.Flags().StringVar(&credURL, "url", "", "адрес центрального сервера")
	credentialsCmd.Flags().StringVar(&credKeyEnv, "key-env", "", "прочитать API-ключ из переменной окружения")
	branchesCmd.Flags().BoolVar(&fetchLive, "fetch", false, "запросить список у сервера")
	branchCmd.Flags().StringVar(&branchName, "name", "", "название филиала (по умолчанию из справочника)")

	SettingsCmd.AddCommand(credentialsCmd)
	SettingsCmd.AddCommand(branchesCmd)
	SettingsCmd.AddCommand(branchCmd)
}
