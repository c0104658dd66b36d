package records

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/internal/domain/clinic"
)

var (
	clientName    string
	clientPhone   string
	clientEmail   string
	clientAddress string
	searchLimit   int
)

var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Клиенты клиники",
}

var clientCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Создать клиента",
	Long: `Создает клиента в локальной базе. Клиенту выдается временный
отрицательный ID, который заменится серверным после синхронизации.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		c, err := env.App.CreateClient(cmd.Context(), clientFromFlags(0), requestID)
		if err != nil {
			return fmt.Errorf("ошибка создания клиента: %w", err)
		}
		return printClient(env, c)
	},
}

var clientUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Изменить клиента",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		current, err := env.App.GetClient(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("ошибка получения клиента: %w", err)
		}

		c := *current
		if cmd.Flags().Changed("name") {
			c.FullName = clientName
		}
		if cmd.Flags().Changed("phone") {
			c.Phone = clientPhone
		}
		if cmd.Flags().Changed("email") {
			c.Email = optional(clientEmail)
		}
		if cmd.Flags().Changed("address") {
			c.Address = optional(clientAddress)
		}

		updated, err := env.App.UpdateClient(cmd.Context(), c, requestID)
		if err != nil {
			return fmt.Errorf("ошибка изменения клиента: %w", err)
		}
		return printClient(env, updated)
	},
}

var clientGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Показать клиента",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, err := env.App.GetClient(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("ошибка получения клиента: %w", err)
		}
		return printClient(env, c)
	},
}

var clientSearchCmd = &cobra.Command{
	Use:   "search [запрос]",
	Short: "Поиск клиентов по ФИО или телефону",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		var query string
		if len(args) == 1 {
			query = args[0]
		}
		clients, err := env.App.SearchClients(cmd.Context(), query, searchLimit)
		if err != nil {
			return fmt.Errorf("ошибка поиска клиентов: %w", err)
		}
		if env.JSON {
			return cmdutil.PrintJSON(clients)
		}
		if len(clients) == 0 {
			fmt.Println("Клиенты не найдены")
			return nil
		}
		w := cmdutil.Table()
		fmt.Fprintln(w, "ID\tФИО\tТЕЛЕФОН\tEMAIL\tСИНХРОНИЗАЦИЯ")
		for _, c := range clients {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.FullName, c.Phone, cmdutil.Deref(c.Email), cmdutil.SyncState(c.SyncState))
		}
		return w.Flush()
	},
}

var clientPatientsCmd = &cobra.Command{
	Use:   "patients <client-id>",
	Short: "Пациенты клиента",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		patients, err := env.App.GetPatientsByClient(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("ошибка получения пациентов: %w", err)
		}
		if env.JSON {
			return cmdutil.PrintJSON(patients)
		}
		if len(patients) == 0 {
			fmt.Println("У клиента нет пациентов")
			return nil
		}
		w := cmdutil.Table()
		fmt.Fprintln(w, "ID\tКЛИЧКА\tВИД\tПОРОДА\tПОЛ\tСИНХРОНИЗАЦИЯ")
		for _, p := range patients {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Species, cmdutil.Deref(p.Breed), p.Gender, cmdutil.SyncState(p.SyncState))
		}
		return w.Flush()
	},
}

func clientFromFlags(id int64) clinic.Client {
	return clinic.Client{
		ID:       id,
		FullName: clientName,
		Phone:    clientPhone,
		Email:    optional(clientEmail),
		Address:  optional(clientAddress),
	}
}

func printClient(env *cmdutil.Env, c *clinic.Client) error {
	if env.JSON {
		return cmdutil.PrintJSON(c)
	}
	fmt.Printf("ID: %d\n", c.ID)
	fmt.Printf("ФИО: %s\n", c.FullName)
	fmt.Printf("Телефон: %s\n", c.Phone)
	fmt.Printf("Email: %s\n", cmdutil.Deref(c.Email))
	fmt.Printf("Адрес: %s\n", cmdutil.Deref(c.Address))
	fmt.Printf("Синхронизация: %s\n", cmdutil.SyncState(c.SyncState))
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{clientCreateCmd, clientUpdateCmd} {
		cmd.Flags().StringVarP(&clientName, "name", "n", "", "ФИО клиента")
		cmd.Flags().StringVarP(&clientPhone, "phone", "p", "", "телефон")
		cmd.Flags().StringVar(&clientEmail, "email", "", "email")
		cmd.Flags().StringVar(&clientAddress, "address", "", "адрес")
		addRequestIDFlag(cmd)
	}
	_ = clientCreateCmd.MarkFlagRequired("name")
	_ = clientCreateCmd.MarkFlagRequired("phone")
	clientSearchCmd.Flags().IntVar(&searchLimit, "limit", 50, "максимум результатов")

	ClientCmd.AddCommand(clientCreateCmd)
	ClientCmd.AddCommand(clientUpdateCmd)
	ClientCmd.AddCommand(clientGetCmd)
	ClientCmd.AddCommand(clientSearchCmd)
	ClientCmd.AddCommand(clientPatientsCmd)
}
