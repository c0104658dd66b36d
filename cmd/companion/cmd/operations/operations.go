package operations

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/internal/domain/operation"
)

var onlyFailed bool

var OperationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "Журнал неотправленных операций",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Операции, еще не подтвержденные сервером",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}

		var ops []*operation.Operation
		if onlyFailed {
			ops, err = env.App.FailedOperations(cmd.Context())
		} else {
			ops, err = env.App.PendingOperations(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("ошибка чтения журнала: %w", err)
		}

		if env.JSON {
			return cmdutil.PrintJSON(ops)
		}
		if len(ops) == 0 {
			color.Green("Журнал пуст, все изменения отправлены")
			return nil
		}

		w := cmdutil.Table()
		fmt.Fprintln(w, "SEQ\tОПЕРАЦИЯ\tСУЩНОСТЬ\tID\tСТАТУС\tПОПЫТОК\tСОЗДАНА\tОШИБКА")
		for _, op := range ops {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
				op.Seq, op.Kind, op.EntityType, op.EntityID, statusLabel(op.Status),
				op.AttemptCount, op.CreatedAt.Local().Format(time.DateTime), cmdutil.Deref(op.LastError))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nВсего: %d\n", len(ops))
		return nil
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry <operation-id>",
	Short: "Вернуть отклоненную операцию в очередь",
	Long: `Возвращает операцию, отклоненную сервером, в очередь отправки.
Имеет смысл после исправления данных, из-за которых сервер ее отклонил.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		if err := env.App.RetryOperation(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("ошибка повтора операции: %w", err)
		}
		color.Green("✅ Операция %s возвращена в очередь", args[0])
		return nil
	},
}

func statusLabel(s operation.Status) string {
	switch s {
	case operation.StatusFailed:
		return color.RedString(string(s))
	case operation.StatusInFlight:
		return color.YellowString(string(s))
	default:
		return string(s)
	}
}

func init() {
	listCmd.Flags().BoolVar(&onlyFailed, "failed", false, "только отклоненные сервером")

	OperationsCmd.AddCommand(listCmd)
	OperationsCmd.AddCommand(retryCmd)
}
