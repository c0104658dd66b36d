package records

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/internal/domain/clinic"
)

var NomenclatureCmd = &cobra.Command{
	Use:   "nomenclature [запрос]",
	Short: "Справочник услуг и товаров",
	Long: `Показывает номенклатуру из последней загрузки справочников.
С аргументом ищет по названию и коду без учета регистра.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}

		var items []clinic.NomenclatureItem
		if len(args) == 1 {
			items, err = env.App.SearchNomenclature(cmd.Context(), args[0], searchLimit)
		} else {
			items, err = env.App.GetAllNomenclature(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("ошибка чтения номенклатуры: %w", err)
		}

		if env.JSON {
			return cmdutil.PrintJSON(items)
		}
		if len(items) == 0 {
			fmt.Println("Справочник пуст. Выполните: companion sync")
			return nil
		}
		w := cmdutil.Table()
		fmt.Fprintln(w, "ID\tКОД\tНАЗВАНИЕ\tКАТЕГОРИЯ\tЕД.\tЦЕНА")
		for _, n := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.2f\n",
				n.ID, cmdutil.Deref(n.Code), n.Name, cmdutil.Deref(n.Category), cmdutil.Deref(n.Unit), n.Price)
		}
		return w.Flush()
	},
}

func init() {
	NomenclatureCmd.Flags().IntVar(&searchLimit, "limit", 50, "максимум результатов поиска")
}
