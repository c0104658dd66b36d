package records

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/internal/app/client"
	"clinicsync/internal/domain/clinic"
)

var (
	invoiceClientID int64
	invoiceItems    []string
	invoicePayment  string
)

var InvoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Счета",
}

var invoiceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Выставить счет",
	Long: `Выставляет счет клиенту. Позиции задаются флагом --item в виде
<ID номенклатуры>:<количество>[:<цена>]. Без цены берется цена из справочника.
Итог счета пересчитывается по позициям.`,
	Example: `  companion invoice create --client -1 --item 7:1 --item 8:2:850`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		items, err := parseItems(cmd.Context(), env.App, invoiceItems)
		if err != nil {
			return err
		}
		inv, err := env.App.CreateInvoice(cmd.Context(), clinic.Invoice{
			ClientID:      invoiceClientID,
			Items:         items,
			PaymentStatus: clinic.PaymentStatus(invoicePayment),
		}, requestID)
		if err != nil {
			return fmt.Errorf("ошибка создания счета: %w", err)
		}
		if env.JSON {
			return cmdutil.PrintJSON(inv)
		}
		fmt.Printf("✅ Счет %d для клиента %d: %.2f (%s)\n", inv.ID, inv.ClientID, inv.TotalAmount, inv.PaymentStatus)
		return nil
	},
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "Последние счета",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		invoices, err := env.App.GetRecentInvoices(cmd.Context(), recentLimit)
		if err != nil {
			return fmt.Errorf("ошибка получения счетов: %w", err)
		}
		if env.JSON {
			return cmdutil.PrintJSON(invoices)
		}
		if len(invoices) == 0 {
			fmt.Println("Счетов нет")
			return nil
		}
		w := cmdutil.Table()
		fmt.Fprintln(w, "ID\tКЛИЕНТ\tПОЗИЦИЙ\tСУММА\tОПЛАТА\tСИНХРОНИЗАЦИЯ")
		for _, inv := range invoices {
			fmt.Fprintf(w, "%d\t%d\t%d\t%.2f\t%s\t%s\n",
				inv.ID, inv.ClientID, len(inv.Items), inv.TotalAmount, inv.PaymentStatus, cmdutil.SyncState(inv.SyncState))
		}
		return w.Flush()
	},
}

// parseItems разбирает позиции "id:qty[:price]"; недостающие цены берутся из справочника
func parseItems(ctx context.Context, app *client.App, raw []string) ([]clinic.InvoiceItem, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("счет должен содержать хотя бы одну позицию: --item")
	}

	var prices map[int64]float64
	items := make([]clinic.InvoiceItem, 0, len(raw))
	for _, s := range raw {
		parts := strings.Split(s, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("некорректная позиция %q, ожидается id:количество[:цена]", s)
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный ID номенклатуры в %q", s)
		}
		qty, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("некорректное количество в %q", s)
		}

		item := clinic.InvoiceItem{NomenclatureID: id, Quantity: qty}
		if len(parts) == 3 {
			if item.Price, err = strconv.ParseFloat(parts[2], 64); err != nil {
				return nil, fmt.Errorf("некорректная цена в %q", s)
			}
		} else {
			if prices == nil {
				if prices, err = priceList(ctx, app); err != nil {
					return nil, err
				}
			}
			price, ok := prices[id]
			if !ok {
				return nil, fmt.Errorf("позиция номенклатуры %d не найдена, выполните синхронизацию", id)
			}
			item.Price = price
		}
		items = append(items, item)
	}
	return items, nil
}

func priceList(ctx context.Context, app *client.App) (map[int64]float64, error) {
	nomenclature, err := app.GetAllNomenclature(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения номенклатуры: %w", err)
	}
	prices := make(map[int64]float64, len(nomenclature))
	for _, n := range nomenclature {
		prices[n.ID] = n.Price
	}
	return prices, nil
}

func init() {
	invoiceCreateCmd.Flags().Int64VarP(&invoiceClientID, "client", "c", 0, "ID клиента")
	invoiceCreateCmd.Flags().StringArrayVarP(&invoiceItems, "item", "i", nil, "позиция id:количество[:цена], можно несколько")
	invoiceCreateCmd.Flags().StringVar(&invoicePayment, "payment", "", "статус оплаты (по умолчанию unpaid)")
	addRequestIDFlag(invoiceCreateCmd)
	_ = invoiceCreateCmd.MarkFlagRequired("client")

	invoiceListCmd.Flags().IntVar(&recentLimit, "limit", 20, "сколько последних счетов показать")

	InvoiceCmd.AddCommand(invoiceCreateCmd)
	InvoiceCmd.AddCommand(invoiceListCmd)
}
