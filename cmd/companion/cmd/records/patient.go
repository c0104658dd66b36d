package records

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/internal/domain/clinic"
)

var (
	patientClientID  int64
	patientName      string
	patientSpecies   string
	patientBreed     string
	patientGender    string
	patientBirthDate string
)

var PatientCmd = &cobra.Command{
	Use:   "patient",
	Short: "Пациенты клиники",
}

var patientCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Создать пациента",
	Long: `Создает пациента у существующего клиента. ID клиента может быть
временным (отрицательным): пациент будет отправлен после клиента.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		p, err := env.App.CreatePatient(cmd.Context(), clinic.Patient{
			ClientID:  patientClientID,
			Name:      patientName,
			Species:   patientSpecies,
			Breed:     optional(patientBreed),
			Gender:    clinic.Gender(patientGender),
			BirthDate: optional(patientBirthDate),
		}, requestID)
		if err != nil {
			return fmt.Errorf("ошибка создания пациента: %w", err)
		}
		return printPatient(env, p)
	},
}

var patientUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Изменить пациента",
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
		current, err := env.App.GetPatient(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("ошибка получения пациента: %w", err)
		}

		p := *current
		flags := cmd.Flags()
		if flags.Changed("name") {
			p.Name = patientName
		}
		if flags.Changed("species") {
			p.Species = patientSpecies
		}
		if flags.Changed("breed") {
			p.Breed = optional(patientBreed)
		}
		if flags.Changed("gender") {
			p.Gender = clinic.Gender(patientGender)
		}
		if flags.Changed("birth-date") {
			p.BirthDate = optional(patientBirthDate)
		}

		updated, err := env.App.UpdatePatient(cmd.Context(), p, requestID)
		if err != nil {
			return fmt.Errorf("ошибка изменения пациента: %w", err)
		}
		return printPatient(env, updated)
	},
}

func printPatient(env *cmdutil.Env, p *clinic.Patient) error {
	if env.JSON {
		return cmdutil.PrintJSON(p)
	}
	fmt.Printf("ID: %d\n", p.ID)
	fmt.Printf("Клиент: %d\n", p.ClientID)
	fmt.Printf("Кличка: %s\n", p.Name)
	fmt.Printf("Вид: %s\n", p.Species)
	fmt.Printf("Порода: %s\n", cmdutil.Deref(p.Breed))
	fmt.Printf("Пол: %s\n", p.Gender)
	fmt.Printf("Дата рождения: %s\n", cmdutil.Deref(p.BirthDate))
	fmt.Printf("Синхронизация: %s\n", cmdutil.SyncState(p.SyncState))
	return nil
}

func init() {
	patientCreateCmd.Flags().Int64VarP(&patientClientID, "client", "c", 0, "ID клиента-владельца")
	_ = patientCreateCmd.MarkFlagRequired("client")

	for _, cmd := range []*cobra.Command{patientCreateCmd, patientUpdateCmd} {
		cmd.Flags().StringVarP(&patientName, "name", "n", "", "кличка")
		cmd.Flags().StringVarP(&patientSpecies, "species", "s", "", "вид животного")
		cmd.Flags().StringVar(&patientBreed, "breed", "", "порода")
		cmd.Flags().StringVar(&patientGender, "gender", "", "пол: male, female, unknown")
		cmd.Flags().StringVar(&patientBirthDate, "birth-date", "", "дата рождения YYYY-MM-DD")
		addRequestIDFlag(cmd)
	}
	_ = patientCreateCmd.MarkFlagRequired("name")
	_ = patientCreateCmd.MarkFlagRequired("species")

	PatientCmd.AddCommand(patientCreateCmd)
	PatientCmd.AddCommand(patientUpdateCmd)
}
