package records

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinicsync/cmd/companion/cmd/cmdutil"
	"clinicsync/internal/domain/clinic"
)

var (
	apptClientID  int64
	apptPatientID int64
	apptDate      string
	apptTime      string
	apptDoctor    string
	apptNotes     string
	apptStatus    string
	recentLimit   int
)

var AppointmentCmd = &cobra.Command{
	Use:   "appointment",
	Short: "Записи на прием",
}

var appointmentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Записать на прием",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		a, err := env.App.CreateAppointment(cmd.Context(), clinic.Appointment{
			ClientID:        apptClientID,
			PatientID:       apptPatientID,
			AppointmentDate: apptDate,
			AppointmentTime: apptTime,
			DoctorName:      optional(apptDoctor),
			Notes:           optional(apptNotes),
			Status:          clinic.AppointmentStatus(apptStatus),
		}, requestID)
		if err != nil {
			return fmt.Errorf("ошибка создания записи: %w", err)
		}
		if env.JSON {
			return cmdutil.PrintJSON(a)
		}
		fmt.Printf("✅ Запись %d: %s %s, пациент %d, статус %s\n",
			a.ID, a.AppointmentDate, a.AppointmentTime, a.PatientID, a.Status)
		return nil
	},
}

var appointmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "Последние записи на прием",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := cmdutil.From(cmd)
		if err != nil {
			return err
		}
		appointments, err := env.App.GetRecentAppointments(cmd.Context(), recentLimit)
		if err != nil {
			return fmt.Errorf("ошибка получения записей: %w", err)
		}
		if env.JSON {
			return cmdutil.PrintJSON(appointments)
		}
		if len(appointments) == 0 {
			fmt.Println("Записей нет")
			return nil
		}
		w := cmdutil.Table()
		fmt.Fprintln(w, "ID\tДАТА\tВРЕМЯ\tКЛИЕНТ\tПАЦИЕНТ\tВРАЧ\tСТАТУС\tСИНХРОНИЗАЦИЯ")
		for _, a := range appointments {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
				a.ID, a.AppointmentDate, a.AppointmentTime, a.ClientID, a.PatientID,
				cmdutil.Deref(a.DoctorName), a.Status, cmdutil.SyncState(a.SyncState))
		}
		return w.Flush()
	},
}

func init() {
	flags := appointmentCreateCmd.Flags()
	flags.Int64VarP(&apptClientID, "client", "c", 0, "ID клиента")
	flags.Int64VarP(&apptPatientID, "patient", "p", 0, "ID пациента")
	flags.StringVarP(&apptDate, "date", "d", "", "дата YYYY-MM-DD")
	flags.StringVarP(&apptTime, "time", "t", "", "время HH:MM")
	flags.StringVar(&apptDoctor, "doctor", "", "врач")
	flags.StringVar(&apptNotes, "notes", "", "заметки")
	flags.StringVar(&apptStatus, "status", "", "статус (по умолчанию scheduled)")
	addRequestIDFlag(appointmentCreateCmd)
	for _, name := range []string{"client", "patient", "date", "time"} {
		_ = appointmentCreateCmd.MarkFlagRequired(name)
	}

	appointmentListCmd.Flags().IntVar(&recentLimit, "limit", 20, "сколько последних записей показать")

	AppointmentCmd.AddCommand(appointmentCreateCmd)
	AppointmentCmd.AddCommand(appointmentListCmd)
}
