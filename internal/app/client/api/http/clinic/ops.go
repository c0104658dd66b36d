package clinic

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) createClientOp() huma.Operation {
	return huma.Operation{
		OperationID:   "clients-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/clients",
		Summary:       "Создать клиента",
		Description:   "Сохраняет клиента локально с временным id и ставит отправку в очередь",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"clients"},
		Middlewares:   h.middleware,
	}
}

func (h *Handler) updateClientOp() huma.Operation {
	return huma.Operation{
		OperationID: "clients-update",
		Method:      http.MethodPut,
		Path:        "/api/v1/clients/{id}",
		Summary:     "Изменить клиента",
		Description: "Неотправленные изменения сливаются в одну операцию",
		Tags:        []string{"clients"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getClientOp() huma.Operation {
	return huma.Operation{
		OperationID: "clients-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/clients/{id}",
		Summary:     "Получить клиента",
		Tags:        []string{"clients"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) searchClientsOp() huma.Operation {
	return huma.Operation{
		OperationID: "clients-search",
		Method:      http.MethodGet,
		Path:        "/api/v1/clients",
		Summary:     "Поиск клиентов",
		Description: "Поиск по ФИО или телефону без учета регистра",
		Tags:        []string{"clients"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) clientPatientsOp() huma.Operation {
	return huma.Operation{
		OperationID: "clients-patients",
		Method:      http.MethodGet,
		Path:        "/api/v1/clients/{id}/patients",
		Summary:     "Пациенты клиента",
		Tags:        []string{"clients"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createPatientOp() huma.Operation {
	return huma.Operation{
		OperationID:   "patients-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/patients",
		Summary:       "Создать пациента",
		Description:   "Владелец может быть еще не отправлен на сервер",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"patients"},
		Middlewares:   h.middleware,
	}
}

func (h *Handler) updatePatientOp() huma.Operation {
	return huma.Operation{
		OperationID: "patients-update",
		Method:      http.MethodPut,
		Path:        "/api/v1/patients/{id}",
		Summary:     "Изменить пациента",
		Description: "Владелец пациента не меняется",
		Tags:        []string{"patients"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createAppointmentOp() huma.Operation {
	return huma.Operation{
		OperationID:   "appointments-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/appointments",
		Summary:       "Записать на прием",
		Description:   "Пациент должен принадлежать клиенту",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"appointments"},
		Middlewares:   h.middleware,
	}
}

func (h *Handler) recentAppointmentsOp() huma.Operation {
	return huma.Operation{
		OperationID: "appointments-recent",
		Method:      http.MethodGet,
		Path:        "/api/v1/appointments",
		Summary:     "Последние приемы",
		Tags:        []string{"appointments"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createInvoiceOp() huma.Operation {
	return huma.Operation{
		OperationID:   "invoices-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/invoices",
		Summary:       "Выставить счет",
		Description:   "Суммы позиций и итог пересчитываются",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"invoices"},
		Middlewares:   h.middleware,
	}
}

func (h *Handler) recentInvoicesOp() huma.Operation {
	return huma.Operation{
		OperationID: "invoices-recent",
		Method:      http.MethodGet,
		Path:        "/api/v1/invoices",
		Summary:     "Последние счета",
		Tags:        []string{"invoices"},
		Middlewares: h.middleware,
	}
}
