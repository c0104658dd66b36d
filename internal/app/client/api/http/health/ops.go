package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) reportOp() huma.Operation {
	return huma.Operation{
		OperationID: "companion-health",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Состояние компаньона",
		Description: "Связь с сервером, размер журнала и признак необходимости вмешательства. Всегда 200, пока процесс жив.",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
