// Package records команды работы с данными клиники
package records

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var requestID string

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("некорректный ID: %s", s)
	}
	return id, nil
}

// optional возвращает nil для пустого флага
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func addRequestIDFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&requestID, "request-id", "", "ключ идемпотентности; повтор с тем же ключом не создает дубликат")
}
