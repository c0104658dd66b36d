package settings

import (
	"clinicsync/internal/domain/clinic"
)

type settingsOutput struct {
	Body settingsResponse
}

type settingsResponse struct {
	ServerURL    string `json:"server_url"`
	APIKeyMasked string `json:"api_key_masked,omitempty" doc:"Ключ показывается замаскированным"`
	BranchID     int64  `json:"branch_id,omitempty"`
	BranchName   string `json:"branch_name,omitempty"`
	Configured   bool   `json:"configured"`
}

type credentialsRequest struct {
	ServerURL string `json:"server_url" format:"uri" doc:"Адрес центрального сервера"`
	APIKey    string `json:"api_key" minLength:"1" doc:"API-ключ филиала"`
}

type credentialsInput struct {
	Body credentialsRequest
}

type branchInput struct {
	Body struct {
		BranchID   int64  `json:"branch_id" minimum:"1"`
		BranchName string `json:"branch_name"`
	}
}

type branchesOutput struct {
	Body []clinic.Branch
}
