package dto

// SettingItem represents a setting exposed via API.
type SettingItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// UpdateSettingRequest describes the payload for updating a single setting.
type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required"`
}
