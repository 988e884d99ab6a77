package models

import "time"

// Setting keys for the context-management knobs exposed over the
// settings API.
const (
	SettingContextEnabled         = "context.enabled"
	SettingSummarizationThreshold = "context.summarization_threshold_tokens"
	SettingRecentMessagesToKeep   = "context.recent_messages_to_keep"
	SettingDefaultModel           = "context.default_model"
)

// AppSetting is a key/value application setting row.
type AppSetting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
