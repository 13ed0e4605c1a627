package domain

import "time"

// Theme values accepted by the preference store.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// PreferenceTheme is the key the theme choice is stored under.
const PreferenceTheme = "theme"

// Preference is a single persisted client setting.
type Preference struct {
	Key       string    `gorm:"column:name;type:text;primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Preference.
func (Preference) TableName() string {
	return "preferences"
}
