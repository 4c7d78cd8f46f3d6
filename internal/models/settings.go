package models

// Language — язык интерфейса.
type Language string

const (
	LanguagePL Language = "pl"
	LanguageEN Language = "en"
)

// Valid сообщает, поддерживается ли язык.
func (l Language) Valid() bool {
	return l == LanguagePL || l == LanguageEN
}

// Settings — пользовательские настройки. Тихие часы хранятся, но при
// отправке напоминаний не учитываются.
type Settings struct {
	Language             Language `json:"language"`
	QuietHoursEnabled    bool     `json:"quietHoursEnabled"`
	QuietHoursStart      string   `json:"quietHoursStart"`
	QuietHoursEnd        string   `json:"quietHoursEnd"`
	OnboardingCompleted  bool     `json:"onboardingCompleted"`
	NotificationsEnabled bool     `json:"notificationsEnabled"`
}

// DefaultSettings возвращает настройки новой установки.
func DefaultSettings() Settings {
	return Settings{
		Language:        LanguagePL,
		QuietHoursStart: "22:00",
		QuietHoursEnd:   "08:00",
	}
}

// SettingsPatch — частичное обновление настроек из JSON-запроса.
type SettingsPatch struct {
	Language             *Language `json:"language,omitempty" validate:"omitempty,oneof=pl en"`
	QuietHoursEnabled    *bool     `json:"quietHoursEnabled,omitempty"`
	QuietHoursStart      string    `json:"quietHoursStart,omitempty" validate:"omitempty,timeofday"`
	QuietHoursEnd        string    `json:"quietHoursEnd,omitempty" validate:"omitempty,timeofday"`
	OnboardingCompleted  *bool     `json:"onboardingCompleted,omitempty"`
	NotificationsEnabled *bool     `json:"notificationsEnabled,omitempty"`
}
