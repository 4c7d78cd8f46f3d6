package models

import "time"

// Subscription — состояние подписки и пробного периода одной установки приложения.
// IsPremium — единственный источник истины для ограничения функций.
type Subscription struct {
	IsPremium           bool       `json:"isPremium"`
	TrialStartDate      *time.Time `json:"trialStartDate"`
	TrialEndDate        *time.Time `json:"trialEndDate"`
	IsTrialActive       bool       `json:"isTrialActive"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate"`
}

// TrialUsed сообщает, запускался ли когда-либо пробный период.
func (s Subscription) TrialUsed() bool {
	return s.TrialStartDate != nil
}

// EntitlementStatus — ответ о доступных возможностях для клиентов API.
type EntitlementStatus struct {
	Subscription
	CanViewAllPrices    bool `json:"canViewAllPrices"`
	CanAddMedication    bool `json:"canAddMedication"`
	FreeMedicationLimit int  `json:"freeMedicationLimit"`
	MedicationsLeft     int  `json:"medicationsLeft"` // -1 для премиум-доступа без ограничений
}

// SubscriptionRequest используется для приёма даты окончания оплаченной подписки.
type SubscriptionRequest struct {
	EndDate time.Time `json:"endDate" validate:"required"`
}

// PremiumRequest используется для прямой установки флага премиум-доступа.
type PremiumRequest struct {
	IsPremium *bool `json:"isPremium" validate:"required"`
}
