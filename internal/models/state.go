package models

// Ключи блобов состояния в хранилище.
const (
	StateMedications  = "medications"
	StateSettings     = "settings"
	StateSubscription = "subscription"
)
