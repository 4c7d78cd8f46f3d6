package models

// PharmacyPrice — цена лекарства в конкретной аптеке.
type PharmacyPrice struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Distance string  `json:"distance"`
	Address  string  `json:"address"`
	Phone    string  `json:"phone,omitempty"`
}

// PriceList — результат сравнения цен. Limited выставляется, когда
// бесплатный тариф видит только часть списка.
type PriceList struct {
	Medication string          `json:"medication"`
	Prices     []PharmacyPrice `json:"prices"`
	Total      int             `json:"total"`
	Limited    bool            `json:"limited"`
}
