package models

// Currency represents a supported currency row.
type Currency struct {
	CurrencyCode  string `db:"currency_code"`
	Symbol        string `db:"symbol"`
	Name          string `db:"name"`
	DecimalPlaces int    `db:"decimal_places"`
	IsActive      bool   `db:"is_active"`
	AuditFields
}
