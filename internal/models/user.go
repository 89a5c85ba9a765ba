package models

// User is the database row for an application user.
// Only the columns the rate sync core reads are mapped here.
type User struct {
	UserID              string `db:"user_id"`
	Name                string `db:"name"`
	DefaultCurrencyCode string `db:"default_currency_code"`
	AuditFields
}
