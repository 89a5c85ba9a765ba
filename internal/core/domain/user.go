package domain

// User holds the slice of the user profile the rate sync core cares about:
// the identity and the default (reporting) currency.
type User struct {
	UserID              string `json:"userID"`
	Name                string `json:"name"`
	DefaultCurrencyCode string `json:"defaultCurrencyCode"`
	AuditFields
}
