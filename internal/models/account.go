package models

// Account is a row of the accounts table.
type Account struct {
	AccountID       string  `db:"account_id"`
	Code            string  `db:"code"` // Unique on lower(code)
	Name            string  `db:"name"`
	AccountType     string  `db:"account_type"`
	NormalSide      string  `db:"normal_side"`
	Kind            string  `db:"kind"`
	ParentAccountID *string `db:"parent_account_id"` // Nullable
	Description     string  `db:"description"`
	IsActive        bool    `db:"is_active"`
	AuditFields
}
