package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// IsBalanceSheet reports whether accounts of this type carry over between periods.
func (t AccountType) IsBalanceSheet() bool {
	return t == Asset || t == Liability || t == Equity
}

// IsIncomeStatement reports whether accounts of this type are swept at period close.
func (t AccountType) IsIncomeStatement() bool {
	return t == Revenue || t == Expense
}

// DefaultNormalSide is Debit for assets and expenses, Credit otherwise.
func (t AccountType) DefaultNormalSide() EntrySide {
	if t == Asset || t == Expense {
		return Debit
	}
	return Credit
}

// EntrySide indicates whether an amount sits on the debit or the credit side.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

func (s EntrySide) IsValid() bool { return s == Debit || s == Credit }

// Opposite returns the other side.
func (s EntrySide) Opposite() EntrySide {
	if s == Debit {
		return Credit
	}
	return Debit
}

// AccountKind separates grouping accounts from accounts that accept postings.
type AccountKind string

const (
	Header AccountKind = "HEADER"
	Detail AccountKind = "DETAIL"
)

func (k AccountKind) IsValid() bool { return k == Header || k == Detail }

// Account is a node in the chart of accounts.
type Account struct {
	AccountID       string      `json:"accountID"`       // Primary Key (UUID)
	Code            string      `json:"code"`            // Unique, case-insensitive
	Name            string      `json:"name"`            // Display name
	AccountType     AccountType `json:"accountType"`     // ASSET, LIABILITY, etc.
	NormalSide      EntrySide   `json:"normalSide"`      // Side on which the balance grows
	Kind            AccountKind `json:"kind"`            // HEADER or DETAIL
	ParentAccountID string      `json:"parentAccountID"` // Empty for root accounts
	Description     string      `json:"description"`
	IsActive        bool        `json:"isActive"`
	AuditFields
}

// IsPostable reports whether journal lines may reference this account.
func (a Account) IsPostable() bool {
	return a.IsActive && a.Kind == Detail
}

// IsRoot reports whether the account has no parent.
func (a Account) IsRoot() bool {
	return a.ParentAccountID == ""
}

// AccountNode is an account with its children, as returned by the chart tree.
type AccountNode struct {
	Account
	Children []AccountNode `json:"children,omitempty"`
}
