package core

import (
	"errors"
	"fmt"
	"strings"
)

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

// Category labels. Every Transaction in a ledger carries one of these.
const (
	CategoryFood           = "Food"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryShopping       = "Shopping"
	CategoryBills          = "Bills"
	CategoryOthers         = "Others"

	DefaultCategory = CategoryOthers
)

// Categories is the fixed label set in display order.
var Categories = []string{
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryBills,
	CategoryOthers,
}

var (
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// Transaction is one ledger entry. Category is assigned by the classifier
// when the transaction enters the ledger; callers never set it directly.
type Transaction struct {
	Date        string          `json:"date" validate:"required,ledgerdate"`
	Description string          `json:"description" validate:"required,max=200"`
	Amount      float64         `json:"amount" validate:"finite"`
	Type        TransactionType `json:"type" validate:"required,txtype"`
	Category    string          `json:"category"`
}

// ParseTransactionType accepts the type name in any letter case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Valid reports whether t is one of the known types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// IsCategory reports whether label belongs to the fixed category set.
func IsCategory(label string) bool {
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}

// IsExpense reports whether the transaction counts toward spending totals.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

// FormattedAmount renders the amount with two decimals, as shown to users.
func (t Transaction) FormattedAmount() string {
	return FormatAmount(t.Amount)
}

// Matches reports whether t is the transaction identified by the given
// fields: exact date, description and type, amount within AmountTolerance.
func (t Transaction) Matches(date, description string, amount float64, typ TransactionType) bool {
	return t.Date == date &&
		t.Description == description &&
		t.Type == typ &&
		AmountsMatch(t.Amount, amount)
}
