package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense  EntryType = "expense"
	Transfer EntryType = "transfer"
)

// DateLayout is the persisted form of a Date.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds free-text fields on entries and investments.
const MaxDescriptionLength = 200

type (
	// EntryType discriminates spending entries that consume money from
	// entries that only move it between accounts.
	EntryType string

	Date struct {
		time.Time
	}

	SpendingEntry struct {
		ID                  string          `json:"id"`
		Date                Date            `json:"date"`
		Amount              decimal.Decimal `json:"amount"`
		Category            string          `json:"category"`
		Description         string          `json:"description,omitempty"`
		Type                EntryType       `json:"type"`
		AccountID           string          `json:"accountId,omitempty"`
		TransferToAccountID string          `json:"transferToAccountId,omitempty"`
		CreatedAt           time.Time       `json:"createdAt"`
		UpdatedAt           time.Time       `json:"updatedAt"`
	}

	SavingsAccount struct {
		ID          string          `json:"id"`
		BankName    string          `json:"bankName"`
		AccountName string          `json:"accountName"`
		Balance     decimal.Decimal `json:"balance"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	Investment struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Amount    decimal.Decimal `json:"amount"`
		Date      Date            `json:"date"`
		Notes     string          `json:"notes,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}
)

// ErrValidation is wrapped by every input validation failure.
var ErrValidation = errors.New("validation error")

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

var (
	ErrInvalidDay          = validationError("invalid day")
	ErrInvalidMonth        = validationError("invalid month")
	ErrMissingDate         = validationError("date is required")
	ErrInvalidAmount       = validationError("amount must be greater than zero")
	ErrNegativeBalance     = validationError("balance cannot be negative")
	ErrEmptyCategory       = validationError("category is required")
	ErrDescriptionTooLong  = validationError(fmt.Sprintf("description too long (max %d characters)", MaxDescriptionLength))
	ErrInvalidEntryType    = validationError("invalid entry type")
	ErrMissingAccount      = validationError("account is required")
	ErrMissingTransferDest = validationError("transfer destination account is required")
	ErrSameAccount         = validationError("cannot transfer to the same account")
	ErrEmptyBankName       = validationError("bank name is required")
	ErrEmptyAccountName    = validationError("account name is required")
	ErrEmptyName           = validationError("name is required")
)

// Validate reports whether t is one of the known entry types.
func (t EntryType) Validate() error {
	switch t {
	case Expense, Transfer:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEntryType, string(t))
	}
}

func (t EntryType) String() string {
	return string(t)
}

// Label returns the display form used in exports.
func (t EntryType) Label() string {
	switch t {
	case Expense:
		return "Expense"
	case Transfer:
		return "Transfer"
	default:
		return string(t)
	}
}

// ParseEntryType accepts the persisted form in any letter case.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return Date{Time: t}, nil
}

// String returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// InMonth reports whether d falls in the given year and month.
func (d Date) InMonth(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts YYYY-MM-DD as well as full RFC 3339 timestamps.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = NewDate(t.Year(), int(t.Month()), t.Day())
	return nil
}

func validateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the entry's own fields. Account existence and balances are
// the ledger's concern.
func (e SpendingEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if strings.TrimSpace(e.AccountID) == "" {
		return ErrMissingAccount
	}
	switch e.Type {
	case Expense:
	case Transfer:
		if strings.TrimSpace(e.TransferToAccountID) == "" {
			return ErrMissingTransferDest
		}
		if e.TransferToAccountID == e.AccountID {
			return ErrSameAccount
		}
	}
	return nil
}

// IsExpense reports whether the entry represents consumption.
func (e SpendingEntry) IsExpense() bool {
	return e.Type == Expense
}

func (a SavingsAccount) Validate() error {
	if strings.TrimSpace(a.BankName) == "" {
		return ErrEmptyBankName
	}
	if strings.TrimSpace(a.AccountName) == "" {
		return ErrEmptyAccountName
	}
	if a.Balance.IsNegative() {
		return ErrNegativeBalance
	}
	return nil
}

// DisplayName is the "Bank - Account" label used in listings and exports.
func (a SavingsAccount) DisplayName() string {
	return a.BankName + " - " + a.AccountName
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if err := validateAmount(i.Amount); err != nil {
		return err
	}
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if len(i.Notes) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
