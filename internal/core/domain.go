package core

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date form used by expenses, EMIs and drafts.
const DateLayout = "2006-01-02"

const (
	Food             Category = "Food"
	Transport        Category = "Transport"
	Utilities        Category = "Utilities"
	Entertainment    Category = "Entertainment"
	Shopping         Category = "Shopping"
	Healthcare       Category = "Healthcare"
	Education        Category = "Education"
	Others           Category = "Others"
	Subtract         Category = "Subtract"
	AutopayDeduction Category = "AutopayDeduction"
	CategoryLoanEMI  Category = "LoanEMI"

	// Investment is offered by the category picker but is not accepted by
	// validation.
	Investment Category = "Investment/MF/SIP"
)

const (
	UPI        PaymentType = "UPI"
	DebitCard  PaymentType = "Debit Card"
	CreditCard PaymentType = "Credit Card"
	Cash       PaymentType = "Cash"
)

const (
	English Language = "en"
	Hindi   Language = "hi"
)

type (
	Category    string
	PaymentType string
	Language    string

	Expense struct {
		ID          string      `json:"id"`
		Amount      float64     `json:"amount"`
		Category    Category    `json:"category"`
		Date        string      `json:"date"`
		Notes       string      `json:"notes,omitempty"`
		PaymentType PaymentType `json:"paymentType,omitempty"`
		CreatedAt   time.Time   `json:"createdAt"`
	}

	// Budget is the single active monthly budget. Month is zero-based.
	Budget struct {
		Monthly float64 `json:"monthly"`
		Year    int     `json:"year"`
		Month   int     `json:"month"`
	}

	LoanEMI struct {
		ID          string      `json:"id"`
		LoanType    string      `json:"loanType"`
		Amount      float64     `json:"amount"`
		DueDate     string      `json:"dueDate"`
		PaymentType PaymentType `json:"paymentType,omitempty"`
		Notes       string      `json:"notes,omitempty"`
		IsPaid      bool        `json:"isPaid"`
		CreatedAt   time.Time   `json:"createdAt"`
	}

	AppSettings struct {
		Language           Language `json:"language"`
		DarkMode           bool     `json:"darkMode"`
		HasAcceptedPrivacy bool     `json:"hasAcceptedPrivacy"`
		AppLockEnabled     bool     `json:"appLockEnabled"`
	}

	// Draft pre-fills the add-expense form across sessions. Fields hold raw
	// form input and are validated only when the draft is submitted.
	Draft struct {
		Amount      string `json:"amount,omitempty"`
		Category    string `json:"category,omitempty"`
		Date        string `json:"date,omitempty"`
		Notes       string `json:"notes,omitempty"`
		PaymentType string `json:"paymentType,omitempty"`
	}
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrPersist    = errors.New("persist failed")
)

var categories = []Category{
	Food, Transport, Utilities, Entertainment, Shopping, Healthcare,
	Education, Others, Subtract, AutopayDeduction, CategoryLoanEMI,
}

var paymentTypes = []PaymentType{UPI, DebitCard, CreditCard, Cash}

// Categories returns the accepted categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// PaymentTypes returns the accepted payment types in display order.
func PaymentTypes() []PaymentType {
	return append([]PaymentType(nil), paymentTypes...)
}

func (c Category) IsValid() bool {
	for _, v := range categories {
		if c == v {
			return true
		}
	}
	return false
}

func (p PaymentType) IsValid() bool {
	for _, v := range paymentTypes {
		if p == v {
			return true
		}
	}
	return false
}

// OrDefault returns Cash for an unset payment type.
func (p PaymentType) OrDefault() PaymentType {
	if p == "" {
		return Cash
	}
	return p
}

func (l Language) IsValid() bool {
	return l == English || l == Hindi
}

// DefaultSettings is used when no settings have been persisted yet.
func DefaultSettings() AppSettings {
	return AppSettings{Language: English, DarkMode: true}
}

// InMonth reports whether the budget was set for t's calendar month.
func (b Budget) InMonth(t time.Time) bool {
	return b.Year == t.Year() && b.Month == int(t.Month())-1
}

// ParseDate parses a YYYY-MM-DD string at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// SameMonth reports whether the YYYY-MM-DD date falls in t's calendar month.
// Malformed dates never match.
func SameMonth(date string, t time.Time) bool {
	d, err := ParseDate(date, t.Location())
	if err != nil {
		return false
	}
	return d.Year() == t.Year() && d.Month() == t.Month()
}

// Today formats t as a YYYY-MM-DD date.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
