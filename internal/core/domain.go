package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// KindCard marks a transaction settled through a billing account's cycle.
	KindCard PaymentKind = "card"
	// KindBank marks a direct bank debit withdrawn on the transaction date.
	KindBank PaymentKind = "bank"
)

type (
	PaymentKind string

	// Date is a calendar date. The time-of-day portion is always midnight UTC.
	Date struct {
		time.Time
	}

	// Money is a positive amount in whole currency units.
	Money struct {
		Amount int64
	}

	// Bank is a settlement bank, used purely as a grouping key.
	Bank struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Memo string `json:"memo,omitempty"`
	}

	// BillingAccount is a credit card with its own billing-cycle rules.
	BillingAccount struct {
		ID                string  `json:"id"`
		BankID            string  `json:"bankId"`
		Name              string  `json:"name"`
		ClosingDay        DayRule `json:"closingDay"`
		PaymentDay        DayRule `json:"paymentDay"`
		PaymentMonthShift int     `json:"paymentMonthShift"` // months after the closing month (0..2)
		WeekendAdjustment bool    `json:"weekendAdjustment"`
	}

	// Transaction is a single purchase or debit. ScheduledPayDate is computed
	// once at creation and never recomputed by later edits.
	Transaction struct {
		ID               string      `json:"id"`
		Amount           Money       `json:"amount"`
		Date             Date        `json:"date"`
		Kind             PaymentKind `json:"kind"`
		AccountID        string      `json:"accountId,omitempty"` // set when Kind == KindCard
		BankID           string      `json:"bankId,omitempty"`    // set when Kind == KindBank
		ScheduledPayDate Date        `json:"scheduledPayDate"`
		StoreName        string      `json:"storeName,omitempty"`
		Memo             string      `json:"memo,omitempty"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDay        = errors.New("invalid day of month")
	ErrInvalidMonthShift = errors.New("invalid payment month shift")
	ErrInvalidKind       = errors.New("invalid payment kind")
	ErrEmptyName         = errors.New("empty name")
	ErrMissingAccountRef = errors.New("card transaction missing billing account")
	ErrMissingBankRef    = errors.New("bank transaction missing bank")
)

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String returns the date as YYYY-MM-DD, the canonical storage and map-key form.
func (d Date) String() string {
	return d.Format("2006-01-02")
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

// InMonth reports whether the date falls in the given year and month.
func (d Date) InMonth(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (k PaymentKind) Validate() error {
	switch k {
	case KindCard, KindBank:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (m Money) Validate() error {
	if m.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount}
}

func (b Bank) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return errors.New("bank name too long (max 100 characters)")
	}
	return nil
}

func (a BillingAccount) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("account name too long (max 100 characters)")
	}
	if strings.TrimSpace(a.BankID) == "" {
		return errors.New("billing account missing settlement bank")
	}
	if err := a.ClosingDay.Validate(); err != nil {
		return errors.New("invalid closing day: " + err.Error())
	}
	if err := a.PaymentDay.Validate(); err != nil {
		return errors.New("invalid payment day: " + err.Error())
	}
	if a.PaymentMonthShift < 0 || a.PaymentMonthShift > 2 {
		return ErrInvalidMonthShift
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	switch t.Kind {
	case KindCard:
		if strings.TrimSpace(t.AccountID) == "" {
			return ErrMissingAccountRef
		}
	case KindBank:
		if strings.TrimSpace(t.BankID) == "" {
			return ErrMissingBankRef
		}
	}
	if len(t.StoreName) > 200 {
		return errors.New("store name too long (max 200 characters)")
	}
	if len(t.Memo) > 500 {
		return errors.New("memo too long (max 500 characters)")
	}
	return nil
}
