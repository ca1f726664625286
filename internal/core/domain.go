package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

const (
	Checking AccountType = "checking"
	Savings  AccountType = "savings"
	Credit   AccountType = "credit"
	Cash     AccountType = "cash"
	Other    AccountType = "other"
)

// Kind names an entity kind. KindUser covers user-level settings.
const (
	KindAccount     Kind = "account"
	KindCategory    Kind = "category"
	KindTransaction Kind = "transaction"
	KindBudget      Kind = "budget"
	KindGoal        Kind = "goal"
	KindUser        Kind = "user"
)

const maxDescriptionLen = 200

type (
	EntryType   string
	AccountType string
	Kind        string

	Date struct {
		time.Time
	}

	User struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Currency  string    `json:"currency"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Account struct {
		ID             string      `json:"id"`
		UserID         string      `json:"userId"`
		Name           string      `json:"name"`
		Type           AccountType `json:"type"`
		Balance        Money       `json:"balance"`
		OpeningBalance Money       `json:"openingBalance"`
		AccountNumber  string      `json:"accountNumber,omitempty"`
		Color          string      `json:"color,omitempty"`
		CreatedAt      time.Time   `json:"createdAt"`
	}

	Category struct {
		ID     string    `json:"id"`
		UserID string    `json:"userId"`
		Name   string    `json:"name"`
		Type   EntryType `json:"type"`
		Color  string    `json:"color,omitempty"`
		Icon   string    `json:"icon,omitempty"`
	}

	Transaction struct {
		ID            string    `json:"id"`
		UserID        string    `json:"userId"`
		AccountID     string    `json:"accountId"`
		CategoryID    *string   `json:"categoryId"` // nil means uncategorized
		Type          EntryType `json:"type"`
		Amount        Money     `json:"amount"`
		Description   string    `json:"description"`
		Date          Date      `json:"date"`
		PaymentMethod string    `json:"paymentMethod,omitempty"`
		Note          string    `json:"note,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
	}

	Budget struct {
		ID         string `json:"id"`
		UserID     string `json:"userId"`
		CategoryID string `json:"categoryId"`
		StartDate  Date   `json:"startDate"`
		EndDate    *Date  `json:"endDate"` // nil means ongoing
		Amount     Money  `json:"amount"`
		Spent      Money  `json:"spent"`
	}

	Goal struct {
		ID           string    `json:"id"`
		UserID       string    `json:"userId"`
		Name         string    `json:"name"`
		TargetAmount Money     `json:"targetAmount"`
		SavedAmount  Money     `json:"savedAmount"`
		Deadline     Date      `json:"deadline"`
		CreatedAt    time.Time `json:"createdAt"`
	}
)

const dateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping t's own wall-clock date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("date cannot be zero")
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

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// OnOrBefore reports d <= x at day granularity.
func (d Date) OnOrBefore(x Date) bool { return !d.Time.After(x.Time) }

// OnOrAfter reports d >= x at day granularity.
func (d Date) OnOrAfter(x Date) bool { return !d.Time.Before(x.Time) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts YYYY-MM-DD and full RFC 3339 timestamps.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

// Valid accepts any non-empty account type; the set is open.
func (t AccountType) Valid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Sign returns +1 for income and -1 for expense.
func (t EntryType) Sign() int64 {
	if t == Income {
		return 1
	}
	return -1
}

// EntityID implementations let the store key every entity kind uniformly.
func (a Account) EntityID() string     { return a.ID }
func (c Category) EntityID() string    { return c.ID }
func (t Transaction) EntityID() string { return t.ID }
func (b Budget) EntityID() string      { return b.ID }
func (g Goal) EntityID() string        { return g.ID }

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if !a.Type.Valid() {
		return Invalid("type", ErrInvalidType)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if !c.Type.Valid() {
		return Invalid("type", ErrInvalidType)
	}
	return nil
}

// Validate checks the fields a transaction carries on its own. Reference
// resolution happens in the ledger, which can see the store.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return Invalid("type", ErrInvalidType)
	}
	if err := t.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(t.Description) > maxDescriptionLen {
		return Invalid("description", fmt.Errorf("description too long (max %d characters)", maxDescriptionLen))
	}
	if err := t.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return Invalid("accountId", ErrMissingReference)
	}
	return nil
}

// Clone copies the transaction, including the category pointer.
func (t Transaction) Clone() Transaction {
	if t.CategoryID != nil {
		id := *t.CategoryID
		t.CategoryID = &id
	}
	return t
}

// HasCategory reports whether the transaction references categoryID.
func (t Transaction) HasCategory(categoryID string) bool {
	return t.CategoryID != nil && *t.CategoryID == categoryID
}

// Clone copies the budget, including the end date pointer.
func (b Budget) Clone() Budget {
	if b.EndDate != nil {
		end := *b.EndDate
		b.EndDate = &end
	}
	return b
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return Invalid("categoryId", ErrMissingReference)
	}
	if err := b.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := b.StartDate.Validate(); err != nil {
		return Invalid("startDate", err)
	}
	if b.EndDate != nil {
		if err := b.EndDate.Validate(); err != nil {
			return Invalid("endDate", err)
		}
		if b.EndDate.Before(b.StartDate.Time) {
			return Invalid("endDate", ErrEndBeforeStart)
		}
	}
	return nil
}

// Contains reports whether day falls inside [StartDate, EndDate|∞].
func (b Budget) Contains(day Date) bool {
	if day.Before(b.StartDate.Time) {
		return false
	}
	return b.EndDate == nil || day.OnOrBefore(*b.EndDate)
}

// Clashes reports whether a new budget b collides with existing: its start
// date, or its end date when set, falls inside existing's window.
func (b Budget) Clashes(existing Budget) bool {
	if existing.Contains(b.StartDate) {
		return true
	}
	return b.EndDate != nil && existing.Contains(*b.EndDate)
}

// Validate checks the goal against today so deadlines in the past are rejected.
func (g Goal) Validate(today Date) error {
	if strings.TrimSpace(g.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return Invalid("targetAmount", err)
	}
	if g.SavedAmount.IsNegative() {
		return Invalid("savedAmount", ErrInvalidAmount)
	}
	if g.SavedAmount.Cents > g.TargetAmount.Cents {
		return Invalid("savedAmount", ErrSavedExceedsTarget)
	}
	if err := g.Deadline.Validate(); err != nil {
		return Invalid("deadline", err)
	}
	if g.Deadline.Before(today.Time) {
		return Invalid("deadline", ErrDeadlinePassed)
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return Invalid("userId", ErrMissingReference)
	}
	return nil
}
