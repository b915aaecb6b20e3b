// Package finance tracks manual ledger entries and the monthly rollup that
// combines them with appointment revenue.
package finance

import (
	"errors"
	"strings"
	"time"
)

// EntryType separates manual income from expenses.
type EntryType string

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

// ManualEntry is a staff-recorded ledger line, independent of appointments.
type ManualEntry struct {
	ID          string    `json:"id"`
	Type        EntryType `json:"type"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks write-time invariants and trims the description.
func (e *ManualEntry) Validate() error {
	if e.Type != EntryIncome && e.Type != EntryExpense {
		return errors.New("finance: type must be income or expense")
	}
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return errors.New("finance: description is required")
	}
	if e.AmountCents <= 0 {
		return errors.New("finance: amount must be positive")
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return errors.New("finance: date must be YYYY-MM-DD")
	}
	return nil
}

// MonthlySummary is the financial/dashboard rollup for one calendar month.
// Realized revenue counts attended appointments only; expected revenue is
// what the still-confirmed book would add.
type MonthlySummary struct {
	Month                string `json:"month"`
	AttendedRevenueCents int64  `json:"attended_revenue_cents"`
	ExpectedRevenueCents int64  `json:"expected_revenue_cents"`
	ManualIncomeCents    int64  `json:"manual_income_cents"`
	ManualExpenseCents   int64  `json:"manual_expense_cents"`
	NetCents             int64  `json:"net_cents"`
	AppointmentCount     int64  `json:"appointment_count"`
	AttendedCount        int64  `json:"attended_count"`
	CancelledCount       int64  `json:"cancelled_count"`
}
