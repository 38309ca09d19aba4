package core

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxNoteLength       = 200
	maxBodyLength       = 240
	maxSenderNameLength = 80
	maxRecipientLength  = 200
	minNameLength       = 2
)

type (
	// ExpenseInput records a new expense.
	ExpenseInput struct {
		AccountName  string          `json:"accountName"`
		CategoryName string          `json:"categoryName"`
		Amount       decimal.Decimal `json:"amount"`
		Note         string          `json:"note"`
		OccurredAt   *time.Time      `json:"occurredAt"`
	}

	// TransactionEdit overwrites an existing transaction.
	TransactionEdit struct {
		AccountName  string          `json:"accountName"`
		CategoryName string          `json:"categoryName"`
		Amount       decimal.Decimal `json:"amount"`
		Note         string          `json:"note"`
		OccurredAt   *time.Time      `json:"occurredAt"`
	}

	// BalanceInput tops up an account, creating it when needed.
	BalanceInput struct {
		AccountName string          `json:"accountName"`
		AccountType string          `json:"accountType"`
		Amount      decimal.Decimal `json:"amount"`
	}

	// BudgetLimitInput sets the current month's overall budget.
	BudgetLimitInput struct {
		LimitAmount       decimal.Decimal `json:"limitAmount"`
		WarningThreshold  *int            `json:"warningThreshold"`
		CriticalThreshold *int            `json:"criticalThreshold"`
	}

	// NotificationInput creates a notification.
	NotificationInput struct {
		Body            string     `json:"body"`
		SenderName      string     `json:"senderName"`
		SenderAvatarSrc string     `json:"senderAvatarSrc"`
		Date            *time.Time `json:"date"`
		To              string     `json:"to"`
	}
)

// Normalize trims the free-text fields and validates the result.
func (in *ExpenseInput) Normalize() (int64, error) {
	in.AccountName = strings.TrimSpace(in.AccountName)
	in.CategoryName = strings.TrimSpace(in.CategoryName)
	in.Note = strings.TrimSpace(in.Note)

	if err := minLength("accountName", in.AccountName); err != nil {
		return 0, err
	}
	if err := minLength("categoryName", in.CategoryName); err != nil {
		return 0, err
	}
	amount, err := validAmount("amount", in.Amount)
	if err != nil {
		return 0, err
	}
	if err := maxLength("note", in.Note, maxNoteLength); err != nil {
		return 0, err
	}
	return amount, nil
}

// Normalize trims the free-text fields, applies the default account and
// validates the result.
func (in *TransactionEdit) Normalize() (int64, error) {
	in.AccountName = strings.TrimSpace(in.AccountName)
	in.CategoryName = strings.TrimSpace(in.CategoryName)
	in.Note = strings.TrimSpace(in.Note)

	if in.AccountName != "" {
		if err := minLength("accountName", in.AccountName); err != nil {
			return 0, err
		}
	} else {
		in.AccountName = FallbackAccountName
	}
	if err := minLength("categoryName", in.CategoryName); err != nil {
		return 0, err
	}
	amount, err := validAmount("amount", in.Amount)
	if err != nil {
		return 0, err
	}
	if err := maxLength("note", in.Note, maxNoteLength); err != nil {
		return 0, err
	}
	if in.OccurredAt == nil || in.OccurredAt.IsZero() {
		return 0, Invalid("occurredAt is required")
	}
	return amount, nil
}

func (in *BalanceInput) Normalize() (int64, error) {
	in.AccountName = strings.TrimSpace(in.AccountName)
	in.AccountType = strings.TrimSpace(in.AccountType)
	if in.AccountType == "" {
		in.AccountType = DefaultAccountType
	}

	if err := minLength("accountName", in.AccountName); err != nil {
		return 0, err
	}
	if err := minLength("accountType", in.AccountType); err != nil {
		return 0, err
	}
	return validAmount("amount", in.Amount)
}

// Normalize validates the limit and returns it with the effective alert
// levels. Levels that are not strictly increasing revert to the defaults.
func (in *BudgetLimitInput) Normalize() (limit int64, warning, critical int, err error) {
	limit, err = validAmount("limitAmount", in.LimitAmount)
	if err != nil {
		return 0, 0, 0, err
	}
	warning, critical = DefaultWarningLevel, DefaultCriticalLevel
	if in.WarningThreshold != nil {
		if *in.WarningThreshold < 1 || *in.WarningThreshold > 99 {
			return 0, 0, 0, Invalid("warningThreshold must be between 1 and 99")
		}
		warning = *in.WarningThreshold
	}
	if in.CriticalThreshold != nil {
		if *in.CriticalThreshold < 1 || *in.CriticalThreshold > 100 {
			return 0, 0, 0, Invalid("criticalThreshold must be between 1 and 100")
		}
		critical = *in.CriticalThreshold
	}
	if warning >= critical {
		warning, critical = DefaultWarningLevel, DefaultCriticalLevel
	}
	return limit, warning, critical, nil
}

func (in *NotificationInput) Normalize() error {
	in.Body = strings.TrimSpace(in.Body)
	in.SenderName = strings.TrimSpace(in.SenderName)
	in.SenderAvatarSrc = strings.TrimSpace(in.SenderAvatarSrc)
	in.To = strings.TrimSpace(in.To)

	if in.Body == "" {
		return Invalid("body is required")
	}
	if err := maxLength("body", in.Body, maxBodyLength); err != nil {
		return err
	}
	if err := maxLength("senderName", in.SenderName, maxSenderNameLength); err != nil {
		return err
	}
	if in.SenderAvatarSrc != "" {
		u, err := url.Parse(in.SenderAvatarSrc)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Invalid("senderAvatarSrc must be a valid URL")
		}
	}
	return maxLength("to", in.To, maxRecipientLength)
}

func minLength(field, v string) error {
	if utf8.RuneCountInString(v) < minNameLength {
		return Invalid("%s must be at least %d characters", field, minNameLength)
	}
	return nil
}

func maxLength(field, v string, max int) error {
	if utf8.RuneCountInString(v) > max {
		return Invalid("%s must be at most %d characters", field, max)
	}
	return nil
}

func validAmount(field string, d decimal.Decimal) (int64, error) {
	v, err := WholeAmount(d)
	if err != nil {
		return 0, Invalid("%s must be a positive whole number", field)
	}
	return v, nil
}
