package core

import "time"

// ISOTime formats t as UTC with millisecond precision.
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

type (
	// TransactionItem is a transaction joined with its account and
	// category names.
	TransactionItem struct {
		ID          string `json:"id"`
		Date        string `json:"date"`
		AccountName string `json:"accountName"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Note        string `json:"note"`
		Kind        Kind   `json:"kind"`
		Amount      int64  `json:"amount"`
	}

	TransactionPage struct {
		Items      []TransactionItem `json:"items"`
		Total      int               `json:"total"`
		Page       int               `json:"page"`
		PageSize   int               `json:"pageSize"`
		TotalPages int               `json:"totalPages"`
		Categories []string          `json:"categories"`
	}

	RangeView struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}

	SummaryTotals struct {
		TotalBalance        int64 `json:"totalBalance"`
		CurrentSpending     int64 `json:"currentSpending"`
		LargestExpenseToday int64 `json:"largestExpenseToday"`
	}

	Stat struct {
		Title     string `json:"title"`
		Icon      string `json:"icon"`
		Value     int64  `json:"value"`
		Variation int64  `json:"variation"`
	}

	AccountBalance struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Type    string `json:"type"`
		Balance int64  `json:"balance"`
	}

	BalanceView struct {
		Total    int64            `json:"total"`
		Accounts []AccountBalance `json:"accounts"`
	}

	ThresholdView struct {
		Warning  int `json:"warning"`
		Critical int `json:"critical"`
	}

	BudgetView struct {
		Limit      int64         `json:"limit"`
		Spent      int64         `json:"spent"`
		Remaining  int64         `json:"remaining"`
		Progress   int64         `json:"progress"`
		Status     BudgetStatus  `json:"status"`
		Thresholds ThresholdView `json:"thresholds"`
	}

	ChartPoint struct {
		Date   string `json:"date"`
		Amount int64  `json:"amount"`
	}

	CategorySlice struct {
		Label  string `json:"label"`
		Amount int64  `json:"amount"`
		Color  string `json:"color"`
	}

	ExpenseRow struct {
		ID          string `json:"id"`
		Date        string `json:"date"`
		ExpenseType string `json:"expenseType"`
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}

	// HomeSummary is the dashboard payload.
	HomeSummary struct {
		UserID             string          `json:"userId"`
		Range              RangeView       `json:"range"`
		Period             string          `json:"period"`
		Summary            SummaryTotals   `json:"summary"`
		Stats              []Stat          `json:"stats"`
		Balance            BalanceView     `json:"balance"`
		Budget             BudgetView      `json:"budget"`
		Chart              []ChartPoint    `json:"chart"`
		Categories         []CategorySlice `json:"categories"`
		LatestTransactions []ExpenseRow    `json:"latestTransactions"`
	}

	AvatarView struct {
		Src string `json:"src"`
	}

	SenderView struct {
		Name   string      `json:"name"`
		Avatar *AvatarView `json:"avatar,omitempty"`
	}

	NotificationView struct {
		ID     string     `json:"id"`
		Unread bool       `json:"unread"`
		Sender SenderView `json:"sender"`
		Body   string     `json:"body"`
		Date   string     `json:"date"`
		To     string     `json:"to,omitempty"`
	}
)

// View renders n for clients.
func (n Notification) View() NotificationView {
	v := NotificationView{
		ID:     n.ID,
		Unread: n.Unread,
		Sender: SenderView{Name: n.SenderName},
		Body:   n.Body,
		Date:   ISOTime(n.Date),
		To:     n.To,
	}
	if v.Sender.Name == "" {
		v.Sender.Name = DefaultSenderName
	}
	if n.SenderAvatarSrc != "" {
		v.Sender.Avatar = &AvatarView{Src: n.SenderAvatarSrc}
	}
	return v
}
