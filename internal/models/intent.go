package models

import (
	"fmt"
	"regexp"
	"strings"
)

// ActionType is the classifier's decision about what a message wants.
type ActionType string

const (
	ActionRegisterExpense ActionType = "register_expense"
	ActionRegisterSale    ActionType = "register_sale"
	ActionQuery           ActionType = "query"
)

// Department segments revenue and expense reporting by business unit.
type Department string

const (
	DepartmentPhoto  Department = "PHOTO"
	DepartmentVideo  Department = "VIDEO"
	DepartmentWeb    Department = "WEB"
	DepartmentCommon Department = "COMMON"
)

// Channel is the sales acquisition channel. PLATFORM_A sales carry a
// platform fee, all other channels are fee-free.
type Channel string

const (
	ChannelDirect    Channel = "DIRECT"
	ChannelReferral  Channel = "REFERRAL"
	ChannelSNS       Channel = "SNS"
	ChannelWebsite   Channel = "WEBSITE"
	ChannelPlatformA Channel = "PLATFORM_A"
	ChannelPlatformB Channel = "PLATFORM_B"
	ChannelRepeat    Channel = "REPEAT"
	ChannelOther     Channel = "OTHER"
)

// SaleStatus tracks whether a sale has been collected.
type SaleStatus string

const (
	SaleStatusPaid   SaleStatus = "PAID"
	SaleStatusUnpaid SaleStatus = "UNPAID"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ExpenseData is the payload of a register_expense action.
type ExpenseData struct {
	TransactionDate string     `json:"transaction_date"`
	Amount          int64      `json:"amount"`
	AccountItem     string     `json:"account_item"`
	Department      Department `json:"department"`
	Description     string     `json:"description,omitempty"`
}

// Validate checks the payload before it may reach the ledger.
func (e *ExpenseData) Validate() error {
	if !isoDatePattern.MatchString(e.TransactionDate) {
		return fmt.Errorf("transaction_date must be an ISO date, got %q", e.TransactionDate)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", e.Amount)
	}
	if strings.TrimSpace(e.AccountItem) == "" {
		return fmt.Errorf("account_item is required")
	}
	if !ValidDepartment(e.Department) {
		return fmt.Errorf("invalid department %q", e.Department)
	}
	return nil
}

// SaleData is the payload of a register_sale action.
type SaleData struct {
	TransactionDate string     `json:"transaction_date"`
	Amount          int64      `json:"amount"`
	ClientName      string     `json:"client_name"`
	Department      Department `json:"department"`
	Channel         Channel    `json:"channel"`
	Status          SaleStatus `json:"status"`
	Description     string     `json:"description,omitempty"`
}

// Validate checks the payload before it may reach the ledger.
func (s *SaleData) Validate() error {
	if !isoDatePattern.MatchString(s.TransactionDate) {
		return fmt.Errorf("transaction_date must be an ISO date, got %q", s.TransactionDate)
	}
	if s.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", s.Amount)
	}
	if strings.TrimSpace(s.ClientName) == "" {
		return fmt.Errorf("client_name is required")
	}
	if !ValidDepartment(s.Department) {
		return fmt.Errorf("invalid department %q", s.Department)
	}
	if !ValidChannel(s.Channel) {
		return fmt.Errorf("invalid channel %q", s.Channel)
	}
	if s.Status != SaleStatusPaid && s.Status != SaleStatusUnpaid {
		return fmt.Errorf("invalid status %q", s.Status)
	}
	return nil
}

// ActionIntent is the action classifier's output. Execution only proceeds
// when Confidence >= the routing threshold and ActionType is a mutation.
type ActionIntent struct {
	ActionType ActionType   `json:"action_type"`
	Confidence float64      `json:"confidence"`
	Expense    *ExpenseData `json:"expense_data,omitempty"`
	Sale       *SaleData    `json:"sale_data,omitempty"`
}

// DefaultActionIntent is the safe fallback when classification fails:
// route to the non-mutating query branch with full confidence.
func DefaultActionIntent() *ActionIntent {
	return &ActionIntent{ActionType: ActionQuery, Confidence: 1.0}
}

// ValidDepartment reports whether d is a known department.
func ValidDepartment(d Department) bool {
	switch d {
	case DepartmentPhoto, DepartmentVideo, DepartmentWeb, DepartmentCommon:
		return true
	}
	return false
}

// ValidChannel reports whether c is a known channel.
func ValidChannel(c Channel) bool {
	switch c {
	case ChannelDirect, ChannelReferral, ChannelSNS, ChannelWebsite,
		ChannelPlatformA, ChannelPlatformB, ChannelRepeat, ChannelOther:
		return true
	}
	return false
}
