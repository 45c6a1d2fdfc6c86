package models

import "time"

// ReviewStatusUnchecked is the default review state of a freshly
// registered expense.
const ReviewStatusUnchecked = "unchecked"

// AccountItemPaymentFee is the account item used for the auto-registered
// platform fee expense that accompanies a fee-bearing sale.
const AccountItemPaymentFee = "payment fee"

// ExpenseRow is one expense record in the ledger store.
type ExpenseRow struct {
	ID              string
	UserID          string
	TransactionDate time.Time
	Amount          int64
	AccountItem     string
	Department      Department
	Description     string
	ReviewStatus    string
	CreatedAt       time.Time
}

// SaleRow is one sale record in the ledger store. FeeAmount and NetAmount
// are derived at registration time: fee = round(amount * rate),
// net = amount - fee.
type SaleRow struct {
	ID              string
	UserID          string
	TransactionDate time.Time
	Amount          int64
	ClientName      string
	Department      Department
	Channel         Channel
	Status          SaleStatus
	FeeAmount       int64
	NetAmount       int64
	Description     string
	CreatedAt       time.Time
}

// BankAccount is a bank account whose balance queries resolve against.
type BankAccount struct {
	ID             string
	UserID         string
	Name           string
	InitialBalance int64
}

// LedgerFilter narrows range reads against the ledger store. Zero-valued
// fields mean "no constraint". From/To are inclusive date bounds.
type LedgerFilter struct {
	From        time.Time
	To          time.Time
	Department  *Department
	AccountItem *string
	Channel     *Channel
	Status      *SaleStatus
}
