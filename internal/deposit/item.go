// Package deposit tracks items, keys and money left at the front desk.
//
// Money balances never go negative: withdrawals larger than the balance are
// refused, and the refusal is still written to the item's audit log.
package deposit

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound        = errors.New("deposit item not found")
	ErrItemNotActive       = errors.New("deposit item not active")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidType         = errors.New("invalid deposit type")
)

// Type is what was deposited. An item can carry several types at once.
type Type string

const (
	TypeItem  Type = "item"
	TypeMoney Type = "money"
	TypeKey   Type = "key"
)

// Valid reports whether t is a known deposit type.
func (t Type) Valid() bool {
	return t == TypeItem || t == TypeMoney || t == TypeKey
}

// Status is the lifecycle state of a deposit.
type Status string

const (
	StatusActive    Status = "active"
	StatusRetrieved Status = "retrieved"
	StatusCancelled Status = "cancelled"
)

// PersonType tells residents from outside visitors.
type PersonType string

const (
	PersonResident PersonType = "resident"
	PersonExternal PersonType = "external"
)

// Person is the sender or receiver of a deposit.
type Person struct {
	Type       PersonType `json:"type"`
	Name       string     `json:"name"`
	BuildingID string     `json:"buildingId,omitempty"`
	UnitID     string     `json:"unitId,omitempty"`
}

// TransactionType is the direction of a money movement.
type TransactionType string

const (
	TransactionAdd      TransactionType = "add"
	TransactionSubtract TransactionType = "subtract"
)

// Transaction is one money movement on a deposit.
type Transaction struct {
	ID        string          `json:"id"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	StaffName string          `json:"staffName"`
	Note      string          `json:"note,omitempty"`
}

// Action names an audit log entry.
type Action string

const (
	ActionCreate        Action = "create"
	ActionEdit          Action = "edit"
	ActionRetrieve      Action = "retrieve"
	ActionCancel        Action = "cancel"
	ActionAddMoney      Action = "add_money"
	ActionSubtractMoney Action = "subtract_money"
)

// Log is an audit entry. Failed operations are logged as well.
type Log struct {
	ID        string           `json:"id"`
	Action    Action           `json:"action"`
	Timestamp time.Time        `json:"timestamp"`
	StaffName string           `json:"staffName"`
	Details   string           `json:"details"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

// Item is one deposit registration.
type Item struct {
	ID           string          `json:"id"`
	Types        []Type          `json:"types"`
	ItemName     string          `json:"itemName,omitempty"`
	Sender       Person          `json:"sender"`
	Receiver     Person          `json:"receiver"`
	DepositTime  time.Time       `json:"depositTime"`
	StaffName    string          `json:"staffName"`
	Notes        string          `json:"notes,omitempty"`
	Status       Status          `json:"status"`
	Balance      decimal.Decimal `json:"currentBalance"`
	Transactions []Transaction   `json:"transactions"`
	Logs         []Log           `json:"logs"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	RetrievedAt  *time.Time      `json:"retrievedAt,omitempty"`
	CancelledAt  *time.Time      `json:"cancelledAt,omitempty"`
	CancelledBy  string          `json:"cancelledBy,omitempty"`
}

// HasType reports whether the item carries t.
func (i Item) HasType(t Type) bool {
	return slices.Contains(i.Types, t)
}

// clone copies the slices an operation may append to.
func (i Item) clone() Item {
	i.Types = slices.Clone(i.Types)
	i.Transactions = slices.Clone(i.Transactions)
	i.Logs = slices.Clone(i.Logs)
	return i
}

func (i Item) requireActive() error {
	if i.Status != StatusActive {
		return fmt.Errorf("%w: %s is %s", ErrItemNotActive, i.ID, i.Status)
	}
	return nil
}
