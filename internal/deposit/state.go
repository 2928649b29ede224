package deposit

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/money"
	"github.com/example/civisos/internal/validation"
)

// Op identifies who performs an operation and when. NewID defaults to
// random UUIDs.
type Op struct {
	StaffName string
	At        time.Time
	NewID     func() string
}

func (op Op) id() string {
	if op.NewID != nil {
		return op.NewID()
	}
	return uuid.NewString()
}

// State is the deposit slice. Error is a single register for the whole slice:
// any refused operation sets it and any successful one clears it.
type State struct {
	Items []Item `json:"items"`
	Error string `json:"error,omitempty"`
}

// Edit lists the fields an edit may change. Nil fields are kept.
type Edit struct {
	ItemName *string
	Sender   *Person
	Receiver *Person
	Notes    *string
	Types    []Type
}

// Criteria filters items in Search. Empty fields match everything.
type Criteria struct {
	Keyword string
	From    *time.Time
	To      *time.Time
	Status  Status
}

func (s State) index(id string) int {
	return slices.IndexFunc(s.Items, func(i Item) bool { return i.ID == id })
}

// Item returns the item with the given id.
func (s State) Item(id string) (Item, bool) {
	i := s.index(id)
	if i < 0 {
		return Item{}, false
	}
	return s.Items[i], true
}

func (s State) refuse(err error) (State, error) {
	next := s
	next.Items = slices.Clone(s.Items)
	next.Error = err.Error()
	return next, err
}

func (s State) store(idx int, item Item) State {
	next := s
	next.Items = slices.Clone(s.Items)
	next.Items[idx] = item
	next.Error = ""
	return next
}

var itemRules = []validation.Rule{
	{Field: "senderName", Required: true, Type: validation.StringType{MaxLength: 100}},
	{Field: "receiverName", Required: true, Type: validation.StringType{MaxLength: 100}},
	{Field: "itemName", Type: validation.StringType{MaxLength: 200}},
	{Field: "staffName", Required: true, Type: validation.StringType{MaxLength: 100}},
	{Field: "notes", Type: validation.StringType{MaxLength: 500}},
}

// AddItem registers a new deposit with an active status and a create log. A
// positive opening balance is recorded as an add transaction.
func (s State) AddItem(item Item, op Op) (State, Item, error) {
	if item.StaffName == "" {
		item.StaffName = op.StaffName
	}
	errs := validation.Validate(validation.Record{
		"senderName":   item.Sender.Name,
		"receiverName": item.Receiver.Name,
		"itemName":     item.ItemName,
		"staffName":    item.StaffName,
		"notes":        item.Notes,
	}, itemRules).Errors
	if len(item.Types) == 0 {
		errs.Add(validation.FieldError{Field: "types", Message: "types must list at least one deposit type"})
	}
	for _, t := range item.Types {
		if !t.Valid() {
			errs.Add(validation.FieldError{Field: "types", Message: fmt.Sprintf("%s: %q", ErrInvalidType, t), Value: string(t)})
		}
	}
	if item.Balance.IsNegative() {
		errs.Add(validation.FieldError{Field: "currentBalance", Message: "currentBalance must not be negative", Value: item.Balance.String()})
	}
	if len(errs) > 0 {
		next, err := s.refuse(errs)
		return next, Item{}, err
	}

	if item.ID == "" {
		item.ID = op.id()
	}
	if item.DepositTime.IsZero() {
		item.DepositTime = op.At
	}
	item.Types = slices.Clone(item.Types)
	item.Status = StatusActive
	item.CreatedAt = op.At
	item.UpdatedAt = op.At
	item.Transactions = nil
	name := item.ItemName
	if name == "" {
		name = "no item name"
	}
	item.Logs = []Log{{ID: op.id(), Action: ActionCreate, Timestamp: op.At, StaffName: op.StaffName, Details: "registered: " + name}}
	if item.Balance.IsPositive() {
		if !item.HasType(TypeMoney) {
			item.Types = append(item.Types, TypeMoney)
		}
		item.Transactions = []Transaction{{ID: op.id(), Type: TransactionAdd, Amount: item.Balance, Timestamp: op.At, StaffName: op.StaffName, Note: "opening balance"}}
	}

	next := s
	next.Items = append(slices.Clone(s.Items), item)
	next.Error = ""
	return next, item, nil
}

// Edit changes descriptive fields of an item and appends an edit log.
func (s State) Edit(id string, edit Edit, op Op) (State, error) {
	idx := s.index(id)
	if idx < 0 {
		return s.refuse(fmt.Errorf("%w: %s", ErrItemNotFound, id))
	}
	for _, t := range edit.Types {
		if !t.Valid() {
			return s.refuse(fmt.Errorf("%w: %q", ErrInvalidType, t))
		}
	}
	item := s.Items[idx].clone()
	if edit.ItemName != nil {
		item.ItemName = *edit.ItemName
	}
	if edit.Sender != nil {
		item.Sender = *edit.Sender
	}
	if edit.Receiver != nil {
		item.Receiver = *edit.Receiver
	}
	if edit.Notes != nil {
		item.Notes = *edit.Notes
	}
	if len(edit.Types) > 0 {
		item.Types = slices.Clone(edit.Types)
		if item.Balance.IsPositive() && !item.HasType(TypeMoney) {
			item.Types = append(item.Types, TypeMoney)
		}
	}
	item.UpdatedAt = op.At
	item.Logs = append(item.Logs, Log{ID: op.id(), Action: ActionEdit, Timestamp: op.At, StaffName: op.StaffName, Details: "details edited"})
	return s.store(idx, item), nil
}

// AddMoney credits an active item.
func (s State) AddMoney(id string, amount decimal.Decimal, op Op) (State, error) {
	if err := money.Positive(amount); err != nil {
		return s.refuse(fmt.Errorf("%w: %s", ErrInvalidAmount, amount))
	}
	idx := s.index(id)
	if idx < 0 {
		return s.refuse(fmt.Errorf("%w: %s", ErrItemNotFound, id))
	}
	item := s.Items[idx].clone()
	if err := item.requireActive(); err != nil {
		return s.refuse(err)
	}

	if !item.HasType(TypeMoney) {
		item.Types = append(item.Types, TypeMoney)
	}
	item.Transactions = append(item.Transactions, Transaction{ID: op.id(), Type: TransactionAdd, Amount: amount, Timestamp: op.At, StaffName: op.StaffName})
	item.Balance = item.Balance.Add(amount)
	item.UpdatedAt = op.At
	item.Logs = append(item.Logs, Log{
		ID:        op.id(),
		Action:    ActionAddMoney,
		Timestamp: op.At,
		StaffName: op.StaffName,
		Details:   "deposit " + money.FormatDollars(amount),
		Amount:    &amount,
	})
	return s.store(idx, item), nil
}

// SubtractMoney debits an active item when the balance covers amount. A
// refused withdrawal keeps balance and transactions, appends a failure log
// and sets the slice register.
func (s State) SubtractMoney(id string, amount decimal.Decimal, op Op) (State, error) {
	if err := money.Positive(amount); err != nil {
		return s.refuse(fmt.Errorf("%w: %s", ErrInvalidAmount, amount))
	}
	idx := s.index(id)
	if idx < 0 {
		return s.refuse(fmt.Errorf("%w: %s", ErrItemNotFound, id))
	}
	item := s.Items[idx].clone()
	if err := item.requireActive(); err != nil {
		return s.refuse(err)
	}

	balance := item.Balance
	if amount.GreaterThan(balance) {
		item.Logs = append(item.Logs, Log{
			ID:        op.id(),
			Action:    ActionSubtractMoney,
			Timestamp: op.At,
			StaffName: op.StaffName,
			Details: fmt.Sprintf("withdrawal failed: insufficient balance (attempted %s, balance %s)",
				money.FormatDollars(amount), money.FormatDollars(balance)),
			Amount: &amount,
		})
		err := fmt.Errorf("%w: attempted %s, balance %s", ErrInsufficientBalance, money.FormatDollars(amount), money.FormatDollars(balance))
		next := s.store(idx, item)
		next.Error = err.Error()
		return next, err
	}

	if !item.HasType(TypeMoney) {
		item.Types = append(item.Types, TypeMoney)
	}
	item.Transactions = append(item.Transactions, Transaction{ID: op.id(), Type: TransactionSubtract, Amount: amount, Timestamp: op.At, StaffName: op.StaffName})
	item.Balance = balance.Sub(amount)
	item.UpdatedAt = op.At
	item.Logs = append(item.Logs, Log{
		ID:        op.id(),
		Action:    ActionSubtractMoney,
		Timestamp: op.At,
		StaffName: op.StaffName,
		Details: fmt.Sprintf("withdrawal %s, balance %s → %s",
			money.FormatDollars(amount), money.FormatDollars(balance), money.FormatDollars(item.Balance)),
		Amount: &amount,
	})
	return s.store(idx, item), nil
}

// Retrieve closes an active item as picked up.
func (s State) Retrieve(id string, op Op) (State, error) {
	idx := s.index(id)
	if idx < 0 {
		return s.refuse(fmt.Errorf("%w: %s", ErrItemNotFound, id))
	}
	item := s.Items[idx].clone()
	if err := item.requireActive(); err != nil {
		return s.refuse(err)
	}
	at := op.At
	item.Status = StatusRetrieved
	item.RetrievedAt = &at
	item.UpdatedAt = at
	item.Logs = append(item.Logs, Log{ID: op.id(), Action: ActionRetrieve, Timestamp: at, StaffName: op.StaffName, Details: "retrieved"})
	return s.store(idx, item), nil
}

// Revert cancels an active registration. Any remaining money balance is
// settled with a balancing subtract transaction so the balance ends at zero.
func (s State) Revert(id string, op Op) (State, error) {
	idx := s.index(id)
	if idx < 0 {
		return s.refuse(fmt.Errorf("%w: %s", ErrItemNotFound, id))
	}
	item := s.Items[idx].clone()
	if err := item.requireActive(); err != nil {
		return s.refuse(fmt.Errorf("cannot revert: %w", err))
	}

	at := op.At
	balance := item.Balance
	item.Status = StatusCancelled
	item.CancelledAt = &at
	item.CancelledBy = op.StaffName
	item.UpdatedAt = at
	if item.HasType(TypeMoney) && !balance.IsZero() {
		item.Transactions = append(item.Transactions, Transaction{
			ID:        op.id(),
			Type:      TransactionSubtract,
			Amount:    balance.Abs(),
			Timestamp: at,
			StaffName: op.StaffName,
			Note:      "balance settled on revert",
		})
		item.Balance = decimal.Zero
	}
	item.Logs = append(item.Logs, Log{
		ID:        op.id(),
		Action:    ActionCancel,
		Timestamp: at,
		StaffName: op.StaffName,
		Details:   fmt.Sprintf("registration reverted: remaining balance %s returned and settled", money.FormatDollars(balance)),
	})
	return s.store(idx, item), nil
}

// Search returns items matching every set criterion. The keyword is matched
// case-insensitively against sender, receiver, item name, staff and notes.
func (s State) Search(c Criteria) []Item {
	keyword := strings.ToLower(strings.TrimSpace(c.Keyword))
	var out []Item
	for _, item := range s.Items {
		if c.Status != "" && item.Status != c.Status {
			continue
		}
		if c.From != nil && item.DepositTime.Before(*c.From) {
			continue
		}
		if c.To != nil && item.DepositTime.After(*c.To) {
			continue
		}
		if keyword != "" && !matches(item, keyword) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matches(item Item, keyword string) bool {
	for _, field := range []string{item.Sender.Name, item.Receiver.Name, item.ItemName, item.StaffName, item.Notes} {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}

// TotalBalance sums the balances of active items.
func (s State) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		if item.Status == StatusActive {
			total = total.Add(item.Balance)
		}
	}
	return total
}
