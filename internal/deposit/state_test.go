package deposit_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/civisos/internal/deposit"
	"github.com/example/civisos/internal/money"
	"github.com/example/civisos/internal/validation"
)

var at = time.Date(2026, 2, 3, 14, 0, 0, 0, time.UTC)

func op() deposit.Op {
	n := 0
	return deposit.Op{
		StaffName: "desk-1",
		At:        at,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}
}

func moneyItem(t *testing.T, balance int64) (deposit.State, string) {
	t.Helper()
	state, item, err := deposit.State{}.AddItem(deposit.Item{
		ID:       "D1",
		Types:    []deposit.Type{deposit.TypeMoney},
		Sender:   deposit.Person{Type: deposit.PersonResident, Name: "Wang"},
		Receiver: deposit.Person{Type: deposit.PersonExternal, Name: "Courier"},
		Balance:  money.FromInt(balance),
	}, op())
	require.NoError(t, err)
	return state, item.ID
}

func TestSubtractMoney(t *testing.T) {
	t.Run("exact balance succeeds", func(t *testing.T) {
		state, id := moneyItem(t, 300)
		state.Error = "stale"

		next, err := state.SubtractMoney(id, money.FromInt(300), op())
		require.NoError(t, err)
		item, _ := next.Item(id)
		assert.True(t, item.Balance.IsZero())
		assert.Empty(t, next.Error)
		require.Len(t, item.Transactions, 2)
		assert.Equal(t, deposit.TransactionSubtract, item.Transactions[1].Type)
		assert.Equal(t, "withdrawal $300, balance $300 → $0", item.Logs[len(item.Logs)-1].Details)
	})

	t.Run("overdraw is refused and logged", func(t *testing.T) {
		state, id := moneyItem(t, 300)
		before, _ := state.Item(id)

		next, err := state.SubtractMoney(id, money.FromInt(301), op())
		require.ErrorIs(t, err, deposit.ErrInsufficientBalance)
		assert.Equal(t, "insufficient balance: attempted $301, balance $300", next.Error)

		item, _ := next.Item(id)
		assert.Equal(t, "300", item.Balance.String())
		assert.Equal(t, before.Transactions, item.Transactions)
		require.Len(t, item.Logs, len(before.Logs)+1)
		failure := item.Logs[len(item.Logs)-1]
		assert.Equal(t, deposit.ActionSubtractMoney, failure.Action)
		assert.Equal(t, "withdrawal failed: insufficient balance (attempted $301, balance $300)", failure.Details)

		stored, _ := state.Item(id)
		assert.Len(t, stored.Logs, len(before.Logs))
	})

	t.Run("decimal arithmetic", func(t *testing.T) {
		state, id := moneyItem(t, 0)
		state, err := state.AddMoney(id, money.FromFloat(0.1), op())
		require.NoError(t, err)
		state, err = state.AddMoney(id, money.FromFloat(0.2), op())
		require.NoError(t, err)
		state, err = state.SubtractMoney(id, money.FromFloat(0.3), op())
		require.NoError(t, err)
		item, _ := state.Item(id)
		assert.True(t, item.Balance.IsZero(), item.Balance.String())
	})

	t.Run("non-positive amount", func(t *testing.T) {
		state, id := moneyItem(t, 10)
		_, err := state.SubtractMoney(id, money.FromInt(0), op())
		assert.ErrorIs(t, err, deposit.ErrInvalidAmount)
		_, err = state.AddMoney(id, money.FromInt(-1), op())
		assert.ErrorIs(t, err, deposit.ErrInvalidAmount)
	})

	t.Run("inactive item", func(t *testing.T) {
		state, id := moneyItem(t, 10)
		state, err := state.Retrieve(id, op())
		require.NoError(t, err)
		next, err := state.SubtractMoney(id, money.FromInt(1), op())
		assert.ErrorIs(t, err, deposit.ErrItemNotActive)
		assert.NotEmpty(t, next.Error)
	})

	t.Run("register is slice wide", func(t *testing.T) {
		state, id := moneyItem(t, 5)
		state, _, err := state.AddItem(deposit.Item{
			ID:       "D2",
			Types:    []deposit.Type{deposit.TypeKey},
			Sender:   deposit.Person{Name: "Lee"},
			Receiver: deposit.Person{Name: "Ho"},
		}, op())
		require.NoError(t, err)

		state, err = state.SubtractMoney(id, money.FromInt(6), op())
		require.Error(t, err)
		require.NotEmpty(t, state.Error)

		state, err = state.AddMoney("D2", money.FromInt(50), op())
		require.NoError(t, err)
		assert.Empty(t, state.Error)
		d2, _ := state.Item("D2")
		assert.True(t, d2.HasType(deposit.TypeMoney))
	})
}

func TestAddItem(t *testing.T) {
	state, item, err := deposit.State{}.AddItem(deposit.Item{
		Types:    []deposit.Type{deposit.TypeItem},
		Sender:   deposit.Person{Name: "Wang"},
		Receiver: deposit.Person{Name: "Lin"},
	}, op())
	require.NoError(t, err)
	assert.Equal(t, "id-1", item.ID)
	assert.Equal(t, deposit.StatusActive, item.Status)
	assert.Equal(t, "desk-1", item.StaffName)
	assert.Equal(t, at, item.DepositTime)
	require.Len(t, item.Logs, 1)
	assert.Equal(t, "registered: no item name", item.Logs[0].Details)
	assert.Empty(t, item.Transactions)
	assert.Len(t, state.Items, 1)

	_, _, err = deposit.State{}.AddItem(deposit.Item{Types: []deposit.Type{"cash"}}, op())
	errs := validation.Extract(err)
	assert.True(t, errs.Has("types"))
	assert.True(t, errs.Has("senderName"))
	assert.True(t, errs.Has("receiverName"))
}

func TestEdit(t *testing.T) {
	state, id := moneyItem(t, 20)
	name := "Envelope"
	next, err := state.Edit(id, deposit.Edit{ItemName: &name, Types: []deposit.Type{deposit.TypeItem}}, op())
	require.NoError(t, err)
	item, _ := next.Item(id)
	assert.Equal(t, "Envelope", item.ItemName)
	assert.ElementsMatch(t, []deposit.Type{deposit.TypeItem, deposit.TypeMoney}, item.Types)
	assert.Equal(t, deposit.ActionEdit, item.Logs[len(item.Logs)-1].Action)

	_, err = state.Edit("nope", deposit.Edit{}, op())
	assert.ErrorIs(t, err, deposit.ErrItemNotFound)
}

func TestRevert(t *testing.T) {
	state, id := moneyItem(t, 120)

	next, err := state.Revert(id, op())
	require.NoError(t, err)
	item, _ := next.Item(id)
	assert.Equal(t, deposit.StatusCancelled, item.Status)
	assert.Equal(t, "desk-1", item.CancelledBy)
	require.NotNil(t, item.CancelledAt)
	assert.True(t, item.Balance.IsZero())
	last := item.Transactions[len(item.Transactions)-1]
	assert.Equal(t, deposit.TransactionSubtract, last.Type)
	assert.Equal(t, "120", last.Amount.String())

	again, err := next.Revert(id, op())
	assert.ErrorIs(t, err, deposit.ErrItemNotActive)
	assert.Contains(t, again.Error, "cannot revert")
}

func TestRetrieve(t *testing.T) {
	state, id := moneyItem(t, 0)
	next, err := state.Retrieve(id, op())
	require.NoError(t, err)
	item, _ := next.Item(id)
	assert.Equal(t, deposit.StatusRetrieved, item.Status)
	require.NotNil(t, item.RetrievedAt)
	assert.Equal(t, at, *item.RetrievedAt)

	_, err = next.Retrieve(id, op())
	assert.ErrorIs(t, err, deposit.ErrItemNotActive)
}

func TestSearch(t *testing.T) {
	state, _ := moneyItem(t, 10)
	state, _, err := state.AddItem(deposit.Item{
		ID:          "D2",
		Types:       []deposit.Type{deposit.TypeKey},
		ItemName:    "Spare key",
		Sender:      deposit.Person{Name: "Lee"},
		Receiver:    deposit.Person{Name: "Ho"},
		DepositTime: at.Add(48 * time.Hour),
	}, op())
	require.NoError(t, err)

	assert.Len(t, state.Search(deposit.Criteria{Keyword: "KEY"}), 1)
	assert.Len(t, state.Search(deposit.Criteria{Keyword: "courier"}), 1)
	from := at.Add(time.Hour)
	assert.Len(t, state.Search(deposit.Criteria{From: &from}), 1)
	assert.Len(t, state.Search(deposit.Criteria{Status: deposit.StatusRetrieved}), 0)
	assert.Equal(t, "10", state.TotalBalance().String())
}
