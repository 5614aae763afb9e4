// Package fixtures provides a small bank-account domain shared by the
// engine's tests: a state type, a handful of event types covering the
// success, failure and scheduling paths, and a matching decoder.
package fixtures

import (
	"context"
	"errors"
	"fmt"

	"github.com/desimkit/desim"
)

// ErrInsufficientFunds is returned by Withdraw when the balance is too low.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Account is the simulated state.
type Account struct {
	Balance int `json:"balance" yaml:"balance"`
}

// Deposit credits the account.
type Deposit struct {
	Amount int `json:"amount"`
}

func (*Deposit) EventType() string { return "deposit" }

func (e *Deposit) Apply(ctx context.Context, state Account, q *desim.Queue[Account]) (Account, error) {
	state.Balance += e.Amount
	return state, nil
}

// Withdraw debits the account. Rejects the state when the balance would go
// negative, exercising the transition failure path.
type Withdraw struct {
	Amount int `json:"amount"`
}

func (*Withdraw) EventType() string { return "withdraw" }

func (e *Withdraw) Apply(ctx context.Context, state Account, q *desim.Queue[Account]) (Account, error) {
	if e.Amount > state.Balance {
		return state, fmt.Errorf("%w: balance %d, withdrawal %d", ErrInsufficientFunds, state.Balance, e.Amount)
	}
	state.Balance -= e.Amount
	return state, nil
}

// Spawn leaves the state alone but schedules Count follow-up deposits of
// Amount each at the end of the queue, exercising deferred insertion.
type Spawn struct {
	Count  int `json:"count"`
	Amount int `json:"amount"`
}

func (*Spawn) EventType() string { return "spawn" }

func (e *Spawn) Apply(ctx context.Context, state Account, q *desim.Queue[Account]) (Account, error) {
	for i := 0; i < e.Count; i++ {
		q.PushLater(&Deposit{Amount: e.Amount})
	}
	return state, nil
}

// Fail always rejects the state.
type Fail struct {
	Reason string `json:"reason"`
}

func (*Fail) EventType() string { return "fail" }

func (e *Fail) Apply(ctx context.Context, state Account, q *desim.Queue[Account]) (Account, error) {
	return state, errors.New(e.Reason)
}

// NewAccountDecoder returns a decoder covering every fixture event type.
func NewAccountDecoder() *desim.Decoder[Account] {
	return desim.NewDecoder[Account](
		func() desim.Event[Account] { return &Deposit{} },
		func() desim.Event[Account] { return &Withdraw{} },
		func() desim.Event[Account] { return &Spawn{} },
		func() desim.Event[Account] { return &Fail{} },
	)
}
