package host

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/louisbranch/menagerie/internal/services/registry/domain/engine"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

var (
	// ErrInsufficientBalance is returned when the payer cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrKeepAlive is returned when a KeepAlive transfer would leave the payer
	// below the existential deposit.
	ErrKeepAlive = errors.New("transfer would drop payer below existential deposit")
	// ErrExistentialDeposit is returned when a transfer to an empty account is
	// smaller than the existential deposit.
	ErrExistentialDeposit = errors.New("amount below existential deposit for new account")
	// ErrOverflow is returned when the payee balance would overflow.
	ErrOverflow = errors.New("balance overflow")
)

// Balances is an in-memory free-balance book with an existential deposit.
// Accounts whose balance falls below the deposit are reaped.
type Balances struct {
	mu                 sync.Mutex
	existentialDeposit state.Balance
	free               map[state.AccountID]state.Balance
}

// NewBalances returns an empty book.
func NewBalances(existentialDeposit state.Balance) *Balances {
	return &Balances{
		existentialDeposit: existentialDeposit,
		free:               map[state.AccountID]state.Balance{},
	}
}

// ExistentialDeposit returns the minimum balance a live account holds.
func (b *Balances) ExistentialDeposit() state.Balance {
	return b.existentialDeposit
}

// Endow sets the free balance of account.
func (b *Balances) Endow(account state.AccountID, amount state.Balance) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if amount < b.existentialDeposit || amount == 0 {
		delete(b.free, account)
		return
	}
	b.free[account] = amount
}

// Balance returns the free balance of account; reaped accounts hold zero.
func (b *Balances) Balance(account state.AccountID) state.Balance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.free[account]
}

// Transfer moves amount from one account to another.
func (b *Balances) Transfer(_ context.Context, from, to state.AccountID, amount state.Balance, req engine.ExistenceRequirement) error {
	if amount == 0 || from == to {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	payer := b.free[from]
	if payer < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, payer, amount)
	}
	remaining := payer - amount
	if req == engine.KeepAlive && remaining < b.existentialDeposit {
		return fmt.Errorf("%w: %s would keep %d", ErrKeepAlive, from, remaining)
	}
	payee := b.free[to]
	if payee == 0 && amount < b.existentialDeposit {
		return fmt.Errorf("%w: %d to %s", ErrExistentialDeposit, amount, to)
	}
	if payee > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s", ErrOverflow, to)
	}

	if remaining < b.existentialDeposit || remaining == 0 {
		delete(b.free, from)
	} else {
		b.free[from] = remaining
	}
	b.free[to] = payee + amount
	return nil
}

// ParseEndowments parses "account:amount" pairs separated by commas.
func ParseEndowments(raw string) (map[state.AccountID]state.Balance, error) {
	out := map[state.AccountID]state.Balance{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		account, amount, ok := strings.Cut(entry, ":")
		account = strings.TrimSpace(account)
		if !ok || account == "" {
			return nil, fmt.Errorf("endowment %q must be account:amount", entry)
		}
		value, err := strconv.ParseUint(strings.TrimSpace(amount), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("endowment %q: %w", entry, err)
		}
		out[state.AccountID(account)] = state.Balance(value)
	}
	return out, nil
}

var _ engine.CurrencyTransfer = (*Balances)(nil)
