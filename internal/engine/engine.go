// Package engine applies financial operations to the currently authorized
// account and records them in its ledger.
package engine

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/takeoffbank/atm/internal/domain/models"
	"github.com/takeoffbank/atm/internal/session"
	"github.com/takeoffbank/atm/internal/vault"
)

var (
	// ErrNoSession means a financial command arrived with nobody authorized.
	ErrNoSession = errors.New("no account is currently authorized")

	// ErrOverdrawn blocks withdrawals while the balance is at or below zero.
	ErrOverdrawn = errors.New("account is overdrawn")

	// ErrInsufficientCash means the machine holds cash, but not enough to
	// cover the request.
	ErrInsufficientCash = errors.New("unable to dispense full amount")

	// ErrVaultEmpty means the machine cannot dispense even a single $20.
	ErrVaultEmpty = errors.New("unable to process withdrawal")

	// ErrNoHistory is returned instead of an empty transaction list.
	ErrNoHistory = errors.New("no history found")
)

var (
	twentyBill   = decimal.NewFromInt(20)
	overdraftFee = decimal.NewFromInt(5)
)

// Receipt is the outcome of a successful withdrawal.
type Receipt struct {
	Dispensed    decimal.Decimal
	Balance      decimal.Decimal
	OverdraftFee bool
}

// Engine serializes all balance and vault mutations behind one mutex. The
// background expiry timer never touches balances, only the session
// reference, so this lock plus the session's own lock covers every shared
// read-modify-write in the system.
type Engine struct {
	mu       sync.Mutex
	sessions *session.Controller
	vault    *vault.Vault
	logger   *slog.Logger
	now      func() time.Time
}

func New(sessions *session.Controller, v *vault.Vault, logger *slog.Logger) *Engine {
	return &Engine{
		sessions: sessions,
		vault:    v,
		logger:   logger,
		now:      time.Now,
	}
}

// Withdraw dispenses twenties*$20 from the authorized account.
//
// An account at or below zero may not withdraw at all, not even $0. The
// requested value must be strictly less than the vault's contents; a request
// for the vault's exact remainder is refused. A withdrawal that drives the
// balance negative costs a flat $5 overdraft fee on top, applied after the
// ledger entry is written; the fee itself is not logged.
func (e *Engine) Withdraw(twenties int64) (Receipt, error) {
	acct := e.sessions.Current()
	if acct == nil {
		return Receipt{}, ErrNoSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !acct.Balance.IsPositive() {
		return Receipt{}, ErrOverdrawn
	}

	value := twentyBill.Mul(decimal.NewFromInt(twenties))
	if !e.vault.Dispense(value) {
		if e.vault.Cash().GreaterThanOrEqual(twentyBill) {
			return Receipt{}, ErrInsufficientCash
		}
		return Receipt{}, ErrVaultEmpty
	}

	acct.Balance = acct.Balance.Sub(value)
	e.record(acct, value.Neg(), acct.Balance)

	fee := acct.Balance.IsNegative()
	if fee {
		acct.Balance = acct.Balance.Sub(overdraftFee)
	}

	e.sessions.Renew()
	e.logger.Info("cash dispensed",
		slog.String("account", acct.ID),
		slog.String("amount", value.StringFixed(2)),
		slog.Bool("overdraft_fee", fee),
	)
	return Receipt{Dispensed: value, Balance: acct.Balance, OverdraftFee: fee}, nil
}

// Deposit credits amount immediately. The funds do not restock the vault;
// deposited cash and checks are held for verification. The caller validates
// the sign and rounds to cents before the amount reaches here.
func (e *Engine) Deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	acct := e.sessions.Current()
	if acct == nil {
		return decimal.Decimal{}, ErrNoSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	acct.Balance = acct.Balance.Add(amount)
	e.record(acct, amount, acct.Balance)

	e.sessions.Renew()
	e.logger.Info("deposit credited",
		slog.String("account", acct.ID),
		slog.String("amount", amount.StringFixed(2)),
	)
	return acct.Balance, nil
}

// Balance returns the current balance and renews the session.
func (e *Engine) Balance() (decimal.Decimal, error) {
	acct := e.sessions.Current()
	if acct == nil {
		return decimal.Decimal{}, ErrNoSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.sessions.Renew()
	return acct.Balance, nil
}

// History returns the ledger newest-first, or ErrNoHistory when the account
// has none. Viewing history does not renew the session.
func (e *Engine) History() ([]models.Transaction, error) {
	acct := e.sessions.Current()
	if acct == nil {
		return nil, ErrNoSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(acct.History) == 0 {
		return nil, ErrNoHistory
	}
	out := make([]models.Transaction, len(acct.History))
	copy(out, acct.History)
	return out, nil
}

// record prepends a ledger entry, keeping the history newest-first. Caller
// holds mu.
func (e *Engine) record(acct *models.Account, amount, balance decimal.Decimal) {
	tx := models.Transaction{Time: e.now(), Amount: amount, Balance: balance}
	acct.History = append([]models.Transaction{tx}, acct.History...)
}
