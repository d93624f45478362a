package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeoffbank/atm/internal/session"
	"github.com/takeoffbank/atm/internal/store"
	"github.com/takeoffbank/atm/internal/vault"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEngine builds an engine over a fresh roster and vault, with the session
// timeout stretched far past test runtime unless overridden.
func newEngine(t *testing.T, vaultCash int64, timeout time.Duration) (*Engine, *session.Controller) {
	t.Helper()
	st, err := store.New([]store.Seed{
		{ID: "2859459814", PIN: "7386", Balance: decimal.RequireFromString("10.24")},
		{ID: "1434597300", PIN: "4557", Balance: decimal.RequireFromString("90000.55")},
		{ID: "7089382418", PIN: "0075", Balance: decimal.RequireFromString("0.00")},
	})
	require.NoError(t, err)
	sessions := session.NewWithTimeout(st, testLogger(), timeout)
	return New(sessions, vault.New(decimal.NewFromInt(vaultCash)), testLogger()), sessions
}

func authorize(t *testing.T, sessions *session.Controller, id, pin string) {
	t.Helper()
	_, err := sessions.Authorize(id, pin)
	require.NoError(t, err)
}

func TestDeposit(t *testing.T) {
	e, sessions := newEngine(t, 10000, time.Hour)
	authorize(t, sessions, "2859459814", "7386")

	balance, err := e.Deposit(decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	assert.Equal(t, "15.24", balance.StringFixed(2))

	records, err := e.History()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "5.00", records[0].Amount.StringFixed(2))
	assert.Equal(t, "15.24", records[0].Balance.StringFixed(2))
}

func TestWithdraw(t *testing.T) {
	t.Run("decrements balance and vault", func(t *testing.T) {
		e, sessions := newEngine(t, 10000, time.Hour)
		authorize(t, sessions, "1434597300", "4557")

		receipt, err := e.Withdraw(3)
		require.NoError(t, err)
		assert.Equal(t, "60.00", receipt.Dispensed.StringFixed(2))
		assert.Equal(t, "89940.55", receipt.Balance.StringFixed(2))
		assert.False(t, receipt.OverdraftFee)
		assert.Equal(t, "9940.00", e.vault.Cash().StringFixed(2))
	})

	t.Run("overdraft charges the fee once, after the ledger entry", func(t *testing.T) {
		e, sessions := newEngine(t, 10000, time.Hour)
		authorize(t, sessions, "2859459814", "7386")

		_, err := e.Deposit(decimal.RequireFromString("5.00"))
		require.NoError(t, err)

		receipt, err := e.Withdraw(1)
		require.NoError(t, err)
		assert.Equal(t, "20.00", receipt.Dispensed.StringFixed(2))
		assert.True(t, receipt.OverdraftFee)
		assert.Equal(t, "-9.76", receipt.Balance.StringFixed(2))

		// The ledger records the pre-fee balance; the fee has no entry of
		// its own.
		records, err := e.History()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "-20.00", records[0].Amount.StringFixed(2))
		assert.Equal(t, "-4.76", records[0].Balance.StringFixed(2))
		assert.Equal(t, "5.00", records[1].Amount.StringFixed(2))
		assert.Equal(t, "15.24", records[1].Balance.StringFixed(2))
	})

	t.Run("request equal to the vault contents is refused", func(t *testing.T) {
		e, sessions := newEngine(t, 40, time.Hour)
		authorize(t, sessions, "1434597300", "4557")

		_, err := e.Withdraw(2)
		assert.ErrorIs(t, err, ErrInsufficientCash)
		assert.Equal(t, "40.00", e.vault.Cash().StringFixed(2))
	})

	t.Run("vault below one bill cannot process at all", func(t *testing.T) {
		e, sessions := newEngine(t, 10, time.Hour)
		authorize(t, sessions, "1434597300", "4557")

		_, err := e.Withdraw(1)
		assert.ErrorIs(t, err, ErrVaultEmpty)
	})

	t.Run("overdrawn account is blocked for any count", func(t *testing.T) {
		e, sessions := newEngine(t, 10000, time.Hour)
		authorize(t, sessions, "7089382418", "0075")

		_, err := e.Withdraw(1)
		assert.ErrorIs(t, err, ErrOverdrawn)
		_, err = e.Withdraw(0)
		assert.ErrorIs(t, err, ErrOverdrawn)
	})

	t.Run("zero twenties is a logged no-op", func(t *testing.T) {
		e, sessions := newEngine(t, 10000, time.Hour)
		authorize(t, sessions, "2859459814", "7386")

		receipt, err := e.Withdraw(0)
		require.NoError(t, err)
		assert.Equal(t, "0.00", receipt.Dispensed.StringFixed(2))
		assert.Equal(t, "10.24", receipt.Balance.StringFixed(2))

		records, err := e.History()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "0.00", records[0].Amount.StringFixed(2))
	})
}

func TestBalance(t *testing.T) {
	e, sessions := newEngine(t, 10000, time.Hour)
	authorize(t, sessions, "1434597300", "4557")

	balance, err := e.Balance()
	require.NoError(t, err)
	assert.Equal(t, "90000.55", balance.StringFixed(2))
}

func TestHistory(t *testing.T) {
	e, sessions := newEngine(t, 10000, time.Hour)
	authorize(t, sessions, "1434597300", "4557")

	t.Run("empty account has no history", func(t *testing.T) {
		_, err := e.History()
		assert.ErrorIs(t, err, ErrNoHistory)
	})

	t.Run("records come back newest first", func(t *testing.T) {
		for _, amt := range []string{"1.00", "2.00", "3.00"} {
			_, err := e.Deposit(decimal.RequireFromString(amt))
			require.NoError(t, err)
		}

		records, err := e.History()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "3.00", records[0].Amount.StringFixed(2))
		assert.Equal(t, "2.00", records[1].Amount.StringFixed(2))
		assert.Equal(t, "1.00", records[2].Amount.StringFixed(2))
		for i := 0; i < len(records)-1; i++ {
			assert.False(t, records[i].Time.Before(records[i+1].Time))
		}
	})
}

func TestNoSession(t *testing.T) {
	e, _ := newEngine(t, 10000, time.Hour)

	_, err := e.Withdraw(1)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = e.Deposit(decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = e.Balance()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = e.History()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestOperationsRenewSession(t *testing.T) {
	t.Run("balance renews", func(t *testing.T) {
		e, sessions := newEngine(t, 10000, 120*time.Millisecond)
		authorize(t, sessions, "1434597300", "4557")

		for i := 0; i < 3; i++ {
			time.Sleep(70 * time.Millisecond)
			_, err := e.Balance()
			require.NoError(t, err)
		}
		// 210ms of wall clock, well past the original deadline.
		assert.True(t, sessions.Active())
	})

	t.Run("history does not renew", func(t *testing.T) {
		e, sessions := newEngine(t, 10000, 120*time.Millisecond)
		authorize(t, sessions, "1434597300", "4557")
		_, err := e.Deposit(decimal.NewFromInt(1))
		require.NoError(t, err)

		deadline := time.After(time.Second)
		for sessions.Active() {
			if _, err := e.History(); err != nil {
				break
			}
			select {
			case <-deadline:
				t.Fatal("session kept alive by history viewing")
			case <-time.After(30 * time.Millisecond):
			}
		}
		assert.False(t, sessions.Active())
	})
}
