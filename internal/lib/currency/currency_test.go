package currency

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUSD(t *testing.T) {
	t.Run("groups thousands", func(t *testing.T) {
		assert.Equal(t, "$90,000.55", USD(decimal.RequireFromString("90000.55")))
	})

	t.Run("negative puts the sign before the dollar", func(t *testing.T) {
		assert.Equal(t, "-$4.76", USD(decimal.RequireFromString("-4.76")))
	})

	t.Run("zero", func(t *testing.T) {
		assert.Equal(t, "$0.00", USD(decimal.Zero))
	})

	t.Run("always two decimals", func(t *testing.T) {
		assert.Equal(t, "$20.00", USD(decimal.NewFromInt(20)))
	})
}

func TestLedger(t *testing.T) {
	assert.Equal(t, "-20.00", Ledger(decimal.NewFromInt(-20)))
	assert.Equal(t, "5.00", Ledger(decimal.RequireFromString("5")))
	// No symbol, no grouping in ledger lines.
	assert.Equal(t, "90000.55", Ledger(decimal.RequireFromString("90000.55")))
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2020, 2, 4, 13, 4, 22, 0, time.UTC)
	assert.Equal(t, "2020-02-04 13:04:22", Timestamp(ts))
}
