package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single ledger record. Amount is negative for withdrawals
// and positive for deposits; Balance is the account balance that resulted.
type Transaction struct {
	Time    time.Time       `json:"time"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
}
