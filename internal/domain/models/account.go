package models

import "github.com/shopspring/decimal"

// Account is one entry of the fixed customer roster. The PIN is kept only as
// a bcrypt hash; History is newest-first.
type Account struct {
	ID      string          `json:"id"`
	PINHash []byte          `json:"-"`
	Balance decimal.Decimal `json:"balance"`
	History []Transaction   `json:"history"`
}
