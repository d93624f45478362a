// Package vault tracks the cash physically held by the machine. The vault is
// only ever drained: deposits are not counted back in, because deposited
// funds need bank-side verification before they can be dispensed again.
package vault

import (
	"sync"

	"github.com/shopspring/decimal"
)

type Vault struct {
	mu   sync.Mutex
	cash decimal.Decimal
}

func New(cash decimal.Decimal) *Vault {
	return &Vault{cash: cash}
}

// Cash returns the total currently dispensable.
func (v *Vault) Cash() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cash
}

// Dispense removes amount from the vault. The caller has already checked the
// amount against the vault's contents; Dispense reports whether the
// decrement actually happened so a racing check cannot drive the vault
// negative.
func (v *Vault) Dispense(amount decimal.Decimal) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if amount.GreaterThanOrEqual(v.cash) {
		return false
	}
	v.cash = v.cash.Sub(amount)
	return true
}
