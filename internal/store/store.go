package store

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/takeoffbank/atm/internal/domain/models"
)

// Seed is one roster entry as provisioned at startup. The PIN is plaintext
// here only; it is hashed before the account is stored.
type Seed struct {
	ID      string
	PIN     string
	Balance decimal.Decimal
}

// Store holds the fixed account roster. Accounts are created once at
// construction and never added or removed afterwards.
type Store struct {
	accounts []*models.Account
}

func New(seeds []Seed) (*Store, error) {
	s := &Store{accounts: make([]*models.Account, 0, len(seeds))}
	for _, seed := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash pin for account %s: %w", seed.ID, err)
		}
		s.accounts = append(s.accounts, &models.Account{
			ID:      seed.ID,
			PINHash: hash,
			Balance: seed.Balance,
		})
	}
	return s, nil
}

// Find looks an account up by ID. The roster is four entries, so a linear
// scan is fine.
func (s *Store) Find(id string) (*models.Account, bool) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}
