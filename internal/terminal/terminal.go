// Package terminal is the interactive frontend: it reads lines, validates
// their shape, forwards clean values to the session controller and the
// transaction engine, and prints the results. No business rule lives here.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/takeoffbank/atm/internal/config"
	"github.com/takeoffbank/atm/internal/engine"
	"github.com/takeoffbank/atm/internal/lib/currency"
	"github.com/takeoffbank/atm/internal/session"
)

const (
	accountIDLength = 10
	pinLength       = 4
)

type Terminal struct {
	config   *config.Config
	logger   *slog.Logger
	sessions *session.Controller
	engine   *engine.Engine
	in       *bufio.Scanner
	maxCash  decimal.Decimal

	outMu sync.Mutex
	out   io.Writer
}

func New(cfg *config.Config, logger *slog.Logger, sessions *session.Controller, eng *engine.Engine, in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		config:   cfg,
		logger:   logger,
		sessions: sessions,
		engine:   eng,
		in:       bufio.NewScanner(in),
		maxCash:  decimal.NewFromInt(cfg.VaultCash),
		out:      out,
	}
}

// Run drives the prompt loop until the user terminates the program or input
// ends. Session expiries are announced asynchronously while the loop is
// blocked on input, the same way the timer interrupts the prompt on a real
// machine.
func (t *Terminal) Run() error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-t.sessions.Expired():
				t.printf("Your session time has expired\n\n")
			case <-done:
				return
			}
		}
	}()

	for {
		t.printf("Please enter your account's identification number, a comma, and then your PIN\n" +
			"Example: 1234567890,1234\nOr type END to end this program\n")

		input, ok := t.readLine()
		if !ok {
			return nil
		}
		input = strings.TrimSpace(input)

		if input == "" {
			t.printf("Input error: %s\nAuthorization required.\n\n", input)
			continue
		}
		if strings.EqualFold(input, "end") {
			return nil
		}

		id, pin, err := parseCredentials(input)
		if err != nil {
			t.logger.Debug("rejected credential input", "error", err)
			t.printf("%s\nAuthorization required.\n\n", err)
			continue
		}

		authorizedID, err := t.sessions.Authorize(id, pin)
		if err != nil {
			t.printf("Authorization failed.\n\n")
			continue
		}
		t.printf("%s successfully authorized.\n\n", authorizedID)

		if t.menu() {
			return nil
		}
	}
}

// parseCredentials splits "accountID,PIN" and checks the shape of both
// halves: ten digits, a comma, then four digits (any stray non-digits in the
// PIN are dropped before the length check).
func parseCredentials(input string) (id, pin string, err error) {
	commaIndex := strings.Index(input, ",")
	if commaIndex == -1 || commaIndex == len(input)-1 {
		return "", "", fmt.Errorf("Incorrect input: %s", input)
	}
	if commaIndex != accountIDLength {
		return "", "", errors.New("This Account ID is not the correct length, it should be 10 digits")
	}

	id = input[:commaIndex]
	if !digitsOnly(id) {
		return "", "", fmt.Errorf("Invalid input: %s.", input)
	}

	pin = strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, input[commaIndex+1:])
	if len(pin) != pinLength {
		return "", "", errors.New("This PIN is not the correct length, it should be 4 digits")
	}

	return id, pin, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// menu loops over the authorized command set until the session ends. It
// returns true when the user asked to terminate the program.
func (t *Terminal) menu() bool {
	for t.sessions.Active() {
		t.printf("Please type the number for the next action you would like to take:\n" +
			"[1] Withdraw Money\n" +
			"[2] Deposit Money\n" +
			"[3] View Account Balance\n" +
			"[4] View Transaction History\n" +
			"[5] Log Out\n" +
			"[6] Terminate Program\n\n")

		input, ok := t.readLine()
		if !ok {
			return true
		}

		selection, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			t.printf("That doesn't appear to be a number. Please enter one digit only\n\n")
			continue
		}
		if selection < 1 || selection > 6 {
			t.printf("Please select a value between one and six by entering just that digit\n\n")
			continue
		}

		switch selection {
		case 1:
			t.withdraw()
		case 2:
			t.deposit()
		case 3:
			t.balance()
		case 4:
			t.history()
		case 5:
			t.logout()
		case 6:
			return true
		}
	}
	return false
}

func (t *Terminal) withdraw() {
	t.printf("Please enter the number of $20 bills you would like to withdraw. " +
		"For example, '4' will give you $80\n\n")

	input, ok := t.readLine()
	if !ok {
		return
	}
	twenties, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		t.printf("That doesn't appear to be a valid number\n\n")
		return
	}
	if twenties < 0 {
		t.printf("You cannot withdraw a negative amount. Consider depositing\n\n")
		return
	}

	// More than the machine could hold even when full; refuse before the
	// engine sees it.
	if decimal.NewFromInt(twenties).Mul(decimal.NewFromInt(20)).GreaterThan(t.maxCash) {
		t.printf("That is more money than the ATM can hold\n\n")
		return
	}

	receipt, err := t.engine.Withdraw(twenties)
	switch {
	case errors.Is(err, engine.ErrOverdrawn):
		t.printf("Your account is overdrawn! You may not make withdrawals at this time.\n\n")
	case errors.Is(err, engine.ErrInsufficientCash):
		t.printf("Unable to dispense full amount requested at this time.\n\n")
	case errors.Is(err, engine.ErrVaultEmpty):
		t.printf("Unable to process your withdrawal at this time.\n\n")
	case errors.Is(err, engine.ErrNoSession):
		t.printf("No account is currently authorized.\n\n")
	case err != nil:
		t.printf("Unable to process your withdrawal at this time.\n\n")
	case receipt.OverdraftFee:
		t.printf("Amount dispensed: %s\n\nYou have been charged an overdraft fee of $5. Current balance: %s\n\n",
			currency.USD(receipt.Dispensed), currency.USD(receipt.Balance))
	default:
		t.printf("Amount dispensed: %s\n\nCurrent balance: %s\n\n",
			currency.USD(receipt.Dispensed), currency.USD(receipt.Balance))
	}
}

func (t *Terminal) deposit() {
	t.printf("Please enter the amount you would like to deposit\n\n")

	input, ok := t.readLine()
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		t.printf("That doesn't appear to be a valid number\n\n")
		return
	}
	if amount.IsNegative() {
		t.printf("You cannot deposit a negative amount. Consider withdrawing\n\n")
		return
	}

	balance, err := t.engine.Deposit(amount.Round(2))
	if err != nil {
		t.printf("No account is currently authorized.\n\n")
		return
	}
	t.printf("Current balance: %s\n\n", currency.USD(balance))
}

func (t *Terminal) balance() {
	balance, err := t.engine.Balance()
	if err != nil {
		t.printf("No account is currently authorized.\n\n")
		return
	}
	t.printf("Current balance: %s\n\n", currency.USD(balance))
}

func (t *Terminal) history() {
	records, err := t.engine.History()
	switch {
	case errors.Is(err, engine.ErrNoHistory):
		t.printf("No history found\n\n")
	case err != nil:
		t.printf("No account is currently authorized.\n\n")
	default:
		for _, tx := range records {
			t.printf("%s %s %s\n", currency.Timestamp(tx.Time), currency.Ledger(tx.Amount), currency.Ledger(tx.Balance))
		}
		t.printf("\n")
	}
}

func (t *Terminal) logout() {
	id, ok := t.sessions.Logout()
	if !ok {
		t.printf("No account is currently authorized.\n\n")
		return
	}
	t.printf("Account %s logged out.\n\n", id)
}

func (t *Terminal) readLine() (string, bool) {
	if !t.in.Scan() {
		return "", false
	}
	return t.in.Text(), true
}

// printf is the single funnel to the output writer; the expiry announcer
// goroutine and the prompt loop both write through it.
func (t *Terminal) printf(format string, args ...any) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}
