// Package session tracks the single account currently authorized at the
// terminal and bounds its access with a renewable timeout.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/takeoffbank/atm/internal/domain/models"
	"github.com/takeoffbank/atm/internal/store"
)

// Timeout is how long an authorized session lives without renewal.
const Timeout = 2 * time.Minute

// ErrAuthorization covers both an unknown account ID and a wrong PIN. The
// caller gets no hint which one it was.
var ErrAuthorization = errors.New("authorization failed")

// Controller owns the authorized-account reference and the expiry timer.
// Every armed timer carries the generation it was armed for; a timer that
// fires after the session it belonged to was renewed, logged out, or
// replaced finds a newer generation and does nothing.
type Controller struct {
	store   *store.Store
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	current *models.Account
	timer   *time.Timer
	gen     uint64

	expired chan string
}

func New(st *store.Store, logger *slog.Logger) *Controller {
	return NewWithTimeout(st, logger, Timeout)
}

// NewWithTimeout exists so tests can run the expiry race in milliseconds.
func NewWithTimeout(st *store.Store, logger *slog.Logger, timeout time.Duration) *Controller {
	return &Controller{
		store:   st,
		logger:  logger,
		timeout: timeout,
		expired: make(chan string, 1),
	}
}

// Authorize grants the terminal access to the account when both the ID and
// the PIN match. Failure is uniform: a nonexistent ID and a bad PIN are
// indistinguishable to the caller.
func (c *Controller) Authorize(id, pin string) (string, error) {
	acct, ok := c.store.Find(id)
	if !ok {
		return "", ErrAuthorization
	}
	if bcrypt.CompareHashAndPassword(acct.PINHash, []byte(pin)) != nil {
		return "", ErrAuthorization
	}

	c.mu.Lock()
	c.current = acct
	c.arm()
	c.mu.Unlock()

	c.logger.Info("account authorized", slog.String("account", acct.ID))
	return acct.ID, nil
}

// Renew replaces the outstanding expiry timer with a fresh one. No-op when
// nobody is authorized.
func (c *Controller) Renew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	c.arm()
}

// arm starts a new expiry timer for the current session. Caller holds mu.
func (c *Controller) arm() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.timeout, func() { c.expire(gen) })
}

// expire runs on the timer goroutine. It only takes effect while its
// generation is still the live one.
func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.current == nil {
		c.mu.Unlock()
		return
	}
	id := c.current.ID
	c.current = nil
	c.timer = nil
	c.mu.Unlock()

	c.logger.Info("session expired", slog.String("account", id))
	select {
	case c.expired <- id:
	default:
	}
}

// Logout clears the session and reports which account was active. The
// second return is false when nobody was authorized.
func (c *Controller) Logout() (string, bool) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return "", false
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	id := c.current.ID
	c.current = nil
	c.mu.Unlock()

	c.logger.Info("account logged out", slog.String("account", id))
	return id, true
}

// Current returns the authorized account, or nil.
func (c *Controller) Current() *models.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Active reports whether any account is authorized.
func (c *Controller) Active() bool {
	return c.Current() != nil
}

// Expired delivers the ID of a session cleared by its timer, so the
// frontend can announce it asynchronously.
func (c *Controller) Expired() <-chan string {
	return c.expired
}
