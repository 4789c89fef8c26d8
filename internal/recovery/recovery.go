// Package recovery implements the OTP-based password recovery flow:
// request a code, verify it, reset the password. Codes are held in an
// in-memory ledger owned exclusively by the state machine.
package recovery

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/campushub/campushub/internal/auth"
	"github.com/campushub/campushub/internal/database"
	"github.com/campushub/campushub/internal/notify"
	"github.com/campushub/campushub/internal/stats"
	"github.com/campushub/campushub/internal/types"
)

const (
	otpLifetime   = 10 * time.Minute
	attemptCap    = 3
	sweepInterval = 5 * time.Minute

	minPasswordLen = 8
)

// AccountDirectory is the slice of the account directory the state
// machine needs: resolve an email to an account and rewrite a password.
type AccountDirectory interface {
	FindByEmail(email string) (database.Account, error)
	UpdatePassword(id int, role types.Role, passwordHash string) error
}

type otpRecord struct {
	code      string
	ownerId   int
	ownerRole types.Role
	expiresAt time.Time
	attempts  int
	verified  bool
}

type StateMachine struct {
	log    *log.Logger
	dir    AccountDirectory
	mailer notify.Mailer
	stats  stats.StatsProvider

	mu     sync.Mutex
	ledger map[string]*otpRecord

	stop chan struct{}
	done chan struct{}
}

func NewStateMachine(logger *log.Logger, dir AccountDirectory, mailer notify.Mailer, statsUpdater stats.StatsProvider) *StateMachine {
	return &StateMachine{
		log:    logger,
		dir:    dir,
		mailer: mailer,
		stats:  statsUpdater,
		ledger: make(map[string]*otpRecord),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateCode returns a uniformly random six digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Request starts a recovery flow for email, overwriting any prior request
// for the same address. The previous code, if any, becomes invalid. A
// failure to dispatch the code is logged, never returned.
func (sm *StateMachine) Request(email string) (types.Role, error) {
	email = normalizeEmail(email)

	account, err := sm.dir.FindByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("lookup account: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	sm.mu.Lock()
	sm.ledger[email] = &otpRecord{
		code:      code,
		ownerId:   account.Id,
		ownerRole: account.Role,
		expiresAt: time.Now().Add(otpLifetime),
	}
	sm.mu.Unlock()

	sm.stats.Incr(stats.RecoveryRequests)

	if err := sm.mailer.Send(email, "Password recovery code",
		fmt.Sprintf("Your password recovery code is %s. It expires in 10 minutes.", code)); err != nil {
		sm.log.Printf("dispatch recovery code to %q: %v", email, err)
	}

	return account.Role, nil
}

// Verify checks a submitted code. A mismatch consumes an attempt; the
// record is dropped once the attempt cap is reached or the code has
// expired. A match marks the record verified and retains it for Reset.
func (sm *StateMachine) Verify(email, code string) error {
	email = normalizeEmail(email)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	rec, ok := sm.ledger[email]
	if !ok {
		return ErrNoActiveRequest
	}

	if time.Now().After(rec.expiresAt) {
		delete(sm.ledger, email)
		return ErrExpired
	}

	if rec.attempts >= attemptCap {
		delete(sm.ledger, email)
		return ErrTooManyAttempts
	}

	if code != rec.code {
		rec.attempts++
		if rec.attempts >= attemptCap {
			delete(sm.ledger, email)
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}

	rec.verified = true
	return nil
}

// Reset consumes a verified code and rewrites the account's password in
// the credential table matching the record's owner role. This is the only
// operation that mutates the credential store.
func (sm *StateMachine) Reset(email, code, newPassword string) error {
	email = normalizeEmail(email)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	rec, ok := sm.ledger[email]
	if !ok {
		return ErrNoActiveRequest
	}

	if time.Now().After(rec.expiresAt) {
		delete(sm.ledger, email)
		return ErrExpired
	}

	if !rec.verified || code != rec.code {
		return ErrNotVerified
	}

	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := sm.dir.UpdatePassword(rec.ownerId, rec.ownerRole, passwordHash); err != nil {
		// the record is retained so the caller may retry
		return fmt.Errorf("update password: %w", err)
	}

	delete(sm.ledger, email)
	return nil
}

// sweepExpired reclaims expired records. Request, Verify and Reset check
// expiry themselves, so the sweep is purely memory reclamation.
func (sm *StateMachine) sweepExpired() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for email, rec := range sm.ledger {
		if now.After(rec.expiresAt) {
			sm.log.Printf("sweeping expired recovery code for %q", email)
			delete(sm.ledger, email)
		}
	}
}

func (sm *StateMachine) Run() {
	go func() {
		defer close(sm.done)

		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sm.sweepExpired()
			case <-sm.stop:
				return
			}
		}
	}()
}

func (sm *StateMachine) Stop() {
	close(sm.stop)
	<-sm.done
}
