// Package otp issues and confirms one-time verification codes used to
// prove contact ownership before an unauthenticated booking.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// ErrVerificationFailed is returned when a submitted code does not
// match or has expired. The customer may retry or request a new code.
var ErrVerificationFailed = errors.New("verification code invalid or expired")

// Sender delivers a code out of band (email, SMS).
type Sender interface {
	Send(ctx context.Context, email, code string) error
}

// Controller requests and confirms one-time codes
type Controller struct {
	store  Store
	sender Sender
	ttl    time.Duration
}

// NewController creates a controller with the given code store and
// delivery channel.
func NewController(store Store, sender Sender, ttl time.Duration) *Controller {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Controller{store: store, sender: sender, ttl: ttl}
}

// RequestCode generates a fresh 6-digit code for the email, stores its
// hash with a TTL, and triggers out-of-band delivery. Requesting again
// replaces any previous code.
func (c *Controller) RequestCode(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	if err := c.store.Save(ctx, email, string(hash), c.ttl); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := c.sender.Send(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}
	return nil
}

// ConfirmCode checks a submitted code against the stored hash. The
// code is consumed on success; on failure it stays valid so the
// customer can retry until the TTL runs out.
func (c *Controller) ConfirmCode(ctx context.Context, email, code string) error {
	if len(code) != CodeLength {
		return ErrVerificationFailed
	}

	hash, err := c.store.Get(ctx, email)
	if err != nil {
		return ErrVerificationFailed
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return ErrVerificationFailed
	}

	// Best effort: an already-expired key is fine
	_ = c.store.Delete(ctx, email)
	return nil
}

// generateCode produces a zero-padded 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
