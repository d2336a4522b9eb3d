package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// captureSender records the last code handed to it.
type captureSender struct {
	mu   sync.Mutex
	code string
}

func (s *captureSender) Send(ctx context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
	return nil
}

func (s *captureSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

func TestRequestAndConfirmCode(t *testing.T) {
	sender := &captureSender{}
	c := NewController(NewMemoryStore(), sender, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.RequestCode(ctx, "ana@example.com"))
	code := sender.last()
	require.Len(t, code, CodeLength)

	require.NoError(t, c.ConfirmCode(ctx, "ana@example.com", code))

	// The code is consumed on success
	err := c.ConfirmCode(ctx, "ana@example.com", code)
	require.True(t, errors.Is(err, ErrVerificationFailed))
}

func TestConfirmCodeWrongCode(t *testing.T) {
	sender := &captureSender{}
	c := NewController(NewMemoryStore(), sender, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.RequestCode(ctx, "ana@example.com"))

	wrong := "000000"
	if sender.last() == wrong {
		wrong = "000001"
	}
	err := c.ConfirmCode(ctx, "ana@example.com", wrong)
	require.True(t, errors.Is(err, ErrVerificationFailed))

	// A failed attempt does not consume the stored code
	require.NoError(t, c.ConfirmCode(ctx, "ana@example.com", sender.last()))
}

func TestConfirmCodeLengthGuard(t *testing.T) {
	c := NewController(NewMemoryStore(), &captureSender{}, 10*time.Minute)

	err := c.ConfirmCode(context.Background(), "ana@example.com", "123")
	require.True(t, errors.Is(err, ErrVerificationFailed))
}

func TestRequestCodeReplacesPrevious(t *testing.T) {
	sender := &captureSender{}
	c := NewController(NewMemoryStore(), sender, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.RequestCode(ctx, "ana@example.com"))
	first := sender.last()
	require.NoError(t, c.RequestCode(ctx, "ana@example.com"))
	second := sender.last()

	if first != second {
		err := c.ConfirmCode(ctx, "ana@example.com", first)
		require.True(t, errors.Is(err, ErrVerificationFailed))
	}
	require.NoError(t, c.ConfirmCode(ctx, "ana@example.com", second))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "ana@example.com", "hash", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := store.Get(ctx, "ana@example.com")
	require.Error(t, err)
}

func TestGenerateCodeFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9')
		}
	}
}
