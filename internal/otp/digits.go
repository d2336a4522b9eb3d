package otp

import (
	"strings"
	"unicode"
)

// DigitBuffer models the six single-digit entry positions of the
// verification form. Submission is only enabled once every position is
// filled; pasting a full code fans out across the positions, and
// backspace on an empty position moves focus back one place.
type DigitBuffer struct {
	digits [CodeLength]string
	focus  int
}

// NewDigitBuffer returns an empty buffer focused on the first position.
func NewDigitBuffer() *DigitBuffer {
	return &DigitBuffer{}
}

// Focus returns the currently focused position.
func (b *DigitBuffer) Focus() int { return b.focus }

// SetDigit places a single digit at the given position and advances
// focus. Non-digit input is ignored.
func (b *DigitBuffer) SetDigit(pos int, ch string) {
	if pos < 0 || pos >= CodeLength {
		return
	}
	if len(ch) != 1 || !unicode.IsDigit(rune(ch[0])) {
		return
	}
	b.digits[pos] = ch
	if pos < CodeLength-1 {
		b.focus = pos + 1
	} else {
		b.focus = pos
	}
}

// Paste fans a pasted string out across the positions, keeping only
// digits and filling at most six. Focus lands on the position after the
// last filled one.
func (b *DigitBuffer) Paste(s string) {
	var digits []string
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits = append(digits, string(r))
		}
		if len(digits) == CodeLength {
			break
		}
	}
	for i, d := range digits {
		b.digits[i] = d
	}
	if len(digits) >= CodeLength {
		b.focus = CodeLength - 1
	} else {
		b.focus = len(digits)
	}
}

// Backspace clears the digit at pos. When the position is already
// empty, focus moves to the previous position instead.
func (b *DigitBuffer) Backspace(pos int) {
	if pos < 0 || pos >= CodeLength {
		return
	}
	if b.digits[pos] == "" {
		if pos > 0 {
			b.focus = pos - 1
		}
		return
	}
	b.digits[pos] = ""
	b.focus = pos
}

// Complete reports whether all six positions are filled.
func (b *DigitBuffer) Complete() bool {
	for _, d := range b.digits {
		if d == "" {
			return false
		}
	}
	return true
}

// Code returns the concatenated digits.
func (b *DigitBuffer) Code() string {
	return strings.Join(b.digits[:], "")
}
