// Package identity provides the display name capture entity.
package identity

import (
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// DefaultMaxNameLength is the fallback display name length limit.
const DefaultMaxNameLength = 30

var (
	ErrEmptyName   = errors.New("display name is empty")
	ErrNameTooLong = errors.New("display name exceeds maximum length")
)

// Input holds the display name as typed by the user. The raw value is
// unbounded; limits are enforced on Submit only.
type Input struct {
	raw       string
	maxLength int
}

// NewInput creates an Input with the given length limit.
// A non-positive limit falls back to DefaultMaxNameLength.
func NewInput(maxLength int) *Input {
	if maxLength <= 0 {
		maxLength = DefaultMaxNameLength
	}
	return &Input{maxLength: maxLength}
}

// Set replaces the current raw value.
func (i *Input) Set(raw string) {
	i.raw = raw
}

// Raw returns the value as typed.
func (i *Input) Raw() string {
	return i.raw
}

// Trimmed returns the value with leading/trailing whitespace removed.
func (i *Input) Trimmed() string {
	return strings.TrimSpace(i.raw)
}

// CanSubmit reports whether Submit would accept the current value.
// Used to disable the start affordance while the field is empty.
func (i *Input) CanSubmit() bool {
	trimmed := i.Trimmed()
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= i.maxLength
}

// Submit validates and returns the trimmed display name.
// It does not modify the input or any session state.
func (i *Input) Submit() (string, error) {
	trimmed := i.Trimmed()
	if trimmed == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(trimmed) > i.maxLength {
		return "", errors.Wrapf(ErrNameTooLong, "%d > %d characters", utf8.RuneCountInString(trimmed), i.maxLength)
	}
	return trimmed, nil
}

// MaxLength returns the configured length limit.
func (i *Input) MaxLength() int {
	return i.maxLength
}
