package identity

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		maxLength int
		want      string
		wantErr   error
	}{
		{
			name:      "plain name",
			raw:       "Jane",
			maxLength: 30,
			want:      "Jane",
		},
		{
			name:      "surrounding whitespace trimmed",
			raw:       "  Jane Doe  ",
			maxLength: 30,
			want:      "Jane Doe",
		},
		{
			name:      "empty input rejected",
			raw:       "",
			maxLength: 30,
			wantErr:   ErrEmptyName,
		},
		{
			name:      "whitespace-only input rejected",
			raw:       " \t\n ",
			maxLength: 30,
			wantErr:   ErrEmptyName,
		},
		{
			name:      "exactly max length accepted",
			raw:       strings.Repeat("a", 30),
			maxLength: 30,
			want:      strings.Repeat("a", 30),
		},
		{
			name:      "over max length rejected",
			raw:       strings.Repeat("a", 31),
			maxLength: 30,
			wantErr:   ErrNameTooLong,
		},
		{
			name:      "trimming can bring input under the limit",
			raw:       "  " + strings.Repeat("b", 30) + "  ",
			maxLength: 30,
			want:      strings.Repeat("b", 30),
		},
		{
			name:      "multibyte characters counted as runes",
			raw:       strings.Repeat("あ", 30),
			maxLength: 30,
			want:      strings.Repeat("あ", 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewInput(tt.maxLength)
			in.Set(tt.raw)

			got, err := in.Submit()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanSubmit(t *testing.T) {
	in := NewInput(30)

	assert.False(t, in.CanSubmit(), "empty input must keep the start affordance disabled")

	in.Set("   ")
	assert.False(t, in.CanSubmit())

	in.Set("  Jane  ")
	assert.True(t, in.CanSubmit())

	in.Set(strings.Repeat("x", 31))
	assert.False(t, in.CanSubmit())
}

func TestNewInput_DefaultMaxLength(t *testing.T) {
	in := NewInput(0)
	assert.Equal(t, DefaultMaxNameLength, in.MaxLength())

	in.Set(strings.Repeat("a", DefaultMaxNameLength+1))
	_, err := in.Submit()
	assert.True(t, errors.Is(err, ErrNameTooLong))
}

func TestSubmit_DoesNotMutateInput(t *testing.T) {
	in := NewInput(30)
	in.Set("  Jane  ")

	got, err := in.Submit()
	require.NoError(t, err)
	assert.Equal(t, "Jane", got)
	assert.Equal(t, "  Jane  ", in.Raw(), "Submit must not rewrite the field")
}
