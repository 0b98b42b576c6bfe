package conversation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize caps a cleaned message at 4KB. Every answer the bot
// expects is a code, yes/no or a number, and a command carries one domain.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// CleanInput reduces text to what the state machine reads: ANSI escape
// sequences and control characters are removed, line breaks and tabs become
// spaces, and surrounding blanks are trimmed. The size limit is checked on
// the cleaned text, so a padded "yes" from a chat client is still a "yes".
func (b *Bot) CleanInput(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}

	clean := strings.TrimSpace(stripControls(text))
	if len(clean) > b.maxInput {
		// Rejected rather than truncated: a cut domain would be searched as-is.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(clean), b.maxInput)
	}
	return clean, nil
}

func stripControls(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '\x1b' && i+1 < len(s) && s[i+1] == '[':
			i = skipCSI(s, i+2)
			continue
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		case !unicode.IsControl(r):
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

// skipCSI returns the index just past the final byte of an escape sequence
// whose parameters start at i.
func skipCSI(s string, i int) int {
	for i < len(s) {
		c := s[i]
		i++
		if c >= 0x40 && c <= 0x7e {
			return i
		}
	}
	return i
}
