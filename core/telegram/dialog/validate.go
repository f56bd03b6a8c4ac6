package dialog

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyText means the message carried no usable text.
	ErrEmptyText = errors.New("dialog: empty text")
	// ErrNotDigits means the text is not a plain whole number.
	ErrNotDigits = errors.New("dialog: not a whole number")
	// ErrBadAmount means the text could not be read as a money amount.
	ErrBadAmount = errors.New("dialog: unreadable amount")
)

// Currency words are stripped before parsing: "рубль", "рублей", "руб." etc.
// RE2 word boundaries are ASCII-only, so match by letter runs around the stem.
var currencyRe = regexp.MustCompile(`(?i)\p{L}*руб\p{L}*\.?`)

var digitsRe = regexp.MustCompile(`^\d+$`)

// CleanText trims the text and rejects empty input.
func CleanText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// ParseDigits reads a non-negative whole number written in plain digits.
func ParseDigits(raw string) (int, error) {
	text := strings.TrimSpace(raw)
	if !digitsRe.MatchString(text) {
		return 0, ErrNotDigits
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, ErrNotDigits
	}
	return n, nil
}

// NormalizeMoney reads a human-written amount like "1 500,50 рублей"
// and returns it as an exact decimal (1500.5).
func NormalizeMoney(raw string) (decimal.Decimal, error) {
	text := currencyRe.ReplaceAllString(raw, "")
	text = strings.NewReplacer(",", ".", " ", "", "\u00a0", "", "\u202f", "", "\t", "").Replace(text)
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Decimal{}, ErrBadAmount
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, ErrBadAmount
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, ErrBadAmount
	}
	return amount, nil
}

// ValidChoice reports whether value is one of the stage's options.
func ValidChoice(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
