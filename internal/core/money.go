// Package core holds the transaction domain: monetary and date
// normalization, BRL display formatting, and row validation.
//
// Amounts are signed decimals. Positive values are revenue, negative
// values are expense. Parsing accepts Brazilian formatting (dot as
// thousands separator, comma as decimal separator) as well as plain
// numeric strings, and is strict: anything else is reported as a parse
// error, never coerced to zero.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Dot-grouped integers like 1.500 or 12.345.678. Only these are read as
// thousands-separated when no decimal comma is present; 1.5 stays 1.5.
var thousandsDots = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// Tokens spreadsheet exports use for absent values.
var missingTokens = map[string]bool{
	"nan":  true,
	"null": true,
	"none": true,
}

// ParseAmount converts a raw monetary string into a signed decimal.
//
// Accepted forms, after stripping a currency prefix and whitespace:
//
//	1.500,00   -> 1500.00
//	-200,50    -> -200.50
//	R$ 1500    -> 1500
//	1234.56    -> 1234.56
//
// When a decimal comma is present every dot is a thousands separator.
// Without a comma, dots are thousands separators only in fully grouped
// integers such as 1.500. Empty or malformed input returns an error
// wrapping ErrParse.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := stripCurrency(raw)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || s[0] == '-' || s[0] == '+' {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	if strings.Contains(s, ",") {
		if strings.Count(s, ",") > 1 {
			return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if thousandsDots.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// ParseOptionalAmount behaves like ParseAmount but maps empty input and
// spreadsheet null tokens to an invalid NullDecimal, the missing
// sentinel distinct from zero.
func ParseOptionalAmount(raw string) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || missingTokens[strings.ToLower(s)] {
		return decimal.NullDecimal{}, nil
	}
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// FormatBRL renders an amount in the fixed Brazilian convention,
// independent of the runtime locale: thousands grouped with dots, two
// decimals after a comma, rounded half to even.
//
//	1234.555 -> R$ 1.234,56
//	-200.5   -> R$ -200,50
func FormatBRL(d decimal.Decimal) string {
	r := d.RoundBank(2)
	digits := r.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(digits, ".")

	var b strings.Builder
	b.WriteString("R$ ")
	if r.IsNegative() {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

func stripCurrency(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", " ")
	if u := strings.ToUpper(s); strings.HasPrefix(u, "R$") {
		s = s[2:]
	} else if strings.HasPrefix(s, "$") {
		s = s[1:]
	}
	return strings.ReplaceAll(s, " ", "")
}
