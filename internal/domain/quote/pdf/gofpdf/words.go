package gofpdf

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tens   = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
	scales = []string{"", "thousand", "million", "billion", "trillion"}

	maxWords = decimal.New(1, 15)
)

// AmountInWords spells a currency amount, e.g. 99.5 -> "ninety-nine dollars, fifty cents".
func AmountInWords(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", errors.New("amount in words: negative amount")
	}
	amount = amount.Round(2)
	if amount.GreaterThanOrEqual(maxWords) {
		return "", errors.New("amount in words: amount too large")
	}
	dollars := amount.IntPart()
	cents := amount.Sub(decimal.NewFromInt(dollars)).Mul(decimal.NewFromInt(100)).IntPart()

	return spell(dollars) + " " + plural(dollars, "dollar") + ", " +
		spell(cents) + " " + plural(cents, "cent"), nil
}

func plural(n int64, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func spell(n int64) string {
	if n == 0 {
		return ones[0]
	}
	var groups []string
	for i := 0; n > 0; i++ {
		chunk := n % 1000
		n /= 1000
		if chunk == 0 {
			continue
		}
		part := spellHundreds(chunk)
		if scales[i] != "" {
			part += " " + scales[i]
		}
		groups = append([]string{part}, groups...)
	}
	return strings.Join(groups, " ")
}

func spellHundreds(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100]+" hundred")
		n %= 100
		if n > 0 {
			parts = append(parts, "and")
		}
	}
	switch {
	case n >= 20:
		s := tens[n/10]
		if n%10 > 0 {
			s += "-" + ones[n%10]
		}
		parts = append(parts, s)
	case n > 0:
		parts = append(parts, ones[n])
	}
	return strings.Join(parts, " ")
}
