// Package format holds the display formatters shared by every screen,
// including the single authoritative USD to KES conversion rate.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// USDToKES is the fixed exchange rate used by all formatters and by the
// live preview in the payment form. Keep it in one place: divergent copies
// would make the preview disagree with the rendered tables.
const USDToKES = 129

var kesRate = decimal.NewFromInt(USDToKES)

// ConvertUSDToKES converts a USD amount to KES at the fixed rate.
func ConvertUSDToKES(usd decimal.Decimal) decimal.Decimal {
	return usd.Mul(kesRate)
}

// ConvertKESToUSD converts a KES amount to USD at the fixed rate.
func ConvertKESToUSD(kes decimal.Decimal) decimal.Decimal {
	return kes.DivRound(kesRate, 2)
}

// Currency renders a USD amount as "$1,234.56" ("-$1,234.56" when
// negative).
func Currency(amount decimal.Decimal) string {
	s := "$" + group(amount.Abs().StringFixed(2))
	if amount.IsNegative() {
		return "-" + s
	}
	return s
}

// KES renders the KES equivalent of a USD amount as "KES 129,000",
// rounded to whole shillings.
func KES(usd decimal.Decimal) string {
	return "KES " + group(ConvertUSDToKES(usd).Round(0).StringFixed(0))
}

// Percent renders a ratio value (already in 0..100 terms) with the given
// number of decimals, e.g. Percent(42.5, 1) == "42.5%".
func Percent(value float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, value)
}

// Date renders an ISO date or datetime string as "Jan 02, 2006".
// Unparseable input is returned unchanged rather than hidden.
func Date(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := parseISO(iso)
	if err != nil {
		return iso
	}
	return t.Format("Jan 02, 2006")
}

// DateTime renders an ISO datetime string as "Jan 02, 2006 15:04".
func DateTime(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := parseISO(iso)
	if err != nil {
		return iso
	}
	return t.Format("Jan 02, 2006 15:04")
}

// Initials returns the upper-cased first letters of the two names.
func Initials(firstName, lastName string) string {
	return firstLetter(firstName) + firstLetter(lastName)
}

func firstLetter(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return ""
}

func parseISO(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// group inserts thousands separators into the integer part of a plain
// decimal string. The sign and fractional part pass through untouched.
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	out := sign + b.String()
	if hasFrac {
		out += "." + fracPart
	}
	return out
}
