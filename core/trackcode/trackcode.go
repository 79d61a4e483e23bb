// Package trackcode generates the human-readable codes shown to users for accounts, classes,
// terms and payments. Codes are cosmetic: they are not unique and never serve as primary keys.
package trackcode

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var (
	nowFunc  = time.Now   // mockable
	randIntn = rand.IntN // mockable

	maxInitials = 2
)

// Generate builds `<initials><YY><MM><NNNN>` from seed: up to 2 upper-cased initials of the
// whitespace-separated words of seed, the 2-digit year and month of `at` (default: now)
// and a random number in [1000, 9999].
func Generate(seed string, at ...time.Time) string {
	t := when(at)

	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(seed) {
		if n == maxInitials {
			break
		}
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		n++
	}
	fmt.Fprintf(&b, "%02d%02d%d", t.Year()%100, int(t.Month()), suffix())
	return b.String()
}

// Reference builds a payment reference: `REF_<YYYYMMDDhhmmss><NNNN>` (UTC).
func Reference(at ...time.Time) string {
	t := when(at).UTC()
	return fmt.Sprintf("REF_%s%d", t.Format("20060102150405"), suffix())
}

func when(at []time.Time) time.Time {
	if len(at) > 0 && !at[0].IsZero() {
		return at[0]
	}
	return nowFunc()
}

func suffix() int {
	return 1000 + randIntn(9000)
}
