package numbering

import (
	"strconv"
	"strings"
)

// Format renders an allocated value as a display number using the given
// rules. The numeral is zero-padded to Width when ZeroPad is set; a
// numeral longer than Width is kept whole, never truncated. Pure function.
func Format(value int64, rules FormatRules) string {
	numeral := strconv.FormatInt(value, 10)
	if rules.ZeroPad && len(numeral) < rules.Width {
		numeral = strings.Repeat("0", rules.Width-len(numeral)) + numeral
	}
	return rules.Prefix + numeral + rules.Suffix
}
