// Package resolve turns loosely written user input into canonical well ids
// and dates before it reaches the store.
package resolve

import (
	"regexp"
	"sort"
	"strings"
)

var (
	canonicalWellRE = regexp.MustCompile(`^[A-Z]+-\d+$`)
	digitsRE        = regexp.MustCompile(`\d+`)
)

// wellAliases maps colloquial names to canonical ids.
var wellAliases = map[string]string{
	"中102":  "ZT-102",
	"中塔102": "ZT-102",
	"102井":  "ZT-102",
	"中105":  "ZT-105",
	"中塔105": "ZT-105",
	"105井":  "ZT-105",
	"中108":  "ZT-108",
	"中塔108": "ZT-108",
	"108井":  "ZT-108",
	"新009":  "XY-009",
	"新疆009": "XY-009",
	"009井":  "XY-009",
}

// aliasKeysLongestFirst is used for substring matching so that "中塔102"
// wins over "中102"-like shorter keys.
var aliasKeysLongestFirst = func() []string {
	keys := make([]string, 0, len(wellAliases))
	for k := range wellAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

type prefixHint struct {
	prefix string
	hints  []string
}

var prefixHints = []prefixHint{
	{prefix: "ZT", hints: []string{"中", "塔", "zt"}},
	{prefix: "XY", hints: []string{"新", "疆", "xy"}},
}

// NormalizeWellID maps a raw well reference to its canonical id. Unknown
// inputs come back trimmed and upper-cased. It never fails and applying it
// twice gives the same result as applying it once.
func NormalizeWellID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if id, ok := wellAliases[s]; ok {
		return id
	}
	upper := strings.ToUpper(s)
	if canonicalWellRE.MatchString(upper) {
		return upper
	}
	for _, k := range aliasKeysLongestFirst {
		if strings.Contains(s, k) {
			return wellAliases[k]
		}
	}
	if digits := digitsRE.FindString(s); digits != "" {
		lower := strings.ToLower(s)
		for _, h := range prefixHints {
			for _, hint := range h.hints {
				if strings.Contains(lower, hint) {
					return h.prefix + "-" + digits
				}
			}
		}
	}
	return upper
}

// NormalizeWellIDs applies NormalizeWellID to a list, dropping blanks and
// duplicates while keeping first-seen order.
func NormalizeWellIDs(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		id := NormalizeWellID(r)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// SplitWellList splits a comma, semicolon, Chinese comma or whitespace
// separated list of well references.
func SplitWellList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', '，', '、', '；', ' ', '\t', '\n':
			return true
		}
		return false
	})
}
