package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// unitWords are the measure words recognised in "<n> <unit> of <item>" phrases.
const unitWords = `litre|liter|kilogram|kg|pack|box|jar|bottle|bunch|unit|loaves|loaf|dozen|gram|g|ml`

var (
	// 2 litres of, 1 unit(s) of, 3 boxes of
	quantityRe = regexp.MustCompile(`(?i)\b(\d+)\s+(` + unitWords + `)(?:\(s\)|es|s)?\s+of\s+`)

	addKeywordRe = regexp.MustCompile(`(?i)\b(?:added|adding)\b\s*:?\s*`)
	ofRe         = regexp.MustCompile(`(?i)\bof\s+`)
	addedAfterRe = regexp.MustCompile(`(?i)^\s*(.+?)\s+(?:(?:has|have)\s+been\s+|(?:was|were)\s+)?added\b`)

	priceRe = regexp.MustCompile(`(?i)(?:₹|\$|\brs\.?|\binr)\s*(\d+)`)

	removeRe = regexp.MustCompile(`(?i)\bremoved\s+(.+?)\s+from\b`)

	updateNameRe     = regexp.MustCompile(`(?i)\bupdated\s+(?:the\s+)?(.+?)\s+quantity\b`)
	updateQuantityRe = regexp.MustCompile(`(?i)\bquantity\s+to\s+(\d+)`)
	quantityOfRe     = regexp.MustCompile(`(?i)\bquantity\s+of\s+(.+?)\s+to\s+(\d+)`)

	orderIDRe = regexp.MustCompile(`(?i)order id[:\s]+([a-z0-9-]+)`)

	listSplitRe     = regexp.MustCompile(`(?i)\s*,\s*(?:and\s+)?|\s+and\s+`)
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	leadingFillerRe = regexp.MustCompile(`(?i)^(?:(?:all|a|an|the|some|your)\s+)+`)
	sentenceEndRe   = regexp.MustCompile(`[.!?](?:\s+|$)`)
	cartTailRe      = regexp.MustCompile(`(?is)\s*\b(?:to|in|into)\s+your\s+cart\b.*$`)
	cartNoteRe      = regexp.MustCompile(`(?i)\b(?:to|in|into)\s+your\s+cart\s*(\([^)]*\))`)
)

// nameTails are clauses that trail an item name in assistant phrasing. Each is
// cut from the first occurrence to the end of the string.
var nameTails = []*regexp.Regexp{
	cartTailRe,
	regexp.MustCompile(`(?is)\s+(?:are|is)\s+now\b.*$`),
	regexp.MustCompile(`(?is)\s+each\b.*$`),
	regexp.MustCompile(`(?s)\s*\(.*$`),
	regexp.MustCompile(`(?is)\s+(?:at|for)\s+(?:₹|\$|rs\.?|inr)\s*\d+.*$`),
	regexp.MustCompile(`(?s)\s*(?:₹|\$)\s*\d+.*$`),
	regexp.MustCompile(`(?is)\s+and\s+\d+.*$`),
	regexp.MustCompile(`(?is)\s+and\s*$`),
	regexp.MustCompile(`(?s),.*$`),
}

// cleanName strips trailing clauses, leading fillers and punctuation, then
// title-cases what is left.
func cleanName(raw string) string {
	name := raw
	for _, tail := range nameTails {
		name = tail.ReplaceAllString(name, "")
	}
	name = strings.Trim(name, " \t\n.,!?;:'\"")
	name = leadingFillerRe.ReplaceAllString(name, "")
	return titleCase(name)
}

// stripQuantityPrefix removes a leading "<n> <unit> of".
func stripQuantityPrefix(s string) string {
	s = strings.TrimSpace(s)
	if loc := quantityRe.FindStringIndex(s); loc != nil && loc[0] == 0 {
		return s[loc[1]:]
	}
	return s
}

// titleCase upper-cases the first letter of each word and lower-cases the rest.
func titleCase(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}

func normalizeUnit(unit string) string {
	unit = strings.ToLower(unit)
	if unit == "loaves" {
		return "loaf"
	}
	return unit
}
