package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// quantityPhrase is one "<n> <unit> of <item>" occurrence.
type quantityPhrase struct {
	Quantity int
	Unit     string
	Name     string
}

// segmentation is the candidate item phrases found in an add message. The add
// strategies route on how many of each kind were found.
type segmentation struct {
	phrases   []quantityPhrase
	body      string // text after "added"/"adding", up to the cart clause
	hasBody   bool
	fragments []string
	// onePhrase is set when the body is a single quantity phrase, so an "and"
	// inside it belongs to the item name ("1 unit of salt and pepper").
	onePhrase bool
}

func segment(message string) segmentation {
	seg := segmentation{phrases: quantityPhrases(message)}

	loc := addKeywordRe.FindStringIndex(message)
	if loc == nil {
		return seg
	}

	body := cartTailRe.ReplaceAllString(message[loc[1]:], "")
	if end := sentenceEndRe.FindStringIndex(body); end != nil {
		body = body[:end[0]]
	}

	seg.body = strings.TrimSpace(body)
	seg.hasBody = seg.body != ""
	seg.fragments = listFragments(seg.body)
	seg.onePhrase = len(seg.phrases) == 1 && !strings.Contains(seg.body, ",") && startsWithPhrase(seg.body)
	return seg
}

// quantityPhrases finds every quantity phrase. A phrase's name runs to the next
// comma, the next phrase, or the end of the message.
func quantityPhrases(message string) []quantityPhrase {
	matches := quantityRe.FindAllStringSubmatchIndex(message, -1)
	phrases := make([]quantityPhrase, 0, len(matches))

	for i, m := range matches {
		qty, err := strconv.Atoi(message[m[2]:m[3]])
		if err != nil || qty < 1 {
			continue
		}

		end := len(message)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		text := message[m[1]:end]
		if comma := strings.IndexByte(text, ','); comma >= 0 {
			text = text[:comma]
		}

		phrases = append(phrases, quantityPhrase{
			Quantity: qty,
			Unit:     normalizeUnit(message[m[4]:m[5]]),
			Name:     cleanName(text),
		})
	}

	return phrases
}

func startsWithPhrase(s string) bool {
	loc := quantityRe.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

// listFragments splits "a, b, and c" into cleaned item names. Fragments carrying a
// price and fragments of two characters or fewer are noise.
func listFragments(body string) []string {
	if body == "" {
		return nil
	}

	var names []string
	for _, part := range listSplitRe.Split(body, -1) {
		part = parentheticalRe.ReplaceAllString(part, "")
		if priceRe.MatchString(part) {
			continue
		}
		name := cleanName(stripQuantityPrefix(part))
		if utf8.RuneCountInString(name) <= 2 {
			continue
		}
		names = append(names, name)
	}
	return names
}
