// Package parser turns assistant status messages into cart operations: a keyword
// classifier picks the intent, then an ordered list of extraction strategies pulls
// item names, quantities and prices out of the text.
package parser

import "strings"

type Intent int

const (
	IntentNone Intent = iota
	IntentAdd
	IntentRemove
	IntentUpdateQuantity
	IntentOrderPlaced
)

func (i Intent) String() string {
	switch i {
	case IntentAdd:
		return "add"
	case IntentRemove:
		return "remove"
	case IntentUpdateQuantity:
		return "update_quantity"
	case IntentOrderPlaced:
		return "order_placed"
	default:
		return "none"
	}
}

// intentRule matches against the lowercased message.
type intentRule struct {
	intent Intent
	match  func(lower string) bool
}

// intentRules is evaluated top to bottom; the first match wins.
var intentRules = []intentRule{
	{intent: IntentAdd, match: containsAll("added", "cart")},
	{intent: IntentRemove, match: containsAll("removed", "cart")},
	{intent: IntentUpdateQuantity, match: containsAll("updated", "quantity")},
	{intent: IntentOrderPlaced, match: containsAny("order placed", "order id")},
}

// Classify assigns a message to one intent.
func Classify(message string) Intent {
	lower := strings.ToLower(message)
	for _, rule := range intentRules {
		if rule.match(lower) {
			return rule.intent
		}
	}
	return IntentNone
}

func containsAll(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if !strings.Contains(s, w) {
				return false
			}
		}
		return true
	}
}

func containsAny(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}
