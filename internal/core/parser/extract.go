package parser

import (
	"strconv"
	"strings"

	"github.com/PocketPalCo/voicecart/internal/core/cart"
	"github.com/google/uuid"
)

// Strategy names reported in Result.Strategy.
const (
	StrategyMultiQuantity  = "multi_quantity"
	StrategyList           = "list"
	StrategySingle         = "single"
	StrategyRemove         = "remove"
	StrategyUpdateQuantity = "update_quantity"
	StrategyOrderPlaced    = "order_placed"
)

// PriceResolver supplies a unit price for items whose message names none.
type PriceResolver interface {
	ResolvePrice(name string) int
}

// Result is what one message asks of the cart.
type Result struct {
	Intent     Intent
	Strategy   string
	Operations []cart.Operation
	OrderID    string
}

// Matched reports whether extraction found anything to act on.
func (r Result) Matched() bool {
	return len(r.Operations) > 0 || r.Intent == IntentOrderPlaced
}

type Extractor struct {
	prices PriceResolver
	newID  func() string
}

// NewExtractor builds an extractor. newID mints item ids; nil means random UUIDs.
func NewExtractor(prices PriceResolver, newID func() string) *Extractor {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Extractor{
		prices: prices,
		newID:  newID,
	}
}

var intentExtractors = map[Intent]func(*Extractor, string) Result{
	IntentAdd:            (*Extractor).extractAdd,
	IntentRemove:         (*Extractor).extractRemove,
	IntentUpdateQuantity: (*Extractor).extractUpdateQuantity,
	IntentOrderPlaced:    (*Extractor).extractOrderPlaced,
}

// Parse classifies message and extracts its operations. Messages that classify as
// None, or whose text does not fit any pattern, yield no operations.
func (e *Extractor) Parse(message string) Result {
	intent := Classify(message)

	extract, ok := intentExtractors[intent]
	if !ok {
		return Result{Intent: intent}
	}

	res := extract(e, message)
	res.Intent = intent
	return res
}

type addStrategy struct {
	name    string
	extract func(e *Extractor, message string, seg segmentation) ([]cart.Operation, bool)
}

// addStrategies are mutually exclusive and tried in order.
var addStrategies = []addStrategy{
	{name: StrategyMultiQuantity, extract: (*Extractor).extractMultiQuantity},
	{name: StrategyList, extract: (*Extractor).extractList},
	{name: StrategySingle, extract: (*Extractor).extractSingle},
}

func (e *Extractor) extractAdd(message string) Result {
	seg := segment(message)
	for _, s := range addStrategies {
		if ops, ok := s.extract(e, message, seg); ok {
			return Result{Strategy: s.name, Operations: ops}
		}
	}
	return Result{}
}

func (e *Extractor) extractMultiQuantity(_ string, seg segmentation) ([]cart.Operation, bool) {
	if len(seg.phrases) < 2 {
		return nil, false
	}

	ops := make([]cart.Operation, 0, len(seg.phrases))
	for _, p := range seg.phrases {
		if p.Name == "" {
			continue
		}
		ops = append(ops, cart.InsertIfAbsent{Item: cart.Item{
			ID:       e.newID(),
			Name:     p.Name,
			Price:    e.prices.ResolvePrice(p.Name),
			Unit:     p.Unit,
			Quantity: p.Quantity,
		}})
	}
	return ops, true
}

func (e *Extractor) extractList(_ string, seg segmentation) ([]cart.Operation, bool) {
	if len(seg.fragments) < 2 || seg.onePhrase {
		return nil, false
	}

	ops := make([]cart.Operation, 0, len(seg.fragments))
	for _, name := range seg.fragments {
		ops = append(ops, cart.InsertIfAbsent{Item: cart.Item{
			ID:       e.newID(),
			Name:     name,
			Price:    e.prices.ResolvePrice(name),
			Unit:     cart.DefaultUnit,
			Quantity: 1,
		}})
	}
	return ops, true
}

func (e *Extractor) extractSingle(message string, seg segmentation) ([]cart.Operation, bool) {
	quantity, unit, name := 1, cart.DefaultUnit, ""
	if len(seg.phrases) > 0 {
		p := seg.phrases[0]
		quantity, unit, name = p.Quantity, p.Unit, p.Name
	}

	for _, capture := range nameCaptures {
		if name != "" {
			break
		}
		name = capture(message, seg)
	}
	if name == "" {
		return nil, false
	}

	price, ok := explicitPrice(message, seg)
	if !ok {
		price = e.prices.ResolvePrice(name)
	}

	return []cart.Operation{cart.UpsertOverwrite{Item: cart.Item{
		ID:       e.newID(),
		Name:     name,
		Price:    price,
		Unit:     unit,
		Quantity: quantity,
	}}}, true
}

// nameCaptures locate a single item name when no quantity phrase did, most
// specific first.
var nameCaptures = []func(message string, seg segmentation) string{
	// "a loaf of bread"
	func(message string, seg segmentation) string {
		source := message
		if seg.hasBody {
			source = seg.body
		}
		loc := ofRe.FindStringIndex(source)
		if loc == nil {
			return ""
		}
		return cleanName(source[loc[1]:])
	},
	// "added bread"
	func(_ string, seg segmentation) string {
		return cleanName(seg.body)
	},
	// "bread has been added"
	func(message string, _ segmentation) string {
		m := addedAfterRe.FindStringSubmatch(message)
		if m == nil {
			return ""
		}
		return cleanName(m[1])
	},
}

// explicitPrice reads a unit price from the item text or from the note right
// after the cart clause ("to your cart (₹55 each)"). Amounts elsewhere in the
// message, such as a running total, are not unit prices.
func explicitPrice(message string, seg segmentation) (int, bool) {
	sources := []string{seg.body}
	if !seg.hasBody {
		sources[0] = cartTailRe.ReplaceAllString(message, "")
	}
	if m := cartNoteRe.FindStringSubmatch(message); m != nil {
		sources = append(sources, m[1])
	}

	for _, source := range sources {
		m := priceRe.FindStringSubmatch(source)
		if m == nil {
			continue
		}
		if price, err := strconv.Atoi(m[1]); err == nil {
			return price, true
		}
	}
	return 0, false
}

func (e *Extractor) extractRemove(message string) Result {
	res := Result{Strategy: StrategyRemove}

	m := removeRe.FindStringSubmatch(message)
	if m == nil {
		return res
	}

	target := cleanTarget(m[1])
	if target == "" {
		return res
	}

	res.Operations = []cart.Operation{cart.RemoveMatching{Substring: target}}
	return res
}

type quantityCapture func(message string) (target string, quantity string, ok bool)

// quantityCaptures cover "updated Milk quantity to 3" and "quantity of milk to 3".
var quantityCaptures = []quantityCapture{
	func(message string) (string, string, bool) {
		name := updateNameRe.FindStringSubmatch(message)
		qty := updateQuantityRe.FindStringSubmatch(message)
		if name == nil || qty == nil {
			return "", "", false
		}
		return name[1], qty[1], true
	},
	func(message string) (string, string, bool) {
		m := quantityOfRe.FindStringSubmatch(message)
		if m == nil {
			return "", "", false
		}
		return m[1], m[2], true
	},
}

func (e *Extractor) extractUpdateQuantity(message string) Result {
	res := Result{Strategy: StrategyUpdateQuantity}

	for _, capture := range quantityCaptures {
		rawTarget, rawQty, ok := capture(message)
		if !ok {
			continue
		}

		target := cleanTarget(rawTarget)
		qty, err := strconv.Atoi(rawQty)
		if target == "" || err != nil || qty < 1 {
			continue
		}

		res.Operations = []cart.Operation{cart.SetQuantityMatching{Substring: target, Quantity: qty}}
		return res
	}

	return res
}

func (e *Extractor) extractOrderPlaced(message string) Result {
	res := Result{Strategy: StrategyOrderPlaced}
	if m := orderIDRe.FindStringSubmatch(message); m != nil {
		res.OrderID = m[1]
	}
	return res
}

// cleanTarget tidies a remove/update capture for substring matching.
func cleanTarget(raw string) string {
	target := parentheticalRe.ReplaceAllString(raw, "")
	target = strings.Trim(target, " \t\n.,!?;:'\"")
	target = leadingFillerRe.ReplaceAllString(target, "")
	target = stripQuantityPrefix(target)
	return strings.Join(strings.Fields(target), " ")
}
