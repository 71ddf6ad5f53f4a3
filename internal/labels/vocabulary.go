package labels

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"labeleval/internal/domain"

	"gopkg.in/yaml.v3"
)

var defaultIntents = []string{
	"Missing item", "Password reset", "Return", "Coupon", "Cancellation", "Stock", "Payment", "Shipping",
	"Damaged item", "Exchange", "Product", "Discount", "Account information", "Account closure",
	"Subscription", "Website", "Review", "Technical issue", "Order", "Size", "Address error",
}

var defaultIntentDetails = []string{
	"Missing item in order delivery", "Email link not received", "Return procedure information",
	"Coupon code not working", "Order cancellation", "Return shipment tracking", "Exchange or return not possible",
	"Membership information update", "Invoice price error", "Order cancellation not possible",
	"Restock date", "Double charge", "Shipping status", "Credit card declined",
	"Product size chart", "Wrong address entered", "Review not published", "Technical error",
	"Charged but order not created", "Product information", "Missing promotional items",
	"Refund delay", "Damaged in transit", "No exchange option",
	"Campaign information", "Wrong item sent", "Account closure",
	"In-stock item missing from delivery", "Invalid return code",
	"Wrong delivery address", "Order status", "Payment not completed",
	"Size mismatch", "Late delivery", "Warranty repair",
	"Email subscription cancellation", "Shipping delay", "Return process delay",
}

// Vocabulary holds the run-time intent and intent-detail sets.
type Vocabulary struct {
	Intents       []string `yaml:"intents"`
	IntentDetails []string `yaml:"intent_details"`

	intentSet map[string]struct{}
	detailSet map[string]struct{}
}

// NewVocabulary trims, dedupes and indexes the given lists, keeping order.
func NewVocabulary(intents, details []string) *Vocabulary {
	v := &Vocabulary{}
	v.Intents, v.intentSet = indexList(intents)
	v.IntentDetails, v.detailSet = indexList(details)
	return v
}

func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(defaultIntents, defaultIntentDetails)
}

// VocabularyFromGold collects the sorted distinct gold intents and details.
// A list with no observed gold value falls back to the packaged default.
func VocabularyFromGold(convs []domain.Conversation) *Vocabulary {
	intents := observedGold(convs, domain.CategoryIntent)
	if len(intents) == 0 {
		intents = defaultIntents
	}
	details := observedGold(convs, domain.CategoryIntentDetail)
	if len(details) == 0 {
		details = defaultIntentDetails
	}
	return NewVocabulary(intents, details)
}

// LoadVocabulary reads a YAML vocabulary file. An empty list in the file
// keeps the packaged default for that list.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: vocabulary %q", domain.ErrMissingFile, path)
		}
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var raw Vocabulary
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse vocabulary yaml: %w", err)
	}
	intents, details := raw.Intents, raw.IntentDetails
	if len(intents) == 0 {
		intents = defaultIntents
	}
	if len(details) == 0 {
		details = defaultIntentDetails
	}
	return NewVocabulary(intents, details), nil
}

// Save writes the vocabulary in the format LoadVocabulary reads.
func (v *Vocabulary) Save(path string) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vocabulary: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (v *Vocabulary) HasIntent(s string) bool {
	_, ok := v.intentSet[s]
	return ok
}

func (v *Vocabulary) HasIntentDetail(s string) bool {
	_, ok := v.detailSet[s]
	return ok
}

func indexList(in []string) ([]string, map[string]struct{}) {
	out := make([]string, 0, len(in))
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := set[s]; dup {
			continue
		}
		set[s] = struct{}{}
		out = append(out, s)
	}
	return out, set
}

func observedGold(convs []domain.Conversation, c domain.Category) []string {
	seen := make(map[string]struct{})
	for _, conv := range convs {
		if v, ok := conv.GoldValue(c); ok {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
