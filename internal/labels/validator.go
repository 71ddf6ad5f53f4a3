package labels

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"labeleval/internal/domain"

	"github.com/go-playground/validator/v10"
)

// ValidationError names the first category that failed validation.
type ValidationError struct {
	Category domain.Category
	Value    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("%s: %q %s", e.Category, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return domain.ErrStructural }

// Validator turns an untrusted decoded object into a LabelAssignment.
type Validator struct {
	vocab    *Vocabulary
	validate *validator.Validate
}

func NewValidator(vocab *Vocabulary) *Validator {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("fixed_enum", func(fl validator.FieldLevel) bool {
		return contains(domain.FixedValues(domain.Category(fl.FieldName())), fl.Field().String())
	})
	_ = v.RegisterValidation("intent_vocab", func(fl validator.FieldLevel) bool {
		return vocab.HasIntent(fl.Field().String())
	})
	_ = v.RegisterValidation("intent_detail_vocab", func(fl validator.FieldLevel) bool {
		return vocab.HasIntentDetail(fl.Field().String())
	})
	return &Validator{vocab: vocab, validate: v}
}

// Validate accepts exactly the five categories as strings. Values are trimmed
// and otherwise kept as given; extra keys are ignored.
func (v *Validator) Validate(candidate map[string]any) (domain.LabelAssignment, error) {
	values := make(map[domain.Category]string, 5)
	for _, c := range domain.Categories() {
		raw, ok := candidate[string(c)]
		if !ok || raw == nil {
			return domain.LabelAssignment{}, &ValidationError{Category: c, Reason: "missing"}
		}
		s, ok := raw.(string)
		if !ok {
			return domain.LabelAssignment{}, &ValidationError{Category: c, Value: fmt.Sprint(raw), Reason: "is not a string"}
		}
		values[c] = strings.TrimSpace(s)
	}

	out := domain.LabelAssignment{
		ResponseStatus: domain.ResponseStatus(values[domain.CategoryResponseStatus]),
		Sentiment:      domain.Sentiment(values[domain.CategorySentiment]),
		CategoryType:   domain.CategoryTypeValue(values[domain.CategoryType]),
		Intent:         values[domain.CategoryIntent],
		IntentDetail:   values[domain.CategoryIntentDetail],
	}
	if err := v.validate.Struct(out); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return domain.LabelAssignment{}, fmt.Errorf("%w: %v", domain.ErrStructural, err)
		}
		fe := fieldErrs[0]
		return domain.LabelAssignment{}, &ValidationError{
			Category: domain.Category(fe.Field()),
			Value:    fmt.Sprint(fe.Value()),
			Reason:   reasonFor(fe),
		}
	}
	return out, nil
}

// Schema is the output object definition handed to classification backends.
func (v *Validator) Schema() domain.LabelSchema {
	return domain.LabelSchema{
		Name: "conversation_labels",
		Fields: []domain.SchemaField{
			{Name: string(domain.CategoryResponseStatus), Description: "Whether the customer's issue was resolved in the conversation.", Enum: domain.ResponseStatuses()},
			{Name: string(domain.CategorySentiment), Description: "Overall customer sentiment.", Enum: domain.Sentiments()},
			{Name: string(domain.CategoryType), Description: "Kind of contact.", Enum: domain.CategoryTypes()},
			{Name: string(domain.CategoryIntent), Description: "Main customer intent.", Enum: append([]string(nil), v.vocab.Intents...)},
			{Name: string(domain.CategoryIntentDetail), Description: "Specific situation behind the intent.", Enum: append([]string(nil), v.vocab.IntentDetails...)},
		},
	}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is empty"
	case "fixed_enum":
		return "is not one of " + strings.Join(domain.FixedValues(domain.Category(fe.Field())), ", ")
	case "intent_vocab":
		return "is not in the intent vocabulary"
	case "intent_detail_vocab":
		return "is not in the intent detail vocabulary"
	}
	return "failed " + fe.Tag()
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
