package domain

// Category is one of the five classification dimensions.
type Category string

const (
	CategoryResponseStatus Category = "response_status"
	CategorySentiment      Category = "sentiment"
	CategoryType           Category = "category_type"
	CategoryIntent         Category = "intent"
	CategoryIntentDetail   Category = "intent_detail"
)

var categories = []Category{
	CategoryResponseStatus,
	CategorySentiment,
	CategoryType,
	CategoryIntent,
	CategoryIntentDetail,
}

// Categories returns the five categories in canonical column order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) GoldColumn() string { return "gold_" + string(c) }
func (c Category) PredColumn() string { return "pred_" + string(c) }

type ResponseStatus string

const (
	ResponseResolved   ResponseStatus = "Resolved"
	ResponseUnresolved ResponseStatus = "Unresolved"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

type CategoryTypeValue string

const (
	TypeComplaint          CategoryTypeValue = "Complaint"
	TypeProblem            CategoryTypeValue = "Problem"
	TypeInformationRequest CategoryTypeValue = "Information request"
	TypeRequest            CategoryTypeValue = "Request"
	TypeQuestion           CategoryTypeValue = "Question"
	TypeReturn             CategoryTypeValue = "Return"
)

// ResponseStatuses, Sentiments and CategoryTypes list the closed enumerations.
func ResponseStatuses() []string {
	return []string{string(ResponseResolved), string(ResponseUnresolved)}
}

func Sentiments() []string {
	return []string{string(SentimentPositive), string(SentimentNegative), string(SentimentNeutral)}
}

func CategoryTypes() []string {
	return []string{
		string(TypeComplaint),
		string(TypeProblem),
		string(TypeInformationRequest),
		string(TypeRequest),
		string(TypeQuestion),
		string(TypeReturn),
	}
}

// FixedValues returns the closed enumeration of a category, nil for the
// vocabulary-backed ones.
func FixedValues(c Category) []string {
	switch c {
	case CategoryResponseStatus:
		return ResponseStatuses()
	case CategorySentiment:
		return Sentiments()
	case CategoryType:
		return CategoryTypes()
	}
	return nil
}
