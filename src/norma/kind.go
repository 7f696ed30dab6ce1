package norma

// Kind selects the learning variant an engine instance implements. The three
// variants share one pipeline skeleton and differ only in the admission test
// and the direction of the margin update.
type Kind string

const (
	// KindClassification is binary classification with a bias term.
	KindClassification Kind = "classification"
	// KindNovelty is one-class novelty detection; ft is reported as a
	// novelty score (prediction minus margin).
	KindNovelty Kind = "novelty"
	// KindRegression is epsilon-insensitive regression with a symmetric
	// margin around the target.
	KindRegression Kind = "regression"
)

// DefaultKind returns the variant used when no explicit selection is made.
func DefaultKind() Kind {
	return KindClassification
}

// KindFromString converts an arbitrary string into a Kind. When the provided
// value is unknown the bool return will be false.
func KindFromString(value string) (Kind, bool) {
	switch value {
	case string(KindClassification):
		return KindClassification, true
	case string(KindNovelty):
		return KindNovelty, true
	case string(KindRegression):
		return KindRegression, true
	default:
		return "", false
	}
}
