// internal/classifier/classifier.go
package classifier

import (
	"context"
	"errors"
)

var (
	ErrClassifyFailed  = errors.New("CLASSIFIER_FAILED")
	ErrClassifyTimeout = errors.New("CLASSIFIER_TIMEOUT")
)

// Scores maps a candidate label to its probability.
type Scores map[string]float64

// IntentClassifier scores a text against a set of candidate labels.
// Implementations must treat the labels as single-label candidates:
// the returned probabilities sum to 1 across the label set.
type IntentClassifier interface {
	Classify(ctx context.Context, text string, labels []string) (Scores, error)
}
