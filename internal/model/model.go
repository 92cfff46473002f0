// Package model loads the trained delay models and exposes them as
// classifier/regressor pairs over prepared feature vectors.
package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/flightdelay/flightdelay/internal/features"
)

var (
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrArtifactInvalid  = errors.New("model artifact invalid")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrFeatureMismatch  = errors.New("feature vector does not match model")
	ErrNotProbabilistic = errors.New("estimator does not output probabilities")
)

// Classifier returns the positive-class (delayed) probability for x.
type Classifier interface {
	PredictProba(x []float64) (float64, error)
}

// Regressor returns the estimated delay in minutes for x.
type Regressor interface {
	Predict(x []float64) (float64, error)
}

// Pair is the two-stage model for one direction.
type Pair struct {
	Classifier
	Regressor
}

// Valid reports whether both stages are set.
func (p Pair) Valid() bool {
	return p.Classifier != nil && p.Regressor != nil
}

// PredictProba implements Classifier.
func (e *Estimator) PredictProba(x []float64) (float64, error) {
	if !e.logistic {
		return 0, ErrNotProbabilistic
	}
	p, err := e.Evaluate(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(p) {
		return 0, fmt.Errorf("probability is NaN")
	}
	return p, nil
}

// Predict implements Regressor.
func (e *Estimator) Predict(x []float64) (float64, error) {
	return e.Evaluate(x)
}

// Bundle is one loaded, immutable artifact.
type Bundle struct {
	Version       int
	TrainedAt     *time.Time
	Path          string
	Size          int64
	LoadedAt      time.Time
	Departure     Pair
	Arrival       Pair
	Preprocessors *features.Preprocessors

	kinds map[string]string
}

// Info describes a bundle for operators.
type Info struct {
	Version       int               `json:"version"`
	TrainedAt     *time.Time        `json:"trainedAt,omitempty"`
	LoadedAt      time.Time         `json:"loadedAt"`
	Path          string            `json:"path,omitempty"`
	SizeBytes     int64             `json:"sizeBytes"`
	Estimators    map[string]string `json:"estimators"`
	Preprocessors features.Summary  `json:"preprocessors"`
}

// Info summarizes the bundle.
func (b *Bundle) Info() Info {
	kinds := make(map[string]string, len(b.kinds))
	for k, v := range b.kinds {
		kinds[k] = v
	}
	return Info{
		Version:       b.Version,
		TrainedAt:     b.TrainedAt,
		LoadedAt:      b.LoadedAt,
		Path:          b.Path,
		SizeBytes:     b.Size,
		Estimators:    kinds,
		Preprocessors: b.Preprocessors.Summary(),
	}
}
