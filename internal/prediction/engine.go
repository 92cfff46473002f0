// Package prediction runs the two-stage delay models over prepared feature
// vectors and orchestrates a full flight prediction.
package prediction

import (
	"errors"
	"fmt"
	"math"

	"github.com/flightdelay/flightdelay/internal/features"
	"github.com/flightdelay/flightdelay/internal/model"
)

// Prediction errors.
var (
	ErrInvalidRequest = errors.New("invalid prediction request")
	ErrPrediction     = errors.New("prediction failed")
)

// Result is the outcome of both directions. The JSON keys are the one-shot
// process contract.
type Result struct {
	DepartureDelayMinutes float64 `json:"departure_delay"`
	DepartureProbability  float64 `json:"departure_probability"`
	ArrivalDelayMinutes   float64 `json:"arrival_delay"`
	ArrivalProbability    float64 `json:"arrival_probability"`
}

// Predict scores v with the departure and arrival model pairs. A direction's
// delay is the regressor estimate when its probability exceeds the gate and
// 0 otherwise. Negative estimates pass through the gate unchanged.
func Predict(v features.Vector, departure, arrival model.Pair) (Result, error) {
	if !departure.Valid() || !arrival.Valid() {
		return Result{}, model.ErrModelUnavailable
	}

	depDelay, depProb, err := predictDirection(v.Values, departure)
	if err != nil {
		return Result{}, fmt.Errorf("departure: %w", err)
	}

	arrDelay, arrProb, err := predictDirection(v.Values, arrival)
	if err != nil {
		return Result{}, fmt.Errorf("arrival: %w", err)
	}

	return Result{
		DepartureDelayMinutes: depDelay,
		DepartureProbability:  depProb,
		ArrivalDelayMinutes:   arrDelay,
		ArrivalProbability:    arrProb,
	}, nil
}

func predictDirection(x []float64, p model.Pair) (delay, prob float64, err error) {
	prob, err = p.PredictProba(x)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: classifier: %w", ErrPrediction, err)
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return 0, 0, fmt.Errorf("%w: probability %v outside [0, 1]", ErrPrediction, prob)
	}

	// The regressor is only consulted once the classifier clears the gate.
	if prob <= features.DelayProbabilityGate {
		return 0, prob, nil
	}

	amount, err := p.Predict(x)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: regressor: %w", ErrPrediction, err)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, 0, fmt.Errorf("%w: regressor returned %v", ErrPrediction, amount)
	}
	return amount, prob, nil
}

// Risk levels by delay probability.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// RiskLevel buckets a probability in [0, 1].
func RiskLevel(probability float64) string {
	pct := probability * 100
	switch {
	case pct < 30:
		return RiskLow
	case pct < 60:
		return RiskMedium
	default:
		return RiskHigh
	}
}
