package prediction_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdelay/flightdelay/internal/features"
	"github.com/flightdelay/flightdelay/internal/model"
	"github.com/flightdelay/flightdelay/internal/prediction"
)

type fixedClassifier struct {
	p   float64
	err error
}

func (c fixedClassifier) PredictProba([]float64) (float64, error) { return c.p, c.err }

type fixedRegressor struct {
	v   float64
	err error
}

func (r fixedRegressor) Predict([]float64) (float64, error) { return r.v, r.err }

func pair(p, v float64) model.Pair {
	return model.Pair{Classifier: fixedClassifier{p: p}, Regressor: fixedRegressor{v: v}}
}

func TestPredict_Gate(t *testing.T) {
	tests := []struct {
		name      string
		prob      float64
		estimate  float64
		wantDelay float64
	}{
		{"below gate", 0.19, 25, 0},
		{"exactly at gate", 0.20, 25, 0},
		{"above gate", 0.21, 25, 25},
		{"negative estimate passes through", 0.21, -5, -5},
		{"certain delay", 1, 42.5, 42.5},
		{"zero probability", 0, 90, 0},
		{"gated infinite estimate", 0.19, math.Inf(1), 0},
		{"gated NaN estimate", 0.20, math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := prediction.Predict(features.Vector{}, pair(tt.prob, tt.estimate), pair(0.5, 10))
			require.NoError(t, err)

			assert.Equal(t, tt.wantDelay, res.DepartureDelayMinutes)
			assert.Equal(t, tt.prob, res.DepartureProbability)
			assert.Equal(t, 10.0, res.ArrivalDelayMinutes)
			assert.Equal(t, 0.5, res.ArrivalProbability)
		})
	}
}

func TestPredict_InvalidProbability(t *testing.T) {
	for _, p := range []float64{-0.01, 1.01, math.NaN()} {
		_, err := prediction.Predict(features.Vector{}, pair(0.5, 1), pair(p, 1))
		assert.ErrorIs(t, err, prediction.ErrPrediction, "p=%v", p)
	}
}

func TestPredict_NonFiniteEstimate(t *testing.T) {
	_, err := prediction.Predict(features.Vector{}, pair(0.9, math.Inf(1)), pair(0.5, 1))
	assert.ErrorIs(t, err, prediction.ErrPrediction)
}

func TestPredict_EstimatorErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := prediction.Predict(features.Vector{},
		model.Pair{Classifier: fixedClassifier{err: boom}, Regressor: fixedRegressor{}},
		pair(0.5, 1))
	assert.ErrorIs(t, err, prediction.ErrPrediction)
	assert.ErrorIs(t, err, boom)

	_, err = prediction.Predict(features.Vector{},
		pair(0.5, 1),
		model.Pair{Classifier: fixedClassifier{p: 0.9}, Regressor: fixedRegressor{err: boom}})
	assert.ErrorIs(t, err, boom)
}

func TestPredict_GatedDirectionIgnoresRegressor(t *testing.T) {
	boom := errors.New("boom")

	res, err := prediction.Predict(features.Vector{},
		model.Pair{Classifier: fixedClassifier{p: 0.1}, Regressor: fixedRegressor{err: boom}},
		pair(0.5, 10))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.DepartureDelayMinutes)
	assert.Equal(t, 0.1, res.DepartureProbability)
	assert.Equal(t, 10.0, res.ArrivalDelayMinutes)
}

func TestPredict_MissingModels(t *testing.T) {
	_, err := prediction.Predict(features.Vector{}, model.Pair{}, pair(0.5, 1))
	assert.ErrorIs(t, err, model.ErrModelUnavailable)
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0, prediction.RiskLow},
		{0.2999, prediction.RiskLow},
		{0.30, prediction.RiskMedium},
		{0.5999, prediction.RiskMedium},
		{0.60, prediction.RiskHigh},
		{1, prediction.RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, prediction.RiskLevel(tt.p), "p=%v", tt.p)
	}
}
