package model_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdelay/flightdelay/internal/model"
)

var names = []string{"DISTANCE", "HOUR", "BAD_WEATHER"}

func leaf(v float64) model.NodeSpec {
	return model.NodeSpec{Leaf: &v}
}

func stump(feature string, threshold, left, right float64, missingLeft bool) model.TreeSpec {
	return model.TreeSpec{Nodes: []model.NodeSpec{
		{Feature: feature, Threshold: threshold, Left: 1, Right: 2, MissingLeft: missingLeft},
		leaf(left),
		leaf(right),
	}}
}

func TestCompile_Linear(t *testing.T) {
	e, err := model.Compile(model.EstimatorSpec{
		Type:         model.KindLinear,
		Intercept:    5,
		Coefficients: map[string]float64{"DISTANCE": 0.01, "BAD_WEATHER": 10},
	}, names)
	require.NoError(t, err)

	got, err := e.Predict([]float64{1000, 14, 1})
	require.NoError(t, err)
	assert.InDelta(t, 25.0, got, 1e-9)
	assert.False(t, e.Probabilistic())

	_, err = e.PredictProba([]float64{1000, 14, 1})
	assert.ErrorIs(t, err, model.ErrNotProbabilistic)
}

func TestCompile_Logistic(t *testing.T) {
	e, err := model.Compile(model.EstimatorSpec{
		Type:         model.KindLogistic,
		Coefficients: map[string]float64{"BAD_WEATHER": 2},
	}, names)
	require.NoError(t, err)

	p, err := e.PredictProba([]float64{0, 0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2)), p, 1e-12)

	p, err = e.PredictProba([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
}

func TestEvaluate_FeatureMismatch(t *testing.T) {
	e, err := model.Compile(model.EstimatorSpec{Type: model.KindLinear}, names)
	require.NoError(t, err)

	_, err = e.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, model.ErrFeatureMismatch)
}

func TestTreeEnsemble(t *testing.T) {
	tests := []struct {
		name string
		spec model.EstimatorSpec
		x    []float64
		want float64
	}{
		{
			name: "sum goes left below threshold",
			spec: model.EstimatorSpec{Type: model.KindTreeEnsemble, BaseScore: 1, Trees: []model.TreeSpec{
				stump("HOUR", 12, 10, 20, false),
				stump("DISTANCE", 500, 1, 2, false),
			}},
			x:    []float64{400, 11, 0},
			want: 12,
		},
		{
			name: "threshold equality goes right",
			spec: model.EstimatorSpec{Type: model.KindTreeEnsemble, Trees: []model.TreeSpec{
				stump("HOUR", 12, 10, 20, false),
			}},
			x:    []float64{0, 12, 0},
			want: 20,
		},
		{
			name: "mean aggregation",
			spec: model.EstimatorSpec{Type: model.KindTreeEnsemble, Aggregation: model.AggregationMean, Trees: []model.TreeSpec{
				stump("HOUR", 12, 10, 20, false),
				stump("HOUR", 12, 30, 40, false),
			}},
			x:    []float64{0, 18, 0},
			want: 30,
		},
		{
			name: "missing value follows missing_left",
			spec: model.EstimatorSpec{Type: model.KindTreeEnsemble, Trees: []model.TreeSpec{
				stump("HOUR", 12, 10, 20, true),
			}},
			x:    []float64{0, math.NaN(), 0},
			want: 10,
		},
		{
			name: "missing value defaults right",
			spec: model.EstimatorSpec{Type: model.KindTreeEnsemble, Trees: []model.TreeSpec{
				stump("HOUR", 12, 10, 20, false),
			}},
			x:    []float64{0, math.NaN(), 0},
			want: 20,
		},
		{
			name: "logistic link",
			spec: model.EstimatorSpec{Type: model.KindTreeEnsemble, Link: model.LinkLogistic, Trees: []model.TreeSpec{
				stump("BAD_WEATHER", 0.5, -100, 0, false),
			}},
			x:    []float64{0, 0, 1},
			want: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := model.Compile(tt.spec, names)
			require.NoError(t, err)

			got, err := e.Predict(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec model.EstimatorSpec
	}{
		{"unknown type", model.EstimatorSpec{Type: "svm"}},
		{"unknown coefficient", model.EstimatorSpec{Type: model.KindLinear, Coefficients: map[string]float64{"TAXI_OUT": 1}}},
		{"non finite coefficient", model.EstimatorSpec{Type: model.KindLinear, Coefficients: map[string]float64{"HOUR": math.Inf(1)}}},
		{"no trees", model.EstimatorSpec{Type: model.KindTreeEnsemble}},
		{"empty tree", model.EstimatorSpec{Type: model.KindTreeEnsemble, Trees: []model.TreeSpec{{}}}},
		{"unknown split feature", model.EstimatorSpec{Type: model.KindTreeEnsemble, Trees: []model.TreeSpec{
			stump("TAXI_OUT", 1, 0, 0, false),
		}}},
		{"child points backwards", model.EstimatorSpec{Type: model.KindTreeEnsemble, Trees: []model.TreeSpec{{Nodes: []model.NodeSpec{
			{Feature: "HOUR", Threshold: 1, Left: 0, Right: 1},
			leaf(1),
		}}}}},
		{"child out of range", model.EstimatorSpec{Type: model.KindTreeEnsemble, Trees: []model.TreeSpec{{Nodes: []model.NodeSpec{
			{Feature: "HOUR", Threshold: 1, Left: 1, Right: 5},
			leaf(1),
		}}}}},
		{"unknown aggregation", model.EstimatorSpec{Type: model.KindTreeEnsemble, Aggregation: "max", Trees: []model.TreeSpec{
			stump("HOUR", 1, 0, 0, false),
		}}},
		{"unknown link", model.EstimatorSpec{Type: model.KindTreeEnsemble, Link: "probit", Trees: []model.TreeSpec{
			stump("HOUR", 1, 0, 0, false),
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Compile(tt.spec, names)
			assert.Error(t, err)
		})
	}
}
