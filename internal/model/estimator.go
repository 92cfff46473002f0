package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Estimator kinds.
const (
	KindLinear       = "linear"
	KindLogistic     = "logistic"
	KindTreeEnsemble = "tree_ensemble"
)

// Tree ensemble options.
const (
	AggregationSum  = "sum"
	AggregationMean = "mean"
	LinkIdentity    = "identity"
	LinkLogistic    = "logistic"
)

// EstimatorSpec is the serialized form of an estimator.
type EstimatorSpec struct {
	Type string `json:"type"`

	// linear, logistic
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`

	// tree_ensemble
	Aggregation string     `json:"aggregation"`
	Link        string     `json:"link"`
	BaseScore   float64    `json:"base_score"`
	Trees       []TreeSpec `json:"trees"`
}

// TreeSpec is one decision tree; node 0 is the root.
type TreeSpec struct {
	Nodes []NodeSpec `json:"nodes"`
}

// NodeSpec is a split or, when Leaf is set, a leaf. A split goes left when
// x < Threshold, and when x is NaN goes left only if MissingLeft.
type NodeSpec struct {
	Feature     string   `json:"feature"`
	Threshold   float64  `json:"threshold"`
	Left        int      `json:"left"`
	Right       int      `json:"right"`
	MissingLeft bool     `json:"missing_left"`
	Leaf        *float64 `json:"leaf"`
}

// Estimator is a compiled estimator bound to a feature order.
type Estimator struct {
	kind string

	intercept float64
	weights   []float64

	trees     []tree
	mean      bool
	logistic  bool
	baseScore float64
}

type node struct {
	feature     int
	threshold   float64
	left, right int
	missingLeft bool
	leaf        bool
	value       float64
}

type tree []node

// Compile validates spec and binds its feature references to positions in
// featureNames.
func Compile(spec EstimatorSpec, featureNames []string) (*Estimator, error) {
	index := make(map[string]int, len(featureNames))
	for i, n := range featureNames {
		index[n] = i
	}

	switch spec.Type {
	case KindLinear, KindLogistic:
		weights := make([]float64, len(featureNames))
		for name, w := range spec.Coefficients {
			i, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("coefficient for unknown feature %q", name)
			}
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("coefficient for %q is not finite", name)
			}
			weights[i] = w
		}
		return &Estimator{
			kind:      spec.Type,
			intercept: spec.Intercept,
			weights:   weights,
			logistic:  spec.Type == KindLogistic,
		}, nil

	case KindTreeEnsemble:
		if len(spec.Trees) == 0 {
			return nil, fmt.Errorf("tree ensemble has no trees")
		}

		e := &Estimator{kind: spec.Type, baseScore: spec.BaseScore}

		switch spec.Aggregation {
		case "", AggregationSum:
		case AggregationMean:
			e.mean = true
		default:
			return nil, fmt.Errorf("unknown aggregation %q", spec.Aggregation)
		}

		switch spec.Link {
		case "", LinkIdentity:
		case LinkLogistic:
			e.logistic = true
		default:
			return nil, fmt.Errorf("unknown link %q", spec.Link)
		}

		for ti, ts := range spec.Trees {
			t, err := compileTree(ts, index)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", ti, err)
			}
			e.trees = append(e.trees, t)
		}
		return e, nil

	default:
		return nil, fmt.Errorf("unknown estimator type %q", spec.Type)
	}
}

func compileTree(spec TreeSpec, index map[string]int) (tree, error) {
	if len(spec.Nodes) == 0 {
		return nil, fmt.Errorf("no nodes")
	}

	t := make(tree, len(spec.Nodes))
	for i, n := range spec.Nodes {
		if n.Leaf != nil {
			t[i] = node{leaf: true, value: *n.Leaf}
			continue
		}

		f, ok := index[n.Feature]
		if !ok {
			return nil, fmt.Errorf("node %d: unknown feature %q", i, n.Feature)
		}
		// Children must come after their parent, which rules out cycles.
		if n.Left <= i || n.Left >= len(spec.Nodes) || n.Right <= i || n.Right >= len(spec.Nodes) {
			return nil, fmt.Errorf("node %d: child index out of range", i)
		}

		t[i] = node{
			feature:     f,
			threshold:   n.Threshold,
			left:        n.Left,
			right:       n.Right,
			missingLeft: n.MissingLeft,
		}
	}
	return t, nil
}

// Kind returns the estimator type.
func (e *Estimator) Kind() string {
	return e.kind
}

// Probabilistic reports whether the estimator outputs a probability.
func (e *Estimator) Probabilistic() bool {
	return e.logistic
}

// Evaluate scores one feature vector. x must be in the compiled feature order.
func (e *Estimator) Evaluate(x []float64) (float64, error) {
	if len(x) != len(e.weights) && e.kind != KindTreeEnsemble {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrFeatureMismatch, len(x), len(e.weights))
	}

	var raw float64
	switch e.kind {
	case KindLinear, KindLogistic:
		raw = e.intercept + floats.Dot(e.weights, x)
	default:
		sum := 0.0
		for _, t := range e.trees {
			v, err := t.evaluate(x)
			if err != nil {
				return 0, err
			}
			sum += v
		}
		if e.mean {
			sum /= float64(len(e.trees))
		}
		raw = e.baseScore + sum
	}

	if e.logistic {
		return sigmoid(raw), nil
	}
	return raw, nil
}

func (t tree) evaluate(x []float64) (float64, error) {
	i := 0
	for {
		n := t[i]
		if n.leaf {
			return n.value, nil
		}
		if n.feature >= len(x) {
			return 0, fmt.Errorf("%w: split on feature %d of %d", ErrFeatureMismatch, n.feature, len(x))
		}

		v := x[n.feature]
		switch {
		case math.IsNaN(v):
			i = pick(n.missingLeft, n.left, n.right)
		case v < n.threshold:
			i = n.left
		default:
			i = n.right
		}
	}
}

func pick(left bool, l, r int) int {
	if left {
		return l
	}
	return r
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
