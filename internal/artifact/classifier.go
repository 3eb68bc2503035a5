package artifact

import (
	"fmt"
	"math"
)

// Classifier kinds understood by the loader.
const (
	KindLogistic     = "logistic_regression"
	KindTreeEnsemble = "tree_ensemble"

	AggregateMean     = "mean"
	AggregateLogitSum = "logit_sum"
)

// Node is one entry of a flattened decision tree. Left < 0 marks a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flattened binary decision tree rooted at node 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Classifier is the decoded model artifact.
type Classifier struct {
	Kind         string    `json:"kind"`
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
	Trees        []Tree    `json:"trees,omitempty"`
	Aggregation  string    `json:"aggregation,omitempty"`
	BaseScore    float64   `json:"base_score,omitempty"`
}

func (c *Classifier) validate() error {
	width := len(c.FeatureNames)
	switch c.Kind {
	case KindLogistic:
		if len(c.Coefficients) != width {
			return fmt.Errorf("logistic model has %d coefficients for %d features", len(c.Coefficients), width)
		}
	case KindTreeEnsemble:
		if len(c.Trees) == 0 {
			return fmt.Errorf("tree ensemble has no trees")
		}
		if c.Aggregation != AggregateMean && c.Aggregation != AggregateLogitSum {
			return fmt.Errorf("unsupported aggregation %q", c.Aggregation)
		}
		for ti, tree := range c.Trees {
			if err := tree.validate(width, c.Aggregation == AggregateMean); err != nil {
				return fmt.Errorf("tree %d: %w", ti, err)
			}
		}
	default:
		return fmt.Errorf("unsupported classifier kind %q", c.Kind)
	}
	return nil
}

func (t Tree) validate(width int, probabilities bool) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Left < 0 {
			if probabilities && (n.Value < 0 || n.Value > 1) {
				return fmt.Errorf("leaf %d value %v outside [0,1]", i, n.Value)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, width)
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has children out of range", i)
		}
	}
	return nil
}

func (t Tree) leaf(x []float64) float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

// PredictProba returns the probability of the positive (fraud) class.
func (c *Classifier) PredictProba(x []float64) (float64, error) {
	if len(x) != len(c.FeatureNames) {
		return 0, fmt.Errorf("classifier expects %d features, got %d", len(c.FeatureNames), len(x))
	}

	switch c.Kind {
	case KindLogistic:
		z := c.Intercept
		for i, w := range c.Coefficients {
			z += w * x[i]
		}
		return sigmoid(z), nil
	case KindTreeEnsemble:
		sum := 0.0
		for _, tree := range c.Trees {
			sum += tree.leaf(x)
		}
		if c.Aggregation == AggregateMean {
			return sum / float64(len(c.Trees)), nil
		}
		return sigmoid(c.BaseScore + sum), nil
	}
	return 0, fmt.Errorf("unsupported classifier kind %q", c.Kind)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
