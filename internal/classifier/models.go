package classifier

import (
	"errors"
	"fmt"
	"math"
)

type logistic struct {
	weights   [NumFeatures]float64
	intercept float64
	threshold float64
}

func newLogistic(a artifact) (*logistic, error) {
	if len(a.Weights) != NumFeatures {
		return nil, fmt.Errorf("logistic model needs %d weights, got %d", NumFeatures, len(a.Weights))
	}

	m := &logistic{intercept: a.Intercept, threshold: 0.5}
	copy(m.weights[:], a.Weights)
	if a.Threshold != nil {
		if *a.Threshold <= 0 || *a.Threshold >= 1 {
			return nil, fmt.Errorf("threshold %v outside (0, 1)", *a.Threshold)
		}
		m.threshold = *a.Threshold
	}
	return m, nil
}

// probability is NaN when large inputs of opposite weight sign overflow
// the linear score to +Inf and -Inf.
func (m *logistic) probability(f *Features) float64 {
	z := m.intercept
	for i, w := range m.weights {
		z += w * f[i]
	}
	return 1 / (1 + math.Exp(-z))
}

func (m *logistic) predict(f *Features) (int, error) {
	p := m.probability(f)
	if math.IsNaN(p) {
		return 0, ErrNonFiniteScore
	}
	if p >= m.threshold {
		return 1, nil
	}
	return 0, nil
}

// node is a split when Value is nil and a leaf otherwise.
type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     *int    `json:"value"`
}

type tree []node

// newTree validates nodes. Children must come after their parent, which
// rules out cycles and guarantees predict terminates.
func newTree(nodes []node) (tree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}

	for i, n := range nodes {
		if n.Value != nil {
			if *n.Value != 0 && *n.Value != 1 {
				return nil, fmt.Errorf("node %d: leaf value %d is not 0 or 1", i, *n.Value)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= NumFeatures {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("node %d: child index %d invalid", i, child)
			}
		}
	}

	return tree(nodes), nil
}

func (t tree) predict(f *Features) (int, error) {
	return t.leaf(f), nil
}

func (t tree) leaf(f *Features) int {
	i := 0
	for {
		n := &t[i]
		if n.Value != nil {
			return *n.Value
		}
		if f[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// forest takes a majority vote over its trees. Ties go to the positive class.
type forest []tree

func newForest(trees []treeSpec) (forest, error) {
	if len(trees) == 0 {
		return nil, errors.New("forest has no trees")
	}

	out := make(forest, 0, len(trees))
	for i, raw := range trees {
		t, err := newTree(raw.Nodes)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (fo forest) predict(f *Features) (int, error) {
	votes := 0
	for _, t := range fo {
		votes += t.leaf(f)
	}
	if 2*votes >= len(fo) {
		return 1, nil
	}
	return 0, nil
}
