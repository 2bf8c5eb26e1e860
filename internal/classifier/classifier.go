// Package classifier loads a pre-trained binary classifier artifact and
// evaluates it on symptom feature vectors.
//
// An artifact is a JSON document naming its kind and carrying the fitted
// parameters. Three kinds are understood:
//
//	logistic  weights, intercept and an optional decision threshold
//	tree      a flat list of split and leaf nodes rooted at index 0
//	forest    several trees combined by majority vote
//
// A loaded Classifier is immutable and safe for concurrent use.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// NumFeatures is the length of every feature vector.
const NumFeatures = 9

// FeatureNames lists the request keys in the order the model expects them.
var FeatureNames = [NumFeatures]string{
	"frequent_urination",
	"excessive_thirst",
	"unexplained_weight_loss",
	"increased_hunger",
	"blurry_vision",
	"fatigue",
	"diabetic_numbness",
	"slow_healing_sores",
	"frequent_infections",
}

// Features is an ordered feature vector.
type Features [NumFeatures]float64

// Label is a classification outcome.
type Label string

const (
	Diabetic    Label = "Diabetic"
	NotDiabetic Label = "Not Diabetic"
)

var (
	ErrInvalidArtifact = errors.New("invalid classifier artifact")
	ErrNonFiniteScore  = errors.New("model score is not finite")
)

// predictor returns the positive class (1) or the negative class (0).
type predictor interface {
	predict(f *Features) (int, error)
}

// Classifier wraps a loaded model.
type Classifier struct {
	name    string
	version string
	kind    string
	model   predictor
}

// Load reads and parses the artifact at path.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier artifact: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates an artifact.
func Parse(data []byte) (*Classifier, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	if len(a.Features) > 0 {
		if len(a.Features) != NumFeatures {
			return nil, fmt.Errorf("%w: expected %d features, got %d", ErrInvalidArtifact, NumFeatures, len(a.Features))
		}
		for i, name := range a.Features {
			if name != FeatureNames[i] {
				return nil, fmt.Errorf("%w: feature %d is %q, want %q", ErrInvalidArtifact, i, name, FeatureNames[i])
			}
		}
	}

	var (
		model predictor
		err   error
	)
	switch a.Kind {
	case "logistic":
		model, err = newLogistic(a)
	case "tree":
		model, err = newTree(a.Nodes)
	case "forest":
		model, err = newForest(a.Trees)
	default:
		err = fmt.Errorf("unknown kind %q", a.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	return &Classifier{name: a.Name, version: a.Version, kind: a.Kind, model: model}, nil
}

// Classify maps the model output for f to a Label. It fails with
// ErrNonFiniteScore when the inputs drive the model score out of range.
func (c *Classifier) Classify(f Features) (Label, error) {
	class, err := c.model.predict(&f)
	if err != nil {
		return "", err
	}
	if class == 1 {
		return Diabetic, nil
	}
	return NotDiabetic, nil
}

// Name returns the artifact name.
func (c *Classifier) Name() string { return c.name }

// Version returns the artifact version.
func (c *Classifier) Version() string { return c.version }

// Kind returns the model kind.
func (c *Classifier) Kind() string { return c.kind }

type artifact struct {
	Name      string     `json:"name"`
	Version   string     `json:"version"`
	Kind      string     `json:"kind"`
	Features  []string   `json:"features"`
	Weights   []float64  `json:"weights"`
	Intercept float64    `json:"intercept"`
	Threshold *float64   `json:"threshold"`
	Nodes     []node     `json:"nodes"`
	Trees     []treeSpec `json:"trees"`
}

type treeSpec struct {
	Nodes []node `json:"nodes"`
}
