package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/diacare/diacare-api/internal/classifier"
	"github.com/diacare/diacare-api/internal/model"
)

var (
	ErrMissingFeatures = errors.New("missing required features")
	ErrInvalidFeature  = errors.New("feature values must be numeric")
)

// PredictionService turns request fields into a feature vector and
// classifies it.
type PredictionService struct {
	model *classifier.Classifier
}

// NewPredictionService creates a new PredictionService around a loaded model.
func NewPredictionService(model *classifier.Classifier) *PredictionService {
	return &PredictionService{model: model}
}

// Predict classifies the nine named features in fields. Extra keys are ignored.
func (s *PredictionService) Predict(fields map[string]json.RawMessage) (classifier.Label, error) {
	for _, name := range classifier.FeatureNames {
		if _, ok := fields[name]; !ok {
			return "", ErrMissingFeatures
		}
	}

	var features classifier.Features
	for i, name := range classifier.FeatureNames {
		v, err := model.ParseNumber(fields[name])
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return "", ErrInvalidFeature
		}
		features[i] = v
	}

	label, err := s.model.Classify(features)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	return label, nil
}
