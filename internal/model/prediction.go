package model

// PredictionResponse represents a successful /predict result.
type PredictionResponse struct {
	Prediction string `json:"prediction"`
}
