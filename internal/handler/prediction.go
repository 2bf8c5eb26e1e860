package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/diacare/diacare-api/internal/model"
	"github.com/diacare/diacare-api/internal/service"
)

// PredictionHandler handles HTTP requests for diabetes prediction.
type PredictionHandler struct {
	service *service.PredictionService
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(svc *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{service: svc}
}

// HandlePredict handles POST /predict requests.
func (h *PredictionHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := decodeJSON(w, r, &fields); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	label, err := h.service.Predict(fields)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFeatures):
			writeJSON(w, http.StatusBadRequest, errorResponse("Missing required features"))
		case errors.Is(err, service.ErrInvalidFeature):
			writeJSON(w, http.StatusBadRequest, errorResponse("Invalid input values. Must be numeric."))
		default:
			slog.Error("prediction error", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("Internal server error: "+err.Error()))
		}
		return
	}

	writeJSON(w, http.StatusOK, model.PredictionResponse{Prediction: string(label)})
}
