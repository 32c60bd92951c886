package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fraudscope/fraudscope/internal/application/dto"
	"github.com/fraudscope/fraudscope/internal/application/usecase"
	"github.com/fraudscope/fraudscope/internal/application/validation"
	"github.com/fraudscope/fraudscope/internal/domain/model"
)

// PredictionIDHeader carries the prediction ID alongside the response body.
const PredictionIDHeader = "X-Prediction-ID"

// Scorer is the use case the prediction handler drives.
type Scorer interface {
	Execute(ctx context.Context, req dto.ScoreTransactionRequest) (dto.PredictionResponse, error)
}

// PredictionHandler serves the /predict endpoint.
type PredictionHandler struct {
	scorer    Scorer
	validator *validation.Validator
	recorder  usecase.Recorder
	logger    *slog.Logger
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(scorer Scorer, validator *validation.Validator, recorder usecase.Recorder, logger *slog.Logger) *PredictionHandler {
	if recorder == nil {
		recorder = usecase.NopRecorder{}
	}
	return &PredictionHandler{
		scorer:    scorer,
		validator: validator,
		recorder:  recorder,
		logger:    logger,
	}
}

// RegisterRoutes registers the prediction endpoint on the provided ServeMux.
func (h *PredictionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /predict", h.Predict)
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Details validation.ValidationErrors `json:"details"`
}

// Predict scores one transaction.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	in, err := h.validator.DecodeAndValidate(http.MaxBytesReader(w, r.Body, validation.MaxBodyBytes))
	if err != nil {
		h.recorder.PredictionFailed(dto.SourceREST, usecase.OutcomeInvalid)

		var verrs validation.ValidationErrors
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &verrs):
			writeJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{
				Error:   "validation failed",
				Details: verrs,
			})
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	resp, err := h.scorer.Execute(r.Context(), in.Request(dto.SourceREST))
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransaction) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("prediction failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "prediction error")
		return
	}

	h.logger.Info("prediction served",
		slog.String("prediction_id", resp.ID.String()),
		slog.Int("fraud_score", resp.FraudScore),
	)

	w.Header().Set(PredictionIDHeader, resp.ID.String())
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON marshals the value as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, map[string]string{"error": msg})
}
