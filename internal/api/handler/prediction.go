// Package handler provides HTTP handlers for the flight delay API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/flightdelay/flightdelay/internal/api/models"
	"github.com/flightdelay/flightdelay/internal/api/response"
	"github.com/flightdelay/flightdelay/internal/features"
	"github.com/flightdelay/flightdelay/internal/history"
	"github.com/flightdelay/flightdelay/internal/model"
	"github.com/flightdelay/flightdelay/internal/prediction"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Predictor is the prediction service as used by the HTTP layer.
type Predictor interface {
	PredictFlight(ctx context.Context, req prediction.FlightRequest) (*prediction.FlightPrediction, error)
	PredictRecord(ctx context.Context, rec features.FlightRecord) (prediction.Result, error)
	Recent(limit int) []history.Entry
}

// PredictionHandler handles prediction endpoints.
type PredictionHandler struct {
	predictor Predictor
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(predictor Predictor) *PredictionHandler {
	return &PredictionHandler{predictor: predictor}
}

// PredictFlight handles POST /v1/predictions - predict a scheduled flight.
func (h *PredictionHandler) PredictFlight(w http.ResponseWriter, r *http.Request) {
	var input prediction.FlightRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	out, err := h.predictor.PredictFlight(r.Context(), input)
	if err != nil {
		writePredictionError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, out)
}

// PredictRecord handles POST /v1/predictions:record - score a raw flight record.
func (h *PredictionHandler) PredictRecord(w http.ResponseWriter, r *http.Request) {
	var rec features.FlightRecord
	if err := decodeJSON(w, r, &rec); err != nil {
		if errors.Is(err, features.ErrInvalidRecord) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	res, err := h.predictor.PredictRecord(r.Context(), rec)
	if err != nil {
		writePredictionError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, res)
}

// Recent handles GET /v1/predictions/recent - latest predictions.
func (h *PredictionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, r, "limit must be a positive integer", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer", Code: "INVALID"},
			})
			return
		}
		limit = n
	}

	items := h.predictor.Recent(limit)
	response.JSON(w, r, http.StatusOK, models.RecentPredictions{Items: items, Count: len(items)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// writePredictionError maps service errors to problem responses.
func writePredictionError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *prediction.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]models.FieldError, len(verr.Errors))
		for i, fe := range verr.Errors {
			fields[i] = models.FieldError{Field: fe.Field, Message: fe.Message, Code: fieldErrorCode(fe.Message)}
		}
		response.BadRequest(w, r, "request validation failed", fields)
	case errors.Is(err, prediction.ErrInvalidRequest), errors.Is(err, features.ErrInvalidRecord):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, model.ErrModelUnavailable):
		response.ModelUnavailable(w, r, "no prediction model is loaded")
	case errors.Is(err, prediction.ErrPrediction):
		response.PredictionFailed(w, r, "the model could not score this flight")
	default:
		response.InternalError(w, r, "unexpected error")
	}
}

func fieldErrorCode(message string) string {
	if message == "is required" {
		return "REQUIRED"
	}
	return "INVALID"
}
