package handler

import (
	"net/http"

	"github.com/flightdelay/flightdelay/internal/api/response"
	"github.com/flightdelay/flightdelay/internal/prediction"
)

// ModelHandler exposes metadata of the loaded model bundle.
type ModelHandler struct {
	models prediction.ModelSource
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(models prediction.ModelSource) *ModelHandler {
	return &ModelHandler{models: models}
}

// GetModel handles GET /v1/model.
func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.models.Current()
	if err != nil {
		response.ModelUnavailable(w, r, "no prediction model is loaded")
		return
	}
	response.JSON(w, r, http.StatusOK, bundle.Info())
}
