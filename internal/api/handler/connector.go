package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
	"github.com/JungesAngebot/platform-connectors/internal/usecase"
)

// StatusResponse is the coarse outcome of a publishing trigger. The detailed
// message lives in the registry document and the logs.
type StatusResponse struct {
	Status string `json:"status"`
}

// ConnectorHandler handles publishing trigger HTTP requests.
type ConnectorHandler struct {
	svc usecase.ConnectorService
}

// NewConnectorHandler creates a new ConnectorHandler.
func NewConnectorHandler(svc usecase.ConnectorService) *ConnectorHandler {
	return &ConnectorHandler{svc: svc}
}

// Update handles POST /v1/update/{registryID}
func (h *ConnectorHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.svc.Update)
}

// Unpublish handles POST /v1/unpublish/{registryID}
func (h *ConnectorHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.svc.Unpublish)
}

// Delete handles POST /v1/delete/{registryID}
func (h *ConnectorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.svc.Delete)
}

func (h *ConnectorHandler) trigger(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, registryID string) error) {
	registryID := chi.URLParam(r, "registryID")

	if err := run(r.Context(), registryID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrRegistryNotFound) {
			status = http.StatusNotFound
		}
		JSON(w, status, StatusResponse{Status: "error"})
		return
	}

	JSON(w, http.StatusOK, StatusResponse{Status: "success"})
}
