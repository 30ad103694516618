package agent

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rmachado/inventra/internal/api/response"
	"github.com/rmachado/inventra/internal/domain"
	"github.com/rmachado/inventra/internal/service"
)

type ReportHandler struct {
	inventorySvc *service.InventoryService
}

func NewReportHandler(inventorySvc *service.InventoryService) *ReportHandler {
	return &ReportHandler{inventorySvc: inventorySvc}
}

// Report ingests one snapshot and returns the resulting device record,
// whether the device was created or updated.
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	var snap domain.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	device, err := h.inventorySvc.Report(r.Context(), &snap)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			response.Error(w, http.StatusBadRequest, "ip_address is required")
		case errors.Is(err, domain.ErrConflict):
			// Lost a concurrent-report race; the agent retries the whole
			// snapshot on the next cycle.
			response.Error(w, http.StatusInternalServerError, "conflicting concurrent report")
		default:
			response.Error(w, http.StatusInternalServerError, "failed to process report")
		}
		return
	}

	response.JSON(w, http.StatusCreated, device)
}
