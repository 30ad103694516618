package management

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rmachado/inventra/internal/api/response"
	"github.com/rmachado/inventra/internal/domain"
	"github.com/rmachado/inventra/internal/service"
)

type DeviceHandler struct {
	inventorySvc *service.InventoryService
}

func NewDeviceHandler(inventorySvc *service.InventoryService) *DeviceHandler {
	return &DeviceHandler{inventorySvc: inventorySvc}
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := response.ParseSkipLimit(r)

	devices, total, err := h.inventorySvc.List(r.Context(), skip, limit)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to list devices")
		return
	}

	response.List(w, http.StatusOK, devices, total, skip, limit)
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid device id")
		return
	}

	device, err := h.inventorySvc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "device not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, "failed to get device")
		return
	}

	response.JSON(w, http.StatusOK, device)
}

// Update applies a manual edit from the frontend: only supplied fields
// change, hardware components merge the same way agent reports do.
func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid device id")
		return
	}

	var upd domain.DeviceUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	device, err := h.inventorySvc.Update(r.Context(), id, &upd)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.Error(w, http.StatusNotFound, "device not found")
		case errors.Is(err, domain.ErrConflict):
			response.Error(w, http.StatusConflict, "ip_address already in use")
		default:
			response.Error(w, http.StatusInternalServerError, "failed to update device")
		}
		return
	}

	response.JSON(w, http.StatusOK, device)
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid device id")
		return
	}

	if err := h.inventorySvc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "device not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, "failed to delete device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DeviceHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid device id")
		return
	}

	logs, err := h.inventorySvc.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "device not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, "failed to get history")
		return
	}

	response.JSON(w, http.StatusOK, logs)
}
