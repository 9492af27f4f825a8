package handlers

import (
	"net/http"

	"eventmarket/internal/models"
	"eventmarket/internal/services"
)

type EventRequestHandler struct {
	Service *services.EventRequestService
}

func (h *EventRequestHandler) CreateEventRequest(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req models.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.Service.CreateEventRequest(r.Context(), user, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *EventRequestHandler) GetCustomerRequests(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	requests, err := h.Service.GetRequestsByCustomer(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *EventRequestHandler) GetProviderRequests(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	requests, err := h.Service.GetRequestsForProviderUser(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *EventRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req models.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Status == "" {
		writeError(w, r, models.NewValidationError("status", "is required"))
		return
	}

	updated, err := h.Service.TransitionStatus(r.Context(), user, id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
