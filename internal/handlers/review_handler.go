package handlers

import (
	"net/http"

	"eventmarket/internal/models"
	"eventmarket/internal/services"
)

type ReviewHandler struct {
	Service *services.ReviewService
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req models.CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review, _, err := h.Service.SubmitReview(r.Context(), user, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) GetReviewsByProvider(w http.ResponseWriter, r *http.Request) {
	providerID, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	reviews, err := h.Service.GetReviewsByProvider(r.Context(), providerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
