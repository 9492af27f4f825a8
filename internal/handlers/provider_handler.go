package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"eventmarket/internal/models"
	"eventmarket/internal/services"
)

type ProviderHandler struct {
	Service *services.ProviderService
}

func (h *ProviderHandler) GetProviders(w http.ResponseWriter, r *http.Request) {
	var filter models.ProviderFilter
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			writeError(w, r, models.NewValidationError("categoryId", "must be a positive integer"))
			return
		}
		filter.CategoryID = id
	}

	providers, err := h.Service.GetProviders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

func (h *ProviderHandler) GetProvidersByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := intParam(r, "categoryId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	providers, err := h.Service.GetProviders(r.Context(), models.ProviderFilter{CategoryID: categoryID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

func (h *ProviderHandler) GetTopRated(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultTopRatedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, models.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = n
	}

	providers, err := h.Service.GetTopRated(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

func (h *ProviderHandler) GetProviderByID(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	provider, err := h.Service.GetProviderByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, provider)
}

func (h *ProviderHandler) GetProviderByUserID(w http.ResponseWriter, r *http.Request) {
	userID, err := intParam(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	provider, err := h.Service.GetProviderByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, provider)
}

// UploadImage accepts a multipart form with the file in the "image" field.
func (h *ProviderHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize+64<<10)
	file, _, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, models.NewValidationError("image", "must be at most 5 MiB"))
			return
		}
		writeError(w, r, models.NewValidationError("image", "multipart field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxImageSize+1))
	if err != nil {
		writeError(w, r, err)
		return
	}

	provider, err := h.Service.UpdateImage(r.Context(), user, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, provider)
}
