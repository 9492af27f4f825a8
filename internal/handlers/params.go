package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"eventmarket/internal/models"
)

// getParam returns a route parameter captured by pat.
func getParam(r *http.Request, name string) string {
	return r.URL.Query().Get(":" + name)
}

// intParam parses a positive integer parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := getParam(r, name)
	if raw == "" {
		return 0, models.NewValidationError(name, "is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError(name, fmt.Sprintf("must be a positive integer, got %q", raw))
	}
	return id, nil
}
