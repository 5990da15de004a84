package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"gemini-chat/internal/country"
)

// CountryLister provides the country dialing-code directory
type CountryLister interface {
	List(ctx context.Context) ([]country.Country, error)
}

// CountryHandler serves the country directory used by the phone entry form
type CountryHandler struct {
	lister CountryLister
}

// NewCountryHandler creates a new country handler
func NewCountryHandler(lister CountryLister) *CountryHandler {
	return &CountryHandler{
		lister: lister,
	}
}

// List returns the sorted country directory. When the upstream API is
// unreachable a small built-in fallback set is served instead.
func (h *CountryHandler) List(w http.ResponseWriter, r *http.Request) {
	countries, err := h.lister.List(r.Context())
	if err != nil {
		slog.Warn("country lookup failed, serving fallback",
			slog.String("error", err.Error()))
		countries = country.Fallback()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(countries)
}
