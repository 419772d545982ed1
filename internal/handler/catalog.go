package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmaia-dev/reelpick/internal/catalog"
)

// CatalogHandler proxies read-only discovery queries to the movie catalog.
type CatalogHandler struct {
	catalog *catalog.Client
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c *catalog.Client) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// HandleSuggest returns one random movie matching the query filters.
// GET /api/movies/suggest?genre=&decade=&language=&highRated=&popularOnly=&familyFriendly=
// Response: {"movie": {...}} or 404
func (h *CatalogHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	decade := 0
	if v := q.Get("decade"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "decade must be a year, e.g. 1990")
			return
		}
		decade = parsed
	}

	filters := catalog.Filters{
		Genre:          q.Get("genre"),
		Decade:         decade,
		Language:       q.Get("language"),
		HighRated:      q.Get("highRated") == "true",
		PopularOnly:    q.Get("popularOnly") == "true",
		FamilyFriendly: q.Get("familyFriendly") == "true",
	}

	movie, err := h.catalog.Suggest(r.Context(), filters)
	if err != nil {
		if errors.Is(err, catalog.ErrNoMatches) {
			writeError(w, http.StatusNotFound, "No movies found with those filters. Try adjusting your picks.")
			return
		}
		slog.Error("suggest movie", "error", err)
		writeError(w, http.StatusBadGateway, "Couldn't fetch a suggestion right now. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"movie": movie,
	})
}
