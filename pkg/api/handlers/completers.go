package handlers

import (
	"net/http"

	"github.com/polydev/polyd/pkg/completer"
)

// CompletersHandler exposes the completer registry.
type CompletersHandler struct {
	registry *completer.Registry
}

// NewCompletersHandler creates a completers handler over the registry.
func NewCompletersHandler(registry *completer.Registry) *CompletersHandler {
	return &CompletersHandler{registry: registry}
}

// List handles GET /completers: the registered completers in registry
// order, with their aliases.
func (h *CompletersHandler) List(w http.ResponseWriter, r *http.Request) {
	specs := h.registry.Specs()

	type entry struct {
		Name    string   `json:"name"`
		Aliases []string `json:"aliases,omitempty"`
	}
	completers := make([]entry, len(specs))
	for i, spec := range specs {
		completers[i] = entry{Name: spec.Name, Aliases: spec.Aliases}
	}

	writeJSON(w, http.StatusOK, okResponse(map[string]any{
		"completers": completers,
	}))
}
