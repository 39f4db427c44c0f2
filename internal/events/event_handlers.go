package events

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type EventHandlers struct {
	Service *EventService
}

func NewEventHandlers(service *EventService) *EventHandlers {
	return &EventHandlers{Service: service}
}

// List returns every run as JSON
func (h *EventHandlers) List(w http.ResponseWriter, r *http.Request) {
	eventList, err := h.Service.List(r.Context())
	if err != nil {
		http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eventList)
}

// RSVPs returns every answer for a run as JSON
func (h *EventHandlers) RSVPs(w http.ResponseWriter, r *http.Request) {
	rsvps, err := h.Service.RSVPs(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rsvps)
}
