package handler

import (
	"net/http"

	"github.com/LBIT2016/trading-gamers/internal/api/apierr"
	"github.com/LBIT2016/trading-gamers/internal/web/sse"
)

// EventsHandler streams store changes over SSE
type EventsHandler struct {
	hubManager *sse.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubManager *sse.HubManager) *EventsHandler {
	return &EventsHandler{hubManager: hubManager}
}

// Stream handles GET /api/v1/events?topic=listings|users
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = sse.TopicListings
	}
	if topic != sse.TopicListings && topic != sse.TopicUsers {
		apierr.WriteError(w, apierr.NewInvalidRequestError("topic must be listings or users"))
		return
	}
	sse.ServeSSE(w, r, h.hubManager.GetOrCreateHub(topic), r.URL.Query().Get("client"))
}
