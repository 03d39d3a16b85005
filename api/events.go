package api

import (
	"encoding/json"
	"net/http"

	"github.com/xraph/storehook/delivery"
)

type triggerEventRequest struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type triggerEventResponse struct {
	EventType string            `json:"event_type"`
	Results   []delivery.Result `json:"results"`
}

type eventTypeResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

func (h *Handler) listEventTypes(w http.ResponseWriter, _ *http.Request) {
	defs := h.hook.Catalog().List()
	out := make([]eventTypeResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, eventTypeResponse{Name: d.Name, Description: d.Description, Group: d.Group})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) triggerEvent(w http.ResponseWriter, r *http.Request) {
	var req triggerEventRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EventType == "" {
		writeError(w, http.StatusBadRequest, "event_type is required")
		return
	}

	var data any = req.Data
	if len(req.Data) == 0 {
		data = map[string]any{}
	}

	results, err := h.hook.TriggerSync(r.Context(), req.EventType, data)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if results == nil {
		results = []delivery.Result{}
	}

	writeJSON(w, http.StatusAccepted, triggerEventResponse{EventType: req.EventType, Results: results})
}

func (h *Handler) checkEmail(w http.ResponseWriter, r *http.Request) {
	email := queryParam(r, "email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	disposable, err := h.hook.CheckEmail(r.Context(), email)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"email": email, "disposable": disposable})
}
