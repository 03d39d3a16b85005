package api

import (
	"net/http"

	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/id"
)

// parseLogStatus maps the status query value to a filter. Empty and "all"
// mean no filter.
func parseLogStatus(s string) (delivery.Status, bool) {
	if s == "" || s == "all" {
		return "", true
	}
	st := delivery.Status(s)
	return st, st.Valid()
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, ok := parseLogStatus(queryParam(r, "status"))
	if !ok {
		writeError(w, http.StatusBadRequest, "status must be one of success, failed, archived, retried, all")
		return
	}

	opts := delivery.ListOpts{
		Cursor:    queryParam(r, "cursor"),
		Limit:     limit,
		Status:    status,
		EventType: queryParam(r, "event_type"),
	}

	if raw := queryParam(r, "endpoint_id"); raw != "" {
		epID, err := id.ParseEndpointID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid endpoint ID")
			return
		}
		opts.EndpointID = epID
	}

	page, err := h.hook.ListLogs(r.Context(), opts)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	logID, err := id.ParseLogID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log ID")
		return
	}

	entry, err := h.hook.GetLog(r.Context(), logID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) archiveLog(w http.ResponseWriter, r *http.Request) {
	logID, err := id.ParseLogID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log ID")
		return
	}

	entry, err := h.hook.Archive(r.Context(), logID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) retryLog(w http.ResponseWriter, r *http.Request) {
	logID, err := id.ParseLogID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log ID")
		return
	}

	entry, err := h.hook.GetLog(r.Context(), logID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if entry.Status != delivery.StatusFailed {
		writeError(w, http.StatusConflict, "only failed deliveries can be retried")
		return
	}

	res, err := h.hook.Retry(r.Context(), logID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
