package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Crosscheck/internal/ahp"
	"github.com/MikeSquared-Agency/Crosscheck/internal/store"
)

type RunsHandler struct {
	store store.Store
}

func NewRunsHandler(s store.Store) *RunsHandler {
	return &RunsHandler{store: s}
}

func (h *RunsHandler) available(w http.ResponseWriter) bool {
	if h.store == nil {
		writeError(w, http.StatusNotFound, kindNotFound, "audit store is not configured")
		return false
	}
	return true
}

func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var filter store.RunFilter
	q := r.URL.Query()
	if v := q.Get("operation"); v != "" {
		op := store.Operation(v)
		filter.Operation = &op
	}
	if v := q.Get("pass"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ahp.KindBadRequest, "invalid pass")
			return
		}
		filter.Pass = &b
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ahp.KindBadRequest, "invalid since, expected RFC3339")
			return
		}
		filter.Since = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ahp.KindBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ahp.KindBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	runs, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, kindInternal, err.Error())
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ahp.KindBadRequest, "invalid run id")
		return
	}
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, kindInternal, err.Error())
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, kindNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *RunsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, kindInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
