package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/learnercorpus/errmap/internal/annotation"
	"github.com/learnercorpus/errmap/internal/pipeline"
	"github.com/learnercorpus/errmap/internal/remap"
	"github.com/learnercorpus/errmap/internal/report"
)

// maxBody bounds request bodies; exports of a few thousand tasks fit well
// below it.
const maxBody = 64 << 20

// Handler implements all HTTP endpoints.
type Handler struct {
	processor *pipeline.Processor
	model     string
	endpoints []string
}

// New creates a Handler that runs exports through processor. The tagger
// model and endpoints are reported by the health endpoint.
func New(processor *pipeline.Processor, model string, endpoints []string) *Handler {
	return &Handler{processor: processor, model: model, endpoints: endpoints}
}

// Register mounts routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /v1/tags", h.listTags)
	mux.HandleFunc("POST /v1/process", h.process)
	mux.HandleFunc("POST /v1/reconstruct", h.reconstruct)
}

// ---------- endpoints ----------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	endpoints := h.endpoints
	if endpoints == nil {
		endpoints = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "model": h.model, "endpoints": endpoints})
}

func (h *Handler) listTags(w http.ResponseWriter, _ *http.Request) {
	type tagEntry struct {
		Code  string `json:"code"`
		Name  string `json:"name"`
		Group string `json:"group"`
	}
	tags := annotation.Tags()
	entries := make([]tagEntry, 0, len(tags))
	for _, t := range tags {
		entries = append(entries, tagEntry{Code: t.Code(), Name: t.Name(), Group: t.Group().String()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

// process runs a Label Studio export. Unit failures are part of the batch
// and do not fail the request.
func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	tasks, err := annotation.Decode(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	defer r.Body.Close()

	slog.Info("process", "tasks", len(tasks))
	batch, err := h.processor.RunTasks(r.Context(), tasks)
	if err != nil {
		slog.Warn("process interrupted", "err", err)
		writeErr(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

type correctionIn struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

type reconstructRequest struct {
	Text        string         `json:"text"`
	Corrections []correctionIn `json:"corrections"`
}

type reconstructResponse struct {
	Corrected string        `json:"corrected"`
	Lookup    []remap.Entry `json:"lookup"`
}

// reconstruct applies corrections to one text without tagging.
func (h *Handler) reconstruct(w http.ResponseWriter, r *http.Request) {
	var req reconstructRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "decode request: "+err.Error())
		return
	}
	defer r.Body.Close()

	n := utf8.RuneCountInString(req.Text)
	unit := annotation.TextUnit{ID: "request", Text: req.Text}
	for i, c := range req.Corrections {
		if c.ID == "" {
			c.ID = strconv.Itoa(i)
		}
		span := annotation.Span{Start: c.Start, End: c.End}
		if !span.Valid(n) {
			writeErr(w, http.StatusUnprocessableEntity, "correction "+c.ID+": span "+span.String()+" outside text")
			return
		}
		unit.Records = append(unit.Records, annotation.Record{
			ID:    c.ID,
			Kind:  annotation.KindCorrection,
			Span:  span,
			Texts: []string{c.Text},
		})
	}

	m, err := remap.Map(unit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, annotation.ErrMalformedAnnotation) || errors.Is(err, remap.ErrLookupInconsistency) {
			status = http.StatusUnprocessableEntity
		}
		writeErr(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reconstructResponse{Corrected: m.Corrected, Lookup: m.Lookup.Entries()})
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := report.MarshalNoEscape(v, false)
	if err != nil {
		slog.Error("encode response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
