// Serves a records.Store over HTTP.

package remote

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/maruel/propertyhub/internal/records"
)

// maxRequestBytes caps the size of a request body.
const maxRequestBytes = 1 << 20

type handler struct {
	store     records.Store
	projectID string
	key       []byte
}

// NewHandler serves store under /records/. When key is not empty, requests
// must carry a bearer token minted for projectID with key.
func NewHandler(store records.Store, projectID string, key []byte) http.Handler {
	h := &handler{store: store, projectID: projectID, key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /records/{table}/fetch", h.fetch)
	mux.HandleFunc("GET /records/{table}/{id}", h.get)
	mux.HandleFunc("POST /records/{table}", h.create)
	mux.HandleFunc("PATCH /records/{table}", h.update)
	mux.HandleFunc("DELETE /records/{table}", h.delete)
	return h.authenticate(mux)
}

func (h *handler) authenticate(next http.Handler) http.Handler {
	if len(h.key) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if err := verifyToken(tok, h.projectID, h.key); err != nil {
			slog.WarnContext(r.Context(), "Rejected record request", "err", err)
			writeFailure(w, http.StatusUnauthorized, errInvalidToken.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) fetch(w http.ResponseWriter, r *http.Request) {
	var q records.Query
	if !decodeBody(w, r, &q) {
		return
	}
	recs, err := h.store.Fetch(r.Context(), r.PathValue("table"), q)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if recs == nil {
		recs = []records.Record{}
	}
	writeData(w, r, recs)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid record id")
		return
	}
	var fields []string
	if f := r.URL.Query().Get("fields"); f != "" {
		fields = strings.Split(f, ",")
	}
	rec, err := h.store.Get(r.Context(), r.PathValue("table"), id, fields)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, r, rec)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req mutateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.store.Create(r.Context(), r.PathValue("table"), req.Records)
	writeResults(w, r, res, err)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	var req mutateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.store.Update(r.Context(), r.PathValue("table"), req.Records)
	writeResults(w, r, res, err)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.store.Delete(r.Context(), r.PathValue("table"), req.RecordIDs)
	writeResults(w, r, res, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeData(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode records", "err", err)
		writeFailure(w, http.StatusInternalServerError, "failed to encode records")
		return
	}
	writeEnvelope(w, http.StatusOK, &envelope{Success: true, Data: data})
}

func writeResults(w http.ResponseWriter, r *http.Request, res []records.Result, err error) {
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, &envelope{Success: true, Results: res})
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var re *records.RemoteError
	if errors.As(err, &re) {
		writeFailure(w, http.StatusBadRequest, re.Message)
		return
	}
	slog.ErrorContext(r.Context(), "Record store error", "err", err)
	writeFailure(w, http.StatusInternalServerError, err.Error())
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, &envelope{Message: msg})
}

func writeEnvelope(w http.ResponseWriter, status int, env *envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}
