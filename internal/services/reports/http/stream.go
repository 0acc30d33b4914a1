package http

import (
	"encoding/json"
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"consultmail/internal/modkit/httpkit"
	"consultmail/internal/services/reports/stream"
)

// ssePayload is the JSON body of one SSE data frame
type ssePayload struct {
	Type  string `json:"type"`
	Line  string `json:"line,omitempty"`
	Index int    `json:"index,omitempty"`
	Total int    `json:"total,omitempty"`
}

func payloadFor(e stream.Event) ssePayload {
	switch e.Type {
	case stream.EventTotal:
		return ssePayload{Type: "total", Total: e.Total}
	case stream.EventCurrent:
		return ssePayload{Type: "current", Index: e.Index, Total: e.Total}
	default:
		return ssePayload{Type: "log", Line: e.Line}
	}
}

// events streams the job's log and progress as server-sent events. The
// stream ends when the job reaches a terminal state or the client goes away
func (h *handlers) events(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ch, cancel, err := h.svc.Subscribe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpkit.RespondError(w, r, err)
		return
	}
	defer cancel()

	fl, ok := w.(stdhttp.Flusher)
	if !ok {
		httpkit.RespondError(w, r, errStreamingUnsupported)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(stdhttp.StatusOK)
	fl.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-ch:
			if !open {
				_, _ = w.Write([]byte("event: end\ndata: {}\n\n"))
				fl.Flush()
				return
			}
			body, err := json.Marshal(payloadFor(e))
			if err != nil {
				continue
			}
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(body)
			_, _ = w.Write([]byte("\n\n"))
			fl.Flush()
		}
	}
}

// tail streams the job's events as plain text lines using the legacy marker
// encoding, one line per event plus the annotated duplicate for progress
func (h *handlers) tail(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ch, cancel, err := h.svc.Subscribe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpkit.RespondError(w, r, err)
		return
	}
	defer cancel()

	fl, ok := w.(stdhttp.Flusher)
	if !ok {
		httpkit.RespondError(w, r, errStreamingUnsupported)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(stdhttp.StatusOK)
	fl.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-ch:
			if !open {
				return
			}
			for _, line := range stream.EncodeWire(e) {
				_, _ = w.Write([]byte(line))
				_, _ = w.Write([]byte("\n"))
			}
			fl.Flush()
		}
	}
}
