package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const keepAliveInterval = 15 * time.Second

// streamSnapshots serves an SSE stream of full snapshots. subscribe starts
// the producer and returns its stop function; only the newest pending
// snapshot is written, older ones are dropped.
func streamSnapshots[T any](w http.ResponseWriter, r *http.Request, event string, subscribe func(send func(T)) (stop func())) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var (
		mu      sync.Mutex
		pending *T
	)
	notify := make(chan struct{}, 1)
	send := func(v T) {
		mu.Lock()
		pending = &v
		mu.Unlock()
		select {
		case notify <- struct{}{}:
		default:
		}
	}

	stop := subscribe(send)
	defer stop()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-notify:
			mu.Lock()
			v := pending
			pending = nil
			mu.Unlock()
			if v == nil {
				continue
			}
			data, err := json.Marshal(v)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
