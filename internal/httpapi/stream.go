package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/service"
)

// handleScanStream pushes the device's scanner transitions as server-sent
// events until the client goes away or the scanner is evicted.
func (s *Server) handleScanStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	deviceID := strings.TrimSpace(r.URL.Query().Get("device_id"))
	ch, cancel, err := s.scanService.Subscribe(deviceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_device_id", err.Error())
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case st, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(service.ScanResponse(deviceID, "", st, st.At))
			if err != nil {
				s.logger.Error(r.Context(), "stream encode error", "err", err)
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", st.Seq, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
