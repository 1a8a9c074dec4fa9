package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/tiffin-labs/canteen/internal/infrastructure/fanout"
	"github.com/tiffin-labs/canteen/internal/pkg/logging"
)

type streamEvent struct {
	Type  string        `json:"type"`
	Order orderResponse `json:"order"`
}

// handleStreamOrders serves the change feed as server-sent events.
// An empty account_id streams all orders (staff dashboard); otherwise
// only the account's own orders. When the subscription is dropped for
// lagging, the client receives a resync event and must re-fetch the
// order list before reconnecting.
func (h *Handler) handleStreamOrders(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	filter := fanout.Filter{AccountID: r.URL.Query().Get("account_id")}
	sub := h.hub.Subscribe(filter)
	defer sub.Close()

	logger := logging.FromContext(r.Context()).With(
		zap.String("component", "order_stream"),
		zap.String("filter_account_id", filter.AccountID),
	)
	logger.Info("stream_opened")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Info("stream_closed_by_client")
			return
		case ev, open := <-sub.Events():
			if !open {
				if sub.Lagged() {
					// Tell the client to re-fetch before reconnecting.
					fmt.Fprint(w, "event: resync\ndata: {}\n\n")
					flusher.Flush()
					logger.Warn("stream_dropped_lagging")
				}
				return
			}

			payload, err := json.Marshal(streamEvent{
				Type:  ev.Type,
				Order: toOrderResponse(ev.Order),
			})
			if err != nil {
				logger.Error("stream_encode_failed", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}
