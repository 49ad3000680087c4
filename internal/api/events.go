package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/cjnaz/blinkd/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of player lifecycle, command acceptance, and command rejection events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"command-accepted": events.CommandAcceptedEvent{},
		"command-rejected": events.CommandRejectedEvent{},
		"pattern-started":  events.PatternStartedEvent{},
		"player-started":   events.PlayerStartedEvent{},
		"player-exited":    events.PlayerExitedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Per-connection channel; slow clients drop events rather than
		// stalling the players that publish them
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.CommandAcceptedEvent](s.bus, eventCh),
			events.SubscribeToChannel[events.CommandRejectedEvent](s.bus, eventCh),
			events.SubscribeToChannel[events.PatternStartedEvent](s.bus, eventCh),
			events.SubscribeToChannel[events.PlayerStartedEvent](s.bus, eventCh),
			events.SubscribeToChannel[events.PlayerExitedEvent](s.bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Initial event confirms the connection is live
		if err := send.Data(events.PlayerStartedEvent{
			LED:       "system",
			Pin:       -1,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
