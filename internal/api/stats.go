package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cjnaz/blinkd/internal/api/models"
	"github.com/cjnaz/blinkd/internal/metrics"
)

// registerStatsRoutes registers the per-LED counter endpoint. The same
// counters are exported in Prometheus form on /metrics.
func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/api/stats",
		Summary:     "Stats",
		Description: "Per-LED command and playback counters since startup",
		Tags:        []string{"stats"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.StatsResponse, error) {
		all := metrics.GetAll()
		out := make(map[string]models.LEDStatsData, len(all))
		for led, m := range all {
			out[led] = models.LEDStatsData{
				CommandsAccepted: m.CommandsAccepted,
				CommandsRejected: m.CommandsRejected,
				PatternsStarted:  m.PatternsStarted,
			}
		}
		return &models.StatsResponse{Body: models.StatsData{LEDs: out}}, nil
	})
}
