// Package metrics provides Prometheus metrics for the blink players.
// Metrics are fed from the event bus so the players themselves stay
// free of instrumentation.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cjnaz/blinkd/internal/events"
)

var (
	commandsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blinkd",
		Subsystem: "player",
		Name:      "commands_accepted_total",
		Help:      "Commands accepted for playback",
	}, []string{"led", "modifier"})

	commandsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blinkd",
		Subsystem: "player",
		Name:      "commands_rejected_total",
		Help:      "Commands discarded with a recoverable error",
	}, []string{"led", "reason"})

	patternsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blinkd",
		Subsystem: "player",
		Name:      "patterns_started_total",
		Help:      "Pattern playbacks started",
	}, []string{"led"})

	playersRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "blinkd",
		Subsystem: "player",
		Name:      "running",
		Help:      "Player goroutines currently running",
	})

	// Local cache for the stats endpoint.
	ledCache   = make(map[string]*LEDMetrics)
	ledCacheMu sync.RWMutex
)

// LEDMetrics holds current counter values for one LED.
type LEDMetrics struct {
	CommandsAccepted float64
	CommandsRejected float64
	PatternsStarted  float64
}

// Bind subscribes the metric updates to the event bus. Returns an
// unsubscribe function that detaches all of them.
func Bind(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.CommandAcceptedEvent) {
			modifier := e.Modifier
			if modifier == "" {
				modifier = "none"
			}
			commandsAccepted.WithLabelValues(e.LED, modifier).Inc()
			updateCache(e.LED, func(m *LEDMetrics) { m.CommandsAccepted++ })
		}),
		bus.Subscribe(func(e events.CommandRejectedEvent) {
			commandsRejected.WithLabelValues(e.LED, e.Reason).Inc()
			updateCache(e.LED, func(m *LEDMetrics) { m.CommandsRejected++ })
		}),
		bus.Subscribe(func(e events.PatternStartedEvent) {
			patternsStarted.WithLabelValues(e.LED).Inc()
			updateCache(e.LED, func(m *LEDMetrics) { m.PatternsStarted++ })
		}),
		bus.Subscribe(func(e events.PlayerStartedEvent) {
			playersRunning.Inc()
		}),
		bus.Subscribe(func(e events.PlayerExitedEvent) {
			playersRunning.Dec()
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Delete removes all metrics for an LED, for retired LEDs.
func Delete(led string) {
	commandsAccepted.DeletePartialMatch(prometheus.Labels{"led": led})
	commandsRejected.DeletePartialMatch(prometheus.Labels{"led": led})
	patternsStarted.DeleteLabelValues(led)

	ledCacheMu.Lock()
	delete(ledCache, led)
	ledCacheMu.Unlock()
}

// Get returns current counter values for one LED, or nil if unseen.
func Get(led string) *LEDMetrics {
	ledCacheMu.RLock()
	defer ledCacheMu.RUnlock()
	if m, ok := ledCache[led]; ok {
		dup := *m
		return &dup
	}
	return nil
}

// GetAll returns counter values for every LED seen so far.
func GetAll() map[string]*LEDMetrics {
	ledCacheMu.RLock()
	defer ledCacheMu.RUnlock()
	result := make(map[string]*LEDMetrics, len(ledCache))
	for led, m := range ledCache {
		dup := *m
		result[led] = &dup
	}
	return result
}

func updateCache(led string, update func(*LEDMetrics)) {
	ledCacheMu.Lock()
	defer ledCacheMu.Unlock()
	m, ok := ledCache[led]
	if !ok {
		m = &LEDMetrics{}
		ledCache[led] = m
	}
	update(m)
}
