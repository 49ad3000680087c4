package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cjnaz/blinkd/internal/api/models"
	"github.com/cjnaz/blinkd/internal/blink"
	"github.com/cjnaz/blinkd/internal/leds"
	"github.com/cjnaz/blinkd/internal/metrics"
)

// retireTimeout bounds how long a delete or reconfigure waits for the
// player's current bit holds to finish.
const retireTimeout = 30 * time.Second

// mapLEDError converts domain errors to appropriate HTTP responses.
func mapLEDError(err error) error {
	switch {
	case errors.Is(err, leds.ErrNotFound), errors.Is(err, blink.ErrUnknownLED):
		return huma.Error404NotFound("LED not found", err)
	case errors.Is(err, leds.ErrExists), errors.Is(err, blink.ErrLEDExists):
		return huma.Error409Conflict("LED already exists", err)
	case errors.Is(err, blink.ErrLEDExited):
		return huma.Error409Conflict("LED player has exited", err)
	case errors.Is(err, leds.ErrInvalidSpec):
		return huma.Error400BadRequest("Invalid LED spec", err)
	default:
		return huma.Error500InternalServerError("Internal error", err)
	}
}

func commandToModel(cmd *blink.Command) *models.CommandData {
	if cmd == nil {
		return nil
	}
	return &models.CommandData{
		PeriodMs: cmd.PeriodMs,
		Pattern:  cmd.Pattern,
		Repeat:   cmd.Repeat,
		Modifier: string(cmd.Modifier),
	}
}

// ledData merges the persisted spec with the live player snapshot. For a
// disabled LED there is no player and the runtime fields stay zero.
func (s *Server) ledData(spec leds.Spec) models.LEDData {
	data := models.LEDData{
		Name:        spec.Name,
		Pin:         spec.Pin,
		ActiveLow:   spec.ActiveLow,
		Enabled:     spec.Enabled,
		Description: spec.Description,
		CreatedAt:   spec.CreatedAt,
		UpdatedAt:   spec.UpdatedAt,
	}
	if st, err := s.supervisor.Status(spec.Name); err == nil {
		data.State = string(st.State)
		data.Current = commandToModel(st.Current)
		data.Saved = st.Saved
		data.Pending = st.Pending
	}
	return data
}

// desiredLEDs builds the supervisor's target set from the store's enabled
// specs, for reconciliation after a spec change.
func (s *Server) desiredLEDs() map[string]blink.LED {
	desired := make(map[string]blink.LED)
	for name, spec := range s.store.Enabled() {
		desired[name] = blink.LED{Name: name, Pin: spec.Pin, ActiveLow: spec.ActiveLow}
	}
	return desired
}

func (s *Server) registerLEDRoutes() {
	// List LEDs
	huma.Register(s.api, huma.Operation{
		OperationID: "list-leds",
		Method:      http.MethodGet,
		Path:        "/api/leds",
		Summary:     "List LEDs",
		Description: "List all configured LEDs with their live player state",
		Tags:        []string{"leds"},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.LEDListResponse, error) {
		all := s.store.All()
		items := make([]models.LEDData, 0, len(all))
		for _, spec := range all {
			items = append(items, s.ledData(spec))
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

		return &models.LEDListResponse{
			Body: models.LEDListData{LEDs: items, Count: len(items)},
		}, nil
	})

	// Get one LED
	huma.Register(s.api, huma.Operation{
		OperationID: "get-led",
		Method:      http.MethodGet,
		Path:        "/api/leds/{name}",
		Summary:     "Get LED",
		Description: "Get one LED's definition and live player state",
		Tags:        []string{"leds"},
		Security:    withAuth(),
		Errors:      []int{404},
	}, func(ctx context.Context, input *struct {
		Name string `path:"name" doc:"LED name"`
	}) (*models.LEDResponse, error) {
		spec, ok := s.store.Get(input.Name)
		if !ok {
			return nil, mapLEDError(leds.ErrNotFound)
		}
		return &models.LEDResponse{Body: s.ledData(spec)}, nil
	})

	// Create LED
	huma.Register(s.api, huma.Operation{
		OperationID:   "create-led",
		Method:        http.MethodPost,
		Path:          "/api/leds",
		Summary:       "Create LED",
		Description:   "Define a new LED and start a player for it",
		Tags:          []string{"leds"},
		Security:      withAuth(),
		DefaultStatus: http.StatusCreated,
		Errors:        []int{400, 409},
	}, func(ctx context.Context, input *models.CreateLEDRequest) (*models.LEDResponse, error) {
		spec := leds.Spec{
			Name:        input.Body.Name,
			Pin:         input.Body.Pin,
			ActiveLow:   input.Body.ActiveLow,
			Description: input.Body.Description,
		}

		if err := s.store.Add(spec); err != nil {
			return nil, mapLEDError(err)
		}
		if err := s.store.Save(); err != nil {
			return nil, mapLEDError(err)
		}

		// New LEDs are enabled by the store, so a player starts now.
		if err := s.supervisor.Add(blink.LED{Name: spec.Name, Pin: spec.Pin, ActiveLow: spec.ActiveLow}); err != nil {
			if remErr := s.store.Remove(spec.Name); remErr == nil {
				_ = s.store.Save()
			}
			return nil, mapLEDError(err)
		}

		created, _ := s.store.Get(spec.Name)
		s.logger.Info("LED created", "led", spec.Name, "pin", spec.Pin)
		return &models.LEDResponse{Body: s.ledData(created)}, nil
	})

	// Update LED
	huma.Register(s.api, huma.Operation{
		OperationID: "update-led",
		Method:      http.MethodPatch,
		Path:        "/api/leds/{name}",
		Summary:     "Update LED",
		Description: "Change an LED's definition; the player is restarted if its wiring changed",
		Tags:        []string{"leds"},
		Security:    withAuth(),
		Errors:      []int{400, 404},
	}, func(ctx context.Context, input *models.UpdateLEDRequest) (*models.LEDResponse, error) {
		updates := leds.Spec{
			Name:        input.Name,
			Pin:         input.Body.Pin,
			ActiveLow:   input.Body.ActiveLow,
			Enabled:     input.Body.Enabled,
			Description: input.Body.Description,
		}

		if err := s.store.Update(input.Name, updates); err != nil {
			return nil, mapLEDError(err)
		}
		if err := leds.ValidateSet(s.store.All()); err != nil {
			return nil, mapLEDError(err)
		}
		if err := s.store.Save(); err != nil {
			return nil, mapLEDError(err)
		}

		rctx, cancel := context.WithTimeout(ctx, retireTimeout)
		defer cancel()
		s.supervisor.Reconcile(rctx, s.desiredLEDs())

		spec, _ := s.store.Get(input.Name)
		s.logger.Info("LED updated", "led", input.Name)
		return &models.LEDResponse{Body: s.ledData(spec)}, nil
	})

	// Delete LED
	huma.Register(s.api, huma.Operation{
		OperationID: "delete-led",
		Method:      http.MethodDelete,
		Path:        "/api/leds/{name}",
		Summary:     "Delete LED",
		Description: "Retire the LED's player, settle its pin low, and remove the definition",
		Tags:        []string{"leds"},
		Security:    withAuth(),
		Errors:      []int{404},
	}, func(ctx context.Context, input *struct {
		Name string `path:"name" doc:"LED name"`
	}) (*models.MessageResponse, error) {
		if err := s.store.Remove(input.Name); err != nil {
			return nil, mapLEDError(err)
		}
		if err := s.store.Save(); err != nil {
			return nil, mapLEDError(err)
		}

		rctx, cancel := context.WithTimeout(ctx, retireTimeout)
		defer cancel()
		if err := s.supervisor.Retire(rctx, input.Name, blink.Exit(false)); err != nil && !errors.Is(err, blink.ErrUnknownLED) {
			return nil, mapLEDError(err)
		}
		metrics.Delete(input.Name)

		s.logger.Info("LED deleted", "led", input.Name)
		return &models.MessageResponse{
			Body: models.MessageData{Message: "LED deleted"},
		}, nil
	})

	// Push command
	huma.Register(s.api, huma.Operation{
		OperationID:   "push-command",
		Method:        http.MethodPost,
		Path:          "/api/leds/{name}/commands",
		Summary:       "Push command",
		Description:   "Queue a blink command for the LED. The command is validated by the player when dequeued; a malformed command is discarded there and reported on the event stream.",
		Tags:          []string{"leds"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 404, 409},
	}, func(ctx context.Context, input *models.CommandRequest) (*models.CommandAcceptedResponse, error) {
		cmd := blink.Command{
			PeriodMs: input.Body.PeriodMs,
			Pattern:  input.Body.Pattern,
			Repeat:   input.Body.Repeat,
			Modifier: blink.Modifier(input.Body.Modifier),
		}

		// Reject syntactically bad commands up front. The playback fields
		// of a restore command are dummies, so those skip the check. The
		// player still validates everything when it dequeues.
		if cmd.Modifier != blink.ModifierRestore {
			if _, err := cmd.Bits(); err != nil {
				return nil, huma.Error400BadRequest("Malformed command", err)
			}
		}

		if err := s.supervisor.Push(input.Name, cmd); err != nil {
			return nil, mapLEDError(err)
		}

		st, _ := s.supervisor.Status(input.Name)
		return &models.CommandAcceptedResponse{
			Status: http.StatusAccepted,
			Body:   models.CommandAcceptedData{LED: input.Name, Pending: st.Pending},
		}, nil
	})
}
