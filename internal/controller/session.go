package controller

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/philipparndt/gobim/internal/camera"
	"github.com/philipparndt/gobim/internal/measurement"
	"github.com/philipparndt/gobim/internal/scene"
)

// Session wires the scene, the camera and the measurement set to a
// controller that only comes into existence with the first loaded model.
// Until then every event except ModelLoaded and SceneLoaded is dropped.
type Session struct {
	mu           sync.Mutex
	scene        *scene.Scene
	framer       camera.Framer
	opts         []Option
	logger       *slog.Logger
	ctrl         *Controller
	measurements *measurement.Set
	onReady      []func(*Controller)
}

// NewSession creates a session over sc. opts are passed to the controller
// once it is created.
func NewSession(sc *scene.Scene, framer camera.Framer, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		scene:        sc,
		framer:       framer,
		opts:         append([]Option{WithLogger(logger)}, opts...),
		logger:       logger,
		measurements: measurement.NewSet(),
	}
}

// Scene returns the underlying scene
func (s *Session) Scene() *scene.Scene {
	return s.scene
}

// Measurements returns the session's measurement set
func (s *Session) Measurements() *measurement.Set {
	return s.measurements
}

// Controller returns the controller, or nil before the first model loaded.
// Calling methods on the nil result is safe.
func (s *Session) Controller() *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}

// Ready reports whether a model has been loaded
func (s *Session) Ready() bool {
	return s.Controller() != nil
}

// OnReady registers fn to run once the controller exists. If it already
// exists fn runs immediately.
func (s *Session) OnReady(fn func(*Controller)) {
	s.mu.Lock()
	ctrl := s.ctrl
	if ctrl == nil {
		s.onReady = append(s.onReady, fn)
	}
	s.mu.Unlock()

	if ctrl != nil {
		fn(ctrl)
	}
}

// Handle adapts an inbound event to controller calls. Errors are returned
// only for rejected models, invalid measurements and the ErrEmptySubtree
// signal; none of them leave the state inconsistent.
func (s *Session) Handle(ev Event) error {
	switch e := ev.(type) {
	case ModelLoaded:
		return s.load(e.Model)
	case SceneLoaded:
		return s.loadAll(e.Models)
	}

	ctrl := s.Controller()
	if ctrl == nil {
		s.logger.Debug("event dropped", "event", fmt.Sprintf("%T", ev), "err", ErrNotReady)
		return nil
	}

	switch e := ev.(type) {
	case ModelUnloaded:
		removed, ok := s.scene.Unload(e.ModelID)
		if !ok {
			return nil
		}
		s.logger.Info("model unloaded", "model", e.ModelID, "objects", len(removed))
		ctrl.Sync(nil, removed)
	case NodeClicked:
		return ctrl.IsolateSubtree(e.NodeID)
	case Picked:
		ctrl.PickAndHighlight(e.ObjectID)
	case HighlightRequested:
		ctrl.SetHighlighted(e.ObjectID, e.On)
	case XrayToggled:
		ctrl.ToggleXray(e.ObjectID)
	case ResetRequested:
		ctrl.ResetAll()
		if ctrl.Policy().ResetClearsMeasurements {
			s.measurements.Clear()
		}
	case MeasurementCreated:
		ref, err := measurement.ResolveRef(e.Payload)
		if err != nil {
			return err
		}
		m, err := measurement.New(ref, e.Points)
		if err != nil {
			return err
		}
		return s.measurements.Add(m)
	case MeasurementDeleted:
		ref, err := measurement.ResolveRef(e.Payload)
		if err != nil {
			return err
		}
		s.measurements.Remove(ref)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
	return nil
}

func (s *Session) load(spec *scene.ModelSpec) error {
	if spec == nil {
		return fmt.Errorf("load model: %w", scene.ErrInvalidModel)
	}

	// A model that is loaded again replaces the old registration
	added, removed, err := s.scene.Replace(spec)
	if err != nil {
		return fmt.Errorf("load model %q: %w", spec.ID, err)
	}
	s.logger.Info("model loaded", "model", spec.ID, "objects", len(added))
	s.apply(added, removed)
	return nil
}

func (s *Session) loadAll(specs []*scene.ModelSpec) error {
	added, removed, err := s.scene.ReplaceAll(specs)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	s.logger.Info("scene loaded", "models", len(specs), "objects", len(added))
	if len(specs) == 0 && s.Controller() == nil {
		return nil
	}
	s.apply(added, removed)
	return nil
}

// apply creates the controller on the first load and syncs it with the
// registry change.
func (s *Session) apply(added, removed []string) {
	s.mu.Lock()
	first := s.ctrl == nil
	if first {
		s.ctrl = New(s.scene, s.framer, s.opts...)
	}
	ctrl := s.ctrl
	pending := s.onReady
	s.onReady = nil
	s.mu.Unlock()

	if first {
		if s.framer != nil {
			if box := s.scene.SceneBounds(); !box.IsEmpty() {
				s.framer.Frame(box)
			}
		}
		for _, fn := range pending {
			fn(ctrl)
		}
	}
	ctrl.Sync(added, removed)
}
