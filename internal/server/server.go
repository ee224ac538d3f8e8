// Package server exposes a Session over HTTP so external tools can drive
// isolation, highlight and x-ray without the desktop panel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/philipparndt/gobim/internal/controller"
	"github.com/philipparndt/gobim/internal/measurement"
	"github.com/philipparndt/gobim/internal/views"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// Server serves the control API of one Session
type Server struct {
	app     *fiber.App
	session *controller.Session
	views   *views.Store
	logger  *slog.Logger
}

// New builds the fiber app. store may be nil, which disables the /views routes.
func New(session *controller.Session, store *views.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		app:     fiber.New(fiber.Config{AppName: "gobim", Immutable: true}),
		session: session,
		views:   store,
		logger:  logger,
	}

	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)

	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	s.app.Get("/health/ready", s.ready)

	s.app.Get("/mode", s.mode)
	s.app.Get("/objects/:id", s.object)

	s.app.Post("/isolate/:node", s.isolate)
	s.app.Post("/reset", s.reset)
	s.app.Post("/highlight/:id", s.highlight)
	s.app.Post("/pick", s.pick)
	s.app.Post("/xray/:id", s.xray)

	s.app.Get("/measurements", s.listMeasurements)
	s.app.Post("/measurements", s.createMeasurement)
	s.app.Delete("/measurements", s.deleteMeasurement)

	if store != nil {
		s.app.Get("/views", s.listViews)
		s.app.Post("/views/:name", s.saveView)
		s.app.Post("/views/:name/restore", s.restoreView)
		s.app.Delete("/views/:name", s.deleteView)
	}

	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start),
	)
	return err
}

func notReady(c fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": controller.ErrNotReady.Error(),
	})
}

func badRequest(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) ready(c fiber.Ctx) error {
	if !s.session.Ready() {
		return notReady(c)
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (s *Server) mode(c fiber.Ctx) error {
	ctrl := s.session.Controller()
	if ctrl == nil {
		return notReady(c)
	}
	return c.JSON(fiber.Map{
		"mode":      ctrl.Mode(),
		"selection": ctrl.Selection(),
	})
}

func (s *Server) object(c fiber.Ctx) error {
	ctrl := s.session.Controller()
	if ctrl == nil {
		return notReady(c)
	}
	id := c.Params("id")
	state, ok := ctrl.State(id)
	if !ok {
		return c.JSON(fiber.Map{"id": id, "known": false})
	}
	return c.JSON(fiber.Map{"id": id, "known": true, "state": state})
}

// applied answers an operation with the resulting mode. Operations on a
// session that is not ready are dropped, not rejected. Only queries answer
// 503 before the first model loaded.
func (s *Server) applied(c fiber.Ctx) error {
	ctrl := s.session.Controller()
	return c.JSON(fiber.Map{
		"ready":     ctrl != nil,
		"mode":      ctrl.Mode(),
		"selection": ctrl.Selection(),
	})
}

func (s *Server) isolate(c fiber.Ctx) error {
	err := s.session.Handle(controller.NodeClicked{NodeID: c.Params("node")})
	if err != nil && !errors.Is(err, controller.ErrEmptySubtree) {
		return err
	}
	return s.applied(c)
}

func (s *Server) reset(c fiber.Ctx) error {
	if err := s.session.Handle(controller.ResetRequested{}); err != nil {
		return err
	}
	return s.applied(c)
}

type highlightRequest struct {
	On bool `json:"on"`
}

func (s *Server) highlight(c fiber.Ctx) error {
	req := highlightRequest{On: true}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest(c, err)
		}
	}
	err := s.session.Handle(controller.HighlightRequested{ObjectID: c.Params("id"), On: req.On})
	if err != nil {
		return err
	}
	return s.applied(c)
}

type pickRequest struct {
	ID string `json:"id"`
}

func (s *Server) pick(c fiber.Ctx) error {
	var req pickRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest(c, err)
		}
	}
	if err := s.session.Handle(controller.Picked{ObjectID: req.ID}); err != nil {
		return err
	}
	return s.applied(c)
}

func (s *Server) xray(c fiber.Ctx) error {
	if err := s.session.Handle(controller.XrayToggled{ObjectID: c.Params("id")}); err != nil {
		return err
	}
	return s.applied(c)
}

type measurementRequest struct {
	measurement.Payload
	Points [][3]float64 `json:"points"`
}

type measurementResponse struct {
	Kind  string  `json:"kind"`
	ID    string  `json:"id"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

func (s *Server) listMeasurements(c fiber.Ctx) error {
	if !s.session.Ready() {
		return notReady(c)
	}
	list := s.session.Measurements().List()
	out := make([]measurementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, measurementResponse{
			Kind:  m.Ref.Kind.String(),
			ID:    m.Ref.ID,
			Value: m.Value,
			Label: m.Label(),
		})
	}
	return c.JSON(out)
}

func (s *Server) createMeasurement(c fiber.Ctx) error {
	var req measurementRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, err)
	}
	points := make([]geometry.Vector3, 0, len(req.Points))
	for _, p := range req.Points {
		points = append(points, geometry.NewVector3(p[0], p[1], p[2]))
	}
	if !s.session.Ready() {
		return s.applied(c)
	}
	if err := s.session.Handle(controller.MeasurementCreated{Payload: req.Payload, Points: points}); err != nil {
		return badRequest(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"count": s.session.Measurements().Len()})
}

func (s *Server) deleteMeasurement(c fiber.Ctx) error {
	var payload measurement.Payload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return badRequest(c, err)
	}
	if !s.session.Ready() {
		return s.applied(c)
	}
	if err := s.session.Handle(controller.MeasurementDeleted{Payload: payload}); err != nil {
		return badRequest(c, err)
	}
	return c.JSON(fiber.Map{"count": s.session.Measurements().Len()})
}

func (s *Server) listViews(c fiber.Ctx) error {
	list, err := s.views.List(c.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []views.View{}
	}
	return c.JSON(list)
}

func (s *Server) saveView(c fiber.Ctx) error {
	ctrl := s.session.Controller()
	if ctrl == nil {
		return s.applied(c)
	}
	v, err := s.views.Save(c.Context(), c.Params("name"), ctrl.Snapshot())
	if err != nil {
		return badRequest(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(v)
}

func (s *Server) restoreView(c fiber.Ctx) error {
	ctrl := s.session.Controller()
	if ctrl == nil {
		return s.applied(c)
	}
	v, err := s.views.Get(c.Context(), c.Params("name"))
	if errors.Is(err, views.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return err
	}
	ctrl.Restore(v.Snapshot)
	return s.applied(c)
}

func (s *Server) deleteView(c fiber.Ctx) error {
	err := s.views.Delete(c.Context(), c.Params("name"))
	if errors.Is(err, views.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
