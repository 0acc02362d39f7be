package devserver

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/drillrun/runwiz/internal/logger"
	rr "github.com/drillrun/runwiz/internal/runrecord"
)

var log = logger.Named("devserver")

// Server serves a Store over HTTP under /api.
type Server struct {
	store *Store
	app   *fiber.App
}

// New builds the fiber app for store.
func New(store *Store) *Server {
	// Handlers hand request strings to the store, which keeps them.
	s := &Server{store: store, app: fiber.New(fiber.Config{Immutable: true})}
	s.app.Use(recover.New())
	s.app.Use(func(c fiber.Ctx) error {
		err := c.Next()
		log.Debug("%s %s -> %d", c.Method(), c.OriginalURL(), c.Response().StatusCode())
		return err
	})
	s.routes()
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Store returns the backing store.
func (s *Server) Store() *Store { return s.store }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	log.Info("listening on %s", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	// ── Options ───────────────────────────────────────────────────────
	api.Get("/options/:tier", func(c fiber.Ctx) error {
		opts, err := s.store.Options(c.Params("tier"), c.Query("parent"))
		if errors.Is(err, ErrUnknownTier) {
			return c.Status(404).JSON(fiber.Map{"error": "unknown tier"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(opts)
	})

	api.Get("/unique/:field", func(c fiber.Ctx) error {
		if c.Params("field") != rr.FieldRunNumber {
			return c.Status(404).JSON(fiber.Map{"error": "field is not checked for uniqueness"})
		}
		return c.JSON(fiber.Map{"exists": s.store.Exists(c.Query("value"))})
	})

	// ── Runs ──────────────────────────────────────────────────────────
	api.Post("/runs", func(c fiber.Ctx) error {
		var p rr.Payload
		if err := c.Bind().JSON(&p); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		run, created, err := s.store.AddRun(c.Get("Idempotency-Key"), p)
		if errors.Is(err, ErrDuplicate) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		if errors.Is(err, ErrNoRunNumber) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !created {
			log.Debug("replayed run %s for key %s", run.ID, run.Key)
			return c.JSON(run)
		}
		log.Info("accepted run %s (%s)", run.RunNumber, run.ID)
		return c.Status(201).JSON(run)
	})

	api.Get("/runs", func(c fiber.Ctx) error {
		return c.JSON(s.store.Runs())
	})

	// ── Master data ───────────────────────────────────────────────────
	api.Get("/master/:kind", func(c fiber.Ctx) error {
		recs, err := s.store.List(c.Params("kind"))
		if errors.Is(err, ErrUnknownTier) {
			return c.Status(404).JSON(fiber.Map{"error": "unknown kind"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(recs)
	})

	api.Post("/master/:kind", func(c fiber.Ctx) error {
		var r Record
		if err := c.Bind().JSON(&r); err != nil || r.Label == "" {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		created, err := s.store.Create(c.Params("kind"), r)
		if errors.Is(err, ErrUnknownTier) {
			return c.Status(404).JSON(fiber.Map{"error": "unknown kind"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(created)
	})

	api.Delete("/master/:kind/:id", func(c fiber.Ctx) error {
		err := s.store.Delete(c.Params("kind"), c.Params("id"))
		if errors.Is(err, ErrUnknownTier) {
			return c.Status(404).JSON(fiber.Map{"error": "unknown kind"})
		}
		if errors.Is(err, ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "record not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
}
