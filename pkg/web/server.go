// Package web serves the liftviz HTTP API: lift catalogue, session control,
// cycle simulation, websocket state streams and prometheus metrics.
package web

import (
	"errors"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/liftviz/internal/log"
	"github.com/teslashibe/liftviz/pkg/control"
	"github.com/teslashibe/liftviz/pkg/hub"
	"github.com/teslashibe/liftviz/pkg/metrics"
	"github.com/teslashibe/liftviz/pkg/session"
)

// Server is the liftviz API server
type Server struct {
	app      *fiber.App
	port     string
	sessions *session.Manager
	control  *control.Hub
	logger   *slog.Logger

	// One stream hub per session with subscribers.
	streamsMu sync.Mutex
	streams   map[string]*hub.Hub
}

// NewServer creates the API server over a session manager.
func NewServer(port string, sessions *session.Manager) *Server {
	s := &Server{
		port:     port,
		sessions: sessions,
		logger:   log.With("component", "web"),
		streams:  make(map[string]*hub.Hub),
	}
	s.control = control.NewHub(sessions, s.publishCurrent)

	app := fiber.New(fiber.Config{
		AppName:               "liftviz",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestMetrics)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	api.Get("/hello", s.handleHello)
	api.Get("/lifts", s.handleListLifts)
	api.Get("/lifts/:lift", s.handleGetLift)
	api.Post("/simulate/:lift", s.handleSimulate)

	sess := api.Group("/sessions")
	sess.Post("/", s.handleCreateSession)
	sess.Get("/", s.handleListSessions)
	sess.Get("/:id", s.handleGetSession)
	sess.Delete("/:id", s.handleDeleteSession)
	sess.Post("/:id/play", s.withSession(s.handlePlay))
	sess.Post("/:id/pause", s.withSession(s.handlePause))
	sess.Post("/:id/toggle", s.withSession(s.handleToggle))
	sess.Post("/:id/tempo", s.withSession(s.handleTempo))
	sess.Post("/:id/seek", s.withSession(s.handleSeek))
	sess.Post("/:id/lift", s.withSession(s.handleSetLift))
	sess.Put("/:id/offsets/:joint", s.withSession(s.handleSetOffset))
	sess.Put("/:id/pins/:joint", s.withSession(s.handlePin))
	sess.Delete("/:id/pins/:joint", s.withSession(s.handleUnpin))
	sess.Put("/:id/bar-offset", s.withSession(s.handleBarOffset))
	sess.Put("/:id/parameters/:key", s.withSession(s.handleSetParameter))
	sess.Post("/:id/reset", s.withSession(s.handleReset))
	sess.Post("/:id/reset/manual", s.withSession(s.handleResetManual))
	sess.Post("/:id/reset/parameters", s.withSession(s.handleResetParameters))

	s.control.RegisterAPIRoutes(api)

	app.Use("/ws/sessions", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sessions/:id", websocket.New(s.handleStreamWS))
	s.control.RegisterRoutes(app)

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start listens on the configured port. It blocks until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Serve accepts connections on ln. It blocks until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("server stopped", "error", err)
		}
	}()
}

// Shutdown ends every stream and stops the server.
func (s *Server) Shutdown() error {
	s.streamsMu.Lock()
	streams := s.streams
	s.streams = make(map[string]*hub.Hub)
	s.streamsMu.Unlock()

	for _, h := range streams {
		h.Stop()
	}
	return s.app.Shutdown()
}

// streamFor returns the running hub for sess, creating it and hooking the
// session's update callback on first use.
func (s *Server) streamFor(sess *session.Session) *hub.Hub {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()

	if h, ok := s.streams[sess.ID]; ok {
		return h
	}

	h := hub.New(sess.ID)
	go h.Run()
	sess.OnUpdate(func(st session.State) {
		if err := h.Publish(hub.KindState, st); err != nil {
			s.logger.Warn("failed to publish state", "session", sess.ID, "error", err)
		}
	})
	s.streams[sess.ID] = h
	return h
}

// publish pushes the current state of sess to its subscribers, if any.
// Paused sessions only stream through this path.
func (s *Server) publish(sess *session.Session, st session.State) {
	s.streamsMu.Lock()
	h, ok := s.streams[sess.ID]
	s.streamsMu.Unlock()
	if ok {
		h.Publish(hub.KindState, st)
	}
}

// publishCurrent snapshots sess and publishes it. Control commands use it.
func (s *Server) publishCurrent(sess *session.Session) {
	s.streamsMu.Lock()
	_, ok := s.streams[sess.ID]
	s.streamsMu.Unlock()
	if !ok {
		return
	}

	st, err := sess.Snapshot()
	if err != nil {
		s.logger.Warn("failed to snapshot session", "session", sess.ID, "error", err)
		return
	}
	s.publish(sess, st)
}

func (s *Server) closeStream(id string) {
	s.streamsMu.Lock()
	h, ok := s.streams[id]
	delete(s.streams, id)
	s.streamsMu.Unlock()
	if !ok {
		return
	}

	if msg, err := h.Encode(hub.KindClosed, nil); err == nil {
		h.Broadcast(msg)
	}
	h.Stop()
}

// StreamCount returns the number of sessions with an active stream hub.
func (s *Server) StreamCount() int {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()
	return len(s.streams)
}

func requestMetrics(c *fiber.Ctx) error {
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}
	metrics.RequestCount.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).Inc()
	return err
}
