package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/liftviz/pkg/animation"
	"github.com/teslashibe/liftviz/pkg/hub"
	"github.com/teslashibe/liftviz/pkg/session"
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// errorHandler renders errors that escape a handler, such as unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, skeleton.ErrUnknownLift),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrUnknownJoint),
		errors.Is(err, animation.ErrUnknownParameter),
		errors.Is(err, animation.ErrUnknownProfile):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// parse decodes the JSON body into v. An empty body leaves v untouched.
func parse(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(v)
}

func (s *Server) session(c *fiber.Ctx) (*session.Session, error) {
	return s.sessions.Get(c.Params("id"))
}

// respond renders the session's current state and pushes it to stream
// subscribers.
func (s *Server) respond(c *fiber.Ctx, sess *session.Session) error {
	st, err := sess.Snapshot()
	if err != nil {
		return fail(c, err)
	}
	s.publish(sess, st)
	return c.JSON(st)
}

// withSession resolves :id and runs fn, then responds with the new state.
func (s *Server) withSession(fn func(c *fiber.Ctx, sess *session.Session) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.session(c)
		if err != nil {
			return fail(c, err)
		}
		if err := fn(c, sess); err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return badRequest(c, fe.Message)
			}
			return fail(c, err)
		}
		return s.respond(c, sess)
	}
}

func invalid(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

// handleHello is a liveness check.
func (s *Server) handleHello(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":  "liftviz is up",
		"sessions": s.sessions.Count(),
	})
}

// LiftInfo summarises a lift for the catalogue.
type LiftInfo struct {
	Lift        string   `json:"lift"`
	Description string   `json:"description,omitempty"`
	Root        string   `json:"root"`
	Joints      []string `json:"joints"`
	Accessories []string `json:"accessories"`
	DurationMs  int64    `json:"duration_ms"`
	Parameters  int      `json:"parameters"`
}

func (s *Server) liftInfo(lift string) (LiftInfo, *skeleton.Resolved, *animation.Profile, error) {
	resolved, err := s.sessions.Skeletons().Get(lift)
	if err != nil {
		return LiftInfo{}, nil, nil, err
	}
	profile := s.sessions.Profiles().Ensure(resolved.Lift)
	def := resolved.Definition()
	return LiftInfo{
		Lift:        resolved.Lift,
		Description: def.Description,
		Root:        resolved.Root,
		Joints:      resolved.Joints(),
		Accessories: resolved.Accessories(),
		DurationMs:  profile.Duration.Milliseconds(),
		Parameters:  len(profile.Parameters),
	}, resolved, profile, nil
}

// handleListLifts returns the lift catalogue.
func (s *Server) handleListLifts(c *fiber.Ctx) error {
	lifts := s.sessions.Skeletons().List()
	out := make([]LiftInfo, 0, len(lifts))
	for _, lift := range lifts {
		info, _, _, err := s.liftInfo(lift)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	return c.JSON(fiber.Map{"lifts": out, "default": skeleton.DefaultLift})
}

// handleGetLift returns a lift's definition, motion profile and setup
// parameter catalogue.
func (s *Server) handleGetLift(c *fiber.Ctx) error {
	info, resolved, profile, err := s.liftInfo(c.Params("lift"))
	if err != nil {
		return fail(c, err)
	}
	bounds, _ := resolved.SceneBounds()
	return c.JSON(fiber.Map{
		"lift":         info,
		"definition":   resolved.Definition(),
		"scene_bounds": bounds,
		"keyframes":    profile.Keyframes,
		"parameters":   profile.Parameters,
	})
}

// SimulateRequest is the body of POST /simulate/:lift.
type SimulateRequest struct {
	Parameters animation.Parameters `json:"parameters"`
	Samples    int                  `json:"samples"`
}

// handleSimulate samples a full cycle for charting.
func (s *Server) handleSimulate(c *fiber.Ctx) error {
	var req SimulateRequest
	if err := parse(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	series, err := session.Simulate(s.sessions.Skeletons(), s.sessions.Profiles(), c.Params("lift"), req.Parameters, req.Samples)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(series)
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Lift     string   `json:"lift"`
	Tempo    *float64 `json:"tempo,omitempty"`
	Autoplay *bool    `json:"autoplay,omitempty"`
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := parse(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	sess, err := s.sessions.Create(req.Lift)
	if err != nil {
		return fail(c, err)
	}
	if req.Tempo != nil {
		sess.SetTempo(*req.Tempo)
	}
	if req.Autoplay != nil {
		if *req.Autoplay {
			sess.Play()
		} else {
			sess.Pause()
		}
	}

	st, err := sess.Snapshot()
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

// SessionInfo is a session list entry.
type SessionInfo struct {
	ID       string  `json:"id"`
	Lift     string  `json:"lift"`
	Created  string  `json:"created"`
	Playing  bool    `json:"playing"`
	Progress float64 `json:"progress"`
	Tempo    float64 `json:"tempo"`
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	list := s.sessions.List()
	out := make([]SessionInfo, 0, len(list))
	for _, sess := range list {
		pb := sess.Playback()
		out = append(out, SessionInfo{
			ID:       sess.ID,
			Lift:     pb.Lift,
			Created:  sess.Created.UTC().Format("2006-01-02T15:04:05.000Z"),
			Playing:  pb.Playing,
			Progress: pb.Progress,
			Tempo:    pb.Tempo,
		})
	}
	return c.JSON(fiber.Map{"sessions": out, "count": len(out)})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return fail(c, err)
	}
	st, err := sess.Snapshot()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(st)
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.sessions.Remove(id); err != nil {
		return fail(c, err)
	}
	s.closeStream(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handlePlay(_ *fiber.Ctx, sess *session.Session) error {
	sess.Play()
	return nil
}

func (s *Server) handlePause(_ *fiber.Ctx, sess *session.Session) error {
	sess.Pause()
	return nil
}

func (s *Server) handleToggle(_ *fiber.Ctx, sess *session.Session) error {
	sess.Toggle()
	return nil
}

func (s *Server) handleTempo(c *fiber.Ctx, sess *session.Session) error {
	var req struct {
		Tempo *float64 `json:"tempo"`
	}
	if err := c.BodyParser(&req); err != nil || req.Tempo == nil {
		return invalid("body must be {\"tempo\": number}")
	}
	sess.SetTempo(*req.Tempo)
	return nil
}

func (s *Server) handleSeek(c *fiber.Ctx, sess *session.Session) error {
	var req struct {
		Progress *float64 `json:"progress"`
	}
	if err := c.BodyParser(&req); err != nil || req.Progress == nil {
		return invalid("body must be {\"progress\": number}")
	}
	sess.Seek(*req.Progress)
	return nil
}

func (s *Server) handleSetLift(c *fiber.Ctx, sess *session.Session) error {
	var req struct {
		Lift string `json:"lift"`
	}
	if err := c.BodyParser(&req); err != nil || req.Lift == "" {
		return invalid("body must be {\"lift\": string}")
	}
	return sess.SetLift(req.Lift)
}

func (s *Server) handleSetOffset(c *fiber.Ctx, sess *session.Session) error {
	var req struct {
		Degrees *float64 `json:"degrees"`
	}
	if err := c.BodyParser(&req); err != nil || req.Degrees == nil {
		return invalid("body must be {\"degrees\": number}")
	}
	_, err := sess.SetJointOffset(c.Params("joint"), *req.Degrees)
	return err
}

type pointBody struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (p pointBody) point() (skeleton.Point, bool) {
	if p.X == nil || p.Y == nil {
		return skeleton.Point{}, false
	}
	return skeleton.Point{X: *p.X, Y: *p.Y}, true
}

func (s *Server) handlePin(c *fiber.Ctx, sess *session.Session) error {
	var req pointBody
	if err := c.BodyParser(&req); err != nil {
		return invalid(err.Error())
	}
	p, ok := req.point()
	if !ok {
		return invalid("body must be {\"x\": number, \"y\": number}")
	}
	return sess.PinJoint(c.Params("joint"), p)
}

func (s *Server) handleUnpin(c *fiber.Ctx, sess *session.Session) error {
	sess.UnpinJoint(c.Params("joint"))
	return nil
}

func (s *Server) handleBarOffset(c *fiber.Ctx, sess *session.Session) error {
	var req pointBody
	if err := c.BodyParser(&req); err != nil {
		return invalid(err.Error())
	}
	p, ok := req.point()
	if !ok {
		return invalid("body must be {\"x\": number, \"y\": number}")
	}
	sess.SetBarOffset(p)
	return nil
}

func (s *Server) handleSetParameter(c *fiber.Ctx, sess *session.Session) error {
	var req struct {
		Value *float64 `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil || req.Value == nil {
		return invalid("body must be {\"value\": number}")
	}
	_, err := sess.SetParameter(c.Params("key"), *req.Value)
	return err
}

func (s *Server) handleReset(_ *fiber.Ctx, sess *session.Session) error {
	sess.Reset()
	return nil
}

func (s *Server) handleResetManual(_ *fiber.Ctx, sess *session.Session) error {
	sess.ResetManual()
	return nil
}

func (s *Server) handleResetParameters(_ *fiber.Ctx, sess *session.Session) error {
	sess.ResetParameters()
	return nil
}

// handleStreamWS subscribes a websocket to a session's state stream. The
// current state is sent first; while the session plays every tick follows.
func (s *Server) handleStreamWS(c *websocket.Conn) {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		msg, encErr := hub.Encode(hub.KindClosed, c.Params("id"), 0, fiber.Map{"error": err.Error()})
		if encErr == nil {
			c.WriteMessage(websocket.TextMessage, msg.Data)
		}
		return
	}

	h := s.streamFor(sess)

	var initial []hub.Message
	if st, err := sess.Snapshot(); err == nil {
		if msg, err := h.Encode(hub.KindState, st); err == nil {
			initial = append(initial, msg)
		}
	}
	client := hub.NewClient(h, c, initial...)
	if client == nil {
		return
	}
	client.Run()
}
