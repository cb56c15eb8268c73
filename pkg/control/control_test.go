package control

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/liftviz/pkg/animation"
	"github.com/teslashibe/liftviz/pkg/protocol"
	"github.com/teslashibe/liftviz/pkg/session"
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	skeletons, err := skeleton.NewBuiltInRegistry()
	if err != nil {
		t.Fatal(err)
	}
	profiles, err := animation.NewBuiltInRegistry()
	if err != nil {
		t.Fatal(err)
	}
	opts := animation.DefaultDriverOptions()
	opts.Autoplay = false

	m := session.NewManager(context.Background(), skeletons, profiles, opts)
	t.Cleanup(m.Close)
	return m
}

func command(t *testing.T, typ protocol.MessageType, data any) []byte {
	t.Helper()
	msg, err := protocol.NewMessage(typ, data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := msg.WithID("req").Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleMessage_Commands(t *testing.T) {
	m := newTestManager(t)
	h := NewHub(m, nil)
	s, err := m.Create(skeleton.Squat)
	if err != nil {
		t.Fatal(err)
	}

	reply := h.HandleMessage(s, command(t, protocol.TypeTempo, protocol.TempoCommand{Tempo: 10}))
	if reply.Type != protocol.TypeAck || reply.ID != "req" {
		t.Fatalf("tempo reply = %+v", reply)
	}
	ack, _ := reply.GetAck()
	if ack.Value != 3.0 {
		t.Errorf("tempo ack value = %v, want clamped 3", ack.Value)
	}

	h.HandleMessage(s, command(t, protocol.TypeOffset, protocol.OffsetCommand{Joint: "knee", Degrees: 15}))
	h.HandleMessage(s, command(t, protocol.TypeBar, protocol.BarCommand{X: 4, Y: -2}))
	h.HandleMessage(s, command(t, protocol.TypeParameter, protocol.ParameterCommand{Key: "hip_setback", Value: 26}))

	reply = h.HandleMessage(s, command(t, protocol.TypeSnapshot, nil))
	if reply.Type != protocol.TypeState {
		t.Fatalf("snapshot reply type = %v", reply.Type)
	}
	var st session.State
	if err := json.Unmarshal(reply.Data, &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Manual.Offsets["knee"] != 15 {
		t.Errorf("knee offset = %v, want 15", st.Manual.Offsets["knee"])
	}
	if st.Manual.Bar != (skeleton.Point{X: 4, Y: -2}) {
		t.Errorf("bar offset = %+v", st.Manual.Bar)
	}
	if st.Parameters["hip_setback"] != 26 {
		t.Errorf("hip_setback = %v, want 26", st.Parameters["hip_setback"])
	}
	if st.Tempo != 3 {
		t.Errorf("tempo = %v, want 3", st.Tempo)
	}

	reply = h.HandleMessage(s, command(t, protocol.TypeReset, protocol.ResetCommand{Scope: protocol.ResetManual}))
	if reply.Type != protocol.TypeAck {
		t.Fatalf("reset reply = %+v", reply)
	}
	st, _ = s.Snapshot()
	if len(st.Manual.Offsets) != 0 {
		t.Errorf("offsets after manual reset = %v", st.Manual.Offsets)
	}
	if st.Parameters["hip_setback"] != 26 {
		t.Error("manual reset should keep parameters")
	}

	reply = h.HandleMessage(s, command(t, protocol.TypeToggle, nil))
	ack, _ = reply.GetAck()
	if ack.Value != true {
		t.Errorf("toggle ack = %v, want true", ack.Value)
	}
	s.Pause()
}

func TestHandleMessage_PublishesMutations(t *testing.T) {
	m := newTestManager(t)
	var published []session.State
	h := NewHub(m, func(s *session.Session) {
		st, err := s.Snapshot()
		if err != nil {
			t.Errorf("Snapshot: %v", err)
			return
		}
		published = append(published, st)
	})
	s, err := m.Create(skeleton.Squat)
	if err != nil {
		t.Fatal(err)
	}

	h.HandleMessage(s, command(t, protocol.TypeOffset, protocol.OffsetCommand{Joint: "knee", Degrees: 12}))
	if len(published) != 1 {
		t.Fatalf("published %d states after offset, want 1", len(published))
	}
	if s.Playback().Playing {
		t.Error("session should stay paused")
	}
	if got := published[0].Manual.Offsets["knee"]; got != 12 {
		t.Errorf("published knee offset = %v, want 12", got)
	}

	h.HandleMessage(s, command(t, protocol.TypeSnapshot, nil))
	h.HandleMessage(s, command(t, protocol.TypeOffset, protocol.OffsetCommand{Joint: "elbow", Degrees: 5}))
	h.HandleMessage(s, []byte("{"))
	if len(published) != 1 {
		t.Errorf("published %d states, want reads and rejected commands to publish nothing", len(published))
	}
}

func TestHandleMessage_Errors(t *testing.T) {
	m := newTestManager(t)
	h := NewHub(m, nil)
	s, err := m.Create(skeleton.Bench)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
		code string
	}{
		{"malformed json", []byte("{"), protocol.CodeBadRequest},
		{"unknown type", command(t, "jump", nil), protocol.CodeUnsupported},
		{"unknown lift", command(t, protocol.TypeLift, protocol.LiftCommand{Lift: "snatch"}), protocol.CodeNotFound},
		{"unknown joint", command(t, protocol.TypeOffset, protocol.OffsetCommand{Joint: "tail"}), protocol.CodeNotFound},
		{"unknown parameter", command(t, protocol.TypeParameter, protocol.ParameterCommand{Key: "nope"}), protocol.CodeNotFound},
		{"bad scope", command(t, protocol.TypeReset, protocol.ResetCommand{Scope: "everything"}), protocol.CodeBadRequest},
		{"bad payload", []byte(`{"type":"tempo","data":{"tempo":"fast"}}`), protocol.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := h.HandleMessage(s, tt.data)
			if reply.Type != protocol.TypeError {
				t.Fatalf("reply type = %v, want error", reply.Type)
			}
			data, err := reply.GetError()
			if err != nil {
				t.Fatal(err)
			}
			if data.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", data.Code, tt.code, data.Message)
			}
		})
	}

	stats := h.GetStats()
	if stats.CommandsRejected != uint64(len(tests)) {
		t.Errorf("CommandsRejected = %d, want %d", stats.CommandsRejected, len(tests))
	}
}

func TestDispatch_LiftAndPing(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Create(skeleton.Squat)
	if err != nil {
		t.Fatal(err)
	}

	msg, _ := protocol.NewMessage(protocol.TypeLift, protocol.LiftCommand{Lift: "Deadlift"})
	reply, err := Dispatch(s, msg)
	if err != nil {
		t.Fatalf("Dispatch(lift) error = %v", err)
	}
	ack, _ := reply.GetAck()
	if ack.Value != skeleton.Deadlift {
		t.Errorf("lift ack = %v, want deadlift", ack.Value)
	}

	ping, _ := protocol.NewPingMessage("p1")
	reply, err = Dispatch(s, ping)
	if err != nil {
		t.Fatal(err)
	}
	pong, err := reply.GetPongData()
	if err != nil {
		t.Fatal(err)
	}
	if pong.ID != "p1" {
		t.Errorf("pong id = %q", pong.ID)
	}
}

func startServer(t *testing.T, h *Hub) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	h.RegisterRoutes(app)
	h.RegisterAPIRoutes(app.Group("/api/v1"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })
	return ln.Addr().String()
}

func TestWebSocketControl(t *testing.T) {
	m := newTestManager(t)
	h := NewHub(m, nil)
	s, err := m.Create(skeleton.Squat)
	if err != nil {
		t.Fatal(err)
	}
	addr := startServer(t, h)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/control/"+s.ID, nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteMessage(websocket.TextMessage, command(t, protocol.TypeSeek, protocol.SeekCommand{Progress: 0.5})); err != nil {
		t.Fatal(err)
	}
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	reply, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Type != protocol.TypeAck || reply.ID != "req" {
		t.Errorf("reply = %+v", reply)
	}
	if got := s.Playback().Progress; got != 0.5 {
		t.Errorf("progress = %v, want 0.5", got)
	}

	if n := len(h.Connections(s.ID)); n != 1 {
		t.Errorf("Connections(%s) = %d, want 1", s.ID, n)
	}

	ws.Close()
	deadline := time.Now().Add(2 * time.Second)
	for h.ConnectionCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.ConnectionCount() != 0 {
		t.Errorf("ConnectionCount = %d after close", h.ConnectionCount())
	}
}

func TestWebSocketControl_UnknownSession(t *testing.T) {
	h := NewHub(newTestManager(t), nil)
	addr := startServer(t, h)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/control/missing", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	reply, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Type != protocol.TypeError {
		t.Errorf("reply type = %v, want error", reply.Type)
	}
}
