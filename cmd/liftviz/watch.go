package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/teslashibe/liftviz/internal/httpc"
	"github.com/teslashibe/liftviz/pkg/hub"
	"github.com/teslashibe/liftviz/pkg/session"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		server    string
		lift      string
		sessionID string
		count     int
		keep      bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream a session's frames from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			base := strings.TrimRight(server, "/")
			id := sessionID
			if id == "" {
				var st session.State
				if err := httpc.PostJSON(ctx, base+"/api/v1/sessions", map[string]any{"lift": lift, "autoplay": true}, &st); err != nil {
					return fmt.Errorf("create session: %w", err)
				}
				id = st.ID
				fmt.Printf("session %s (%s)\n", id, st.Lift)
				if !keep {
					defer httpc.DoJSON(context.Background(), http.MethodDelete, base+"/api/v1/sessions/"+id, nil, nil)
				}
			}

			return watch(ctx, wsURL(base)+"/ws/sessions/"+id, count)
		},
	}

	f := cmd.Flags()
	f.StringVar(&server, "server", "http://localhost:8090", "liftviz server URL")
	f.StringVar(&lift, "lift", "squat", "lift for a new session")
	f.StringVar(&sessionID, "session", "", "existing session id (default: create one)")
	f.IntVar(&count, "count", 0, "stop after this many frames (0 = until interrupted)")
	f.BoolVar(&keep, "keep", false, "keep the created session when exiting")
	return cmd
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

func watch(ctx context.Context, url string, count int) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for n := 0; count <= 0 || n < count; n++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		env, err := hub.Decode(data)
		if err != nil {
			return err
		}
		if env.Kind == hub.KindClosed {
			fmt.Println("stream closed")
			return nil
		}

		var st session.State
		if err := json.Unmarshal(env.Data, &st); err != nil {
			return err
		}
		fmt.Printf("#%-5d %-9s %.3f  %-28s bar=(%.1f, %.1f) torque=%.2f\n",
			env.Seq, st.Lift, st.Progress, st.Phase, st.Bar.X, st.Bar.Y, st.Torque.Total)
	}
	return nil
}
