package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/chase/internal/chase"
	"github.com/vovakirdan/chase/internal/storage"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// roundMessage is sent once per round on the websocket.
type roundMessage struct {
	storage.RoundRecord
	Alive   int    `json:"alive"`
	Event   string `json:"event"`
	SheepID *int   `json:"sheep_id,omitempty"`
}

func newRoundMessage(res chase.RoundResult) roundMessage {
	msg := roundMessage{
		RoundRecord: storage.NewRoundRecord(res.Summary),
		Alive:       res.Alive,
		Event:       res.Outcome.Kind.String(),
	}
	if res.Outcome.Kind != chase.OutcomeNone {
		id := res.Outcome.SheepID
		msg.SheepID = &id
	}
	return msg
}

// streamQuery reads rounds, sheep and seed from the query string on top
// of the server defaults.
func (s *Server) streamQuery(r *http.Request) (*chase.Simulation, int64, error) {
	cfg := s.config.Defaults
	q := r.URL.Query()

	intParam := func(name string, dst *int) error {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", name, v)
		}
		*dst = n
		return nil
	}
	if err := intParam("rounds", &cfg.Simulation.MaxRounds); err != nil {
		return nil, 0, err
	}
	if err := intParam("sheep", &cfg.Simulation.FlockSize); err != nil {
		return nil, 0, err
	}

	var seed int64
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("seed must be an integer, got %q", v)
		}
		seed = n
	}

	return newSimulation(cfg, seed)
}

// serveWs plays one simulation per connection, sending a message per round
// and closing normally after the last one.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	sim, seed, err := s.streamQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("stream started", "remote", r.RemoteAddr, "seed", seed)

	gone := s.readPump(conn)

	var rec chase.Recorder
	if s.config.Store != nil {
		runRec, err := storage.NewRunRecorder(s.config.Store, seed, sim.Params())
		if err != nil {
			s.logger.Warn("cannot record run", "error", err)
		} else {
			rec = runRec
		}
	}

	if err := s.writePump(conn, sim, rec, gone); err != nil {
		s.logger.Info("stream ended early", "remote", r.RemoteAddr, "round", sim.Round(), "error", err)
		return
	}
	s.logger.Info("stream finished", "remote", r.RemoteAddr, "rounds", sim.Round(), "survivors", sim.Alive())
}

// readPump drains the connection so control frames are handled, and
// closes the returned channel once the peer is gone.
func (s *Server) readPump(conn *websocket.Conn) <-chan struct{} {
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(maxMessageSize)
		//nolint:errcheck // A failed deadline surfaces as a read error below
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()
	return gone
}

// writePump steps the simulation at the configured interval. It is the
// only writer on conn.
func (s *Server) writePump(conn *websocket.Conn, sim *chase.Simulation, rec chase.Recorder, gone <-chan struct{}) error {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var pace <-chan time.Time
	if s.config.Interval > 0 {
		t := time.NewTicker(s.config.Interval)
		defer t.Stop()
		pace = t.C
	}

	for !sim.Done() {
		if pace != nil {
		wait:
			for {
				select {
				case <-gone:
					return fmt.Errorf("peer went away")
				case <-ping.C:
					//nolint:errcheck // A failed deadline surfaces as a write error
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return err
					}
				case <-pace:
					break wait
				}
			}
		} else {
			select {
			case <-gone:
				return fmt.Errorf("peer went away")
			default:
			}
		}

		res, ok := sim.Step()
		if !ok {
			break
		}
		if rec != nil {
			if err := rec.RecordRound(res); err != nil {
				s.logger.Warn("cannot record round", "round", res.Round(), "error", err)
				rec = nil
			}
		}

		//nolint:errcheck // A failed deadline surfaces as a write error
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(newRoundMessage(res)); err != nil {
			return err
		}
	}

	if rec != nil {
		if err := rec.Finish(sim.Summaries()); err != nil {
			s.logger.Warn("cannot finish run record", "error", err)
		}
	}

	//nolint:errcheck // A failed deadline surfaces as a write error
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "simulation finished"))
}
