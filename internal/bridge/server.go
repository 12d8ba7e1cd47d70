// Package bridge exposes the simulation's step/reset contract to an external
// training process over a WebSocket request/response channel. Each
// connection owns one Env and is served synchronously, so the
// single-writer-per-tick model holds: a request is fully processed before
// the next is read.
//
// Protocol (JSON text frames):
//
//	-> {"type": "reset", "config": {...}?, "trackId": "..."?}
//	<- {"type": "reset_result", "observation": [...], "info": {...}}
//	-> {"type": "step", "action": [steer, throttle, drift]}
//	<- {"type": "step_result", "observation": [...], "reward": r,
//	    "terminated": b, "truncated": b, "info": {...}}
//	-> {"type": "close"}
//	<- {"type": "closed"}
//
// Any failure produces {"type": "error", "message": "..."} and keeps the
// connection open.
package bridge

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"topdown-racer/internal/config"
	"topdown-racer/internal/sim"
)

// Server serves the bridge protocol.
type Server struct {
	addr string
	base config.Config
}

// NewServer creates a bridge server. base is the config used when a reset
// message carries no overrides.
func NewServer(addr string, base config.Config) *Server {
	return &Server{addr: addr, base: base}
}

// Router returns the HTTP router serving the websocket endpoint at / and
// /ws.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleWebsocket).Methods("GET")
	router.HandleFunc("/ws", s.handleWebsocket).Methods("GET")
	return router
}

// ListenAndServe blocks serving bridge connections.
func (s *Server) ListenAndServe() error {
	log.Println("bridge: listening on " + s.addr)
	return http.ListenAndServe(s.addr, s.Router())
}

type request struct {
	Type    string          `json:"type"`
	Action  []float64       `json:"action,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
	TrackID string          `json:"trackId,omitempty"`
}

type resetResult struct {
	Type        string    `json:"type"`
	Observation []float64 `json:"observation"`
	Info        sim.Info  `json:"info"`
}

type stepResult struct {
	Type        string    `json:"type"`
	Observation []float64 `json:"observation"`
	Reward      float64   `json:"reward"`
	Terminated  bool      `json:"terminated"`
	Truncated   bool      `json:"truncated"`
	Info        sim.Info  `json:"info"`
}

type errorResult struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("bridge: upgrade:", err)
		return
	}
	defer c.Close()

	log.Printf("bridge: client connected from %s", r.RemoteAddr)

	session := &session{base: s.base}

	for {
		var req request
		if err := c.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Print("bridge: read:", err)
			}
			return
		}

		resp, done := session.handle(req)
		if err := c.WriteJSON(resp); err != nil {
			log.Print("bridge: write:", err)
			return
		}
		if done {
			return
		}
	}
}

// session is the per-connection protocol state.
type session struct {
	base config.Config
	env  *sim.Env
}

// handle processes one request and returns the response plus whether the
// connection should close.
func (s *session) handle(req request) (interface{}, bool) {
	switch req.Type {
	case "reset":
		return s.reset(req), false

	case "step":
		return s.step(req), false

	case "close":
		s.env = nil
		return map[string]string{"type": "closed"}, true

	default:
		return errorResult{Type: "error", Message: fmt.Sprintf("unknown message type %q", req.Type)}, false
	}
}

func (s *session) reset(req request) interface{} {
	cfg := s.base
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return errorResult{Type: "error", Message: "invalid config: " + err.Error()}
		}
	}
	if req.TrackID != "" {
		log.Printf("bridge: reset with trackId=%s", req.TrackID)
	}

	env, err := sim.NewEnv(cfg)
	if err != nil {
		return errorResult{Type: "error", Message: err.Error()}
	}
	s.env = env

	obs, info := env.Reset()
	return resetResult{Type: "reset_result", Observation: obs, Info: info}
}

func (s *session) step(req request) interface{} {
	if s.env == nil {
		return errorResult{Type: "error", Message: "step before reset"}
	}
	if len(req.Action) != 3 {
		return errorResult{Type: "error", Message: fmt.Sprintf("action must have 3 elements, got %d", len(req.Action))}
	}

	res := s.env.Step(sim.Action{
		Steering: req.Action[0],
		Throttle: req.Action[1],
		Drift:    req.Action[2],
	})

	return stepResult{
		Type:        "step_result",
		Observation: res.Observation,
		Reward:      res.Reward,
		Terminated:  res.Terminated,
		Truncated:   res.Truncated,
		Info:        res.Info,
	}
}
