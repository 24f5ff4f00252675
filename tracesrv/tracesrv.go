// Package tracesrv streams simulation traces to websocket clients. Every
// client gets its own session over the program, so nothing is shared between
// connections.
package tracesrv

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sim8086/render"
	"sim8086/sim86"
)

// TracePath is where clients connect.
const TracePath = "/trace"

// Event types.
const (
	EventStep  = "step"
	EventFinal = "final"
	EventError = "error"
)

// Event is the JSON message sent to clients. Which fields are set depends on
// Type.
type Event struct {
	Type string `json:"type"`

	Text        string `json:"text,omitempty"`
	Mnemonic    string `json:"mnemonic,omitempty"`
	Simulated   bool   `json:"simulated,omitempty"`
	Old         uint16 `json:"old"`
	New         uint16 `json:"new"`
	FlagsBefore string `json:"flags_before"`
	FlagsAfter  string `json:"flags_after"`
	Cycles      int    `json:"cycles"`
	TotalCycles int    `json:"total_cycles"`
	IPBefore    int64  `json:"ip_before"`
	IPAfter     int64  `json:"ip_after"`

	Registers map[string]uint16 `json:"registers,omitempty"`
	Skipped   int               `json:"skipped,omitempty"`

	Error string `json:"error,omitempty"`
}

func stepEvent(rec *sim86.Record) Event {
	return Event{
		Type:        EventStep,
		Text:        render.Record(rec),
		Mnemonic:    rec.Mnemonic,
		Simulated:   rec.Simulated,
		Old:         rec.Old,
		New:         rec.New,
		FlagsBefore: rec.FlagsBefore.String(),
		FlagsAfter:  rec.FlagsAfter.String(),
		Cycles:      rec.Cycles,
		TotalCycles: rec.TotalCycles,
		IPBefore:    rec.IPBefore,
		IPAfter:     rec.IPAfter,
	}
}

func finalEvent(st sim86.State, skipped int) Event {
	regs := make(map[string]uint16, len(st.Registers))
	for i, v := range st.Registers {
		regs[sim86.RegisterName(sim86.Word, byte(i))] = v
	}
	return Event{
		Type:        EventFinal,
		Registers:   regs,
		FlagsAfter:  st.Flags.String(),
		TotalCycles: st.Cycles,
		IPAfter:     st.IP,
		Skipped:     skipped,
	}
}

// Server serves traces of a single program.
type Server struct {
	name     string
	program  []byte
	opts     sim86.Options
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// New returns a server tracing program. name is only used for the usage
// page and logging.
func New(name string, program []byte, opts sim86.Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		name:    name,
		program: program,
		opts:    opts,
		log:     log,
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveUsage)
	mux.HandleFunc(TracePath, s.serveTrace)
	return mux
}

// ListenAndServe serves on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.log.WithField("addr", addr).Infof("started trace server for %s at %s", s.name, TracePath)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) serveUsage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "sim8086 trace of %s: connect a websocket to %s\n", s.name, TracePath)
}

func (s *Server) serveTrace(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithField("client", r.RemoteAddr)
	log.Info("new client connection")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer conn.Close()

	opts := s.opts
	opts.Logger = log
	if err := s.trace(conn, opts); err != nil {
		log.WithError(err).Error("closing client connection due to an error")
		_ = conn.WriteJSON(Event{Type: EventError, Error: err.Error()})
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	log.Info("closed client connection")
}

func (s *Server) trace(conn *websocket.Conn, opts sim86.Options) error {
	sess, err := sim86.NewSession(bytes.NewReader(s.program), opts)
	if err != nil {
		return err
	}

	err = sess.Run(func(rec *sim86.Record) error {
		return conn.WriteJSON(stepEvent(rec))
	})
	if err != nil {
		return err
	}

	return conn.WriteJSON(finalEvent(sess.State(), len(sess.Skipped())))
}
