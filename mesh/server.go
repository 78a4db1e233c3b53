package mesh

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
	"github.com/pborman/uuid"
)

// handshake is the body of join and leave requests, and the body of the
// join response. ID distinguishes process incarnations on the same address.
type handshake struct {
	Node string `json:"node"`
	ID   string `json:"id"`
}

type session struct {
	Node  string    `json:"node"`
	ID    string    `json:"id"`
	Since time.Time `json:"since"`
}

// Server accepts join/leave handshakes from peers and tracks the resulting
// sessions. Best used with Client.
type Server struct {
	self   string
	id     string
	logger log.Logger

	mtx      sync.RWMutex
	sessions map[string]session

	*mux.Router
}

var _ http.Handler = (*Server)(nil)

// NewServer returns a usable Server identifying itself as self (a peer ID
// string) in handshake responses.
func NewServer(self string, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Server{
		self:     self,
		id:       uuid.New(),
		logger:   logger,
		sessions: map[string]session{},
	}
	r := mux.NewRouter()
	{
		r.StrictSlash(true)
		r.Methods("POST").Path("/mesh/v1/join").HandlerFunc(s.handleJoin)
		r.Methods("POST").Path("/mesh/v1/leave").HandlerFunc(s.handleLeave)
		r.Methods("GET").Path("/mesh/v1/sessions").HandlerFunc(s.handleSessions)
	}
	s.Router = r
	return s
}

// Sessions returns the node names of peers currently holding a session.
func (s *Server) Sessions() []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	res := make([]string, 0, len(s.sessions))
	for node := range s.sessions {
		res = append(res, node)
	}
	return res
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var hs handshake
	if err := json.NewDecoder(r.Body).Decode(&hs); err != nil || hs.Node == "" {
		http.Error(w, "bad handshake", http.StatusBadRequest)
		return
	}

	s.mtx.Lock()
	// A re-join from a new incarnation supersedes the old session.
	s.sessions[hs.Node] = session{Node: hs.Node, ID: hs.ID, Since: time.Now()}
	s.mtx.Unlock()

	level.Debug(s.logger).Log("op", "join", "node", hs.Node, "id", hs.ID)
	json.NewEncoder(w).Encode(handshake{Node: s.self, ID: s.id})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var hs handshake
	if err := json.NewDecoder(r.Body).Decode(&hs); err != nil || hs.Node == "" {
		http.Error(w, "bad handshake", http.StatusBadRequest)
		return
	}

	s.mtx.Lock()
	delete(s.sessions, hs.Node)
	s.mtx.Unlock()

	level.Debug(s.logger).Log("op", "leave", "node", hs.Node)
	json.NewEncoder(w).Encode(handshake{Node: s.self, ID: s.id})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.mtx.RLock()
	res := make([]session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		res = append(res, sess)
	}
	s.mtx.RUnlock()
	json.NewEncoder(w).Encode(res)
}
