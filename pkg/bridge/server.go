// Package bridge implements the bridge-side session service: it
// accepts one TCP connection per call, runs the AI session protocol
// against the remote provider, paces downstream audio back to the edge,
// and owns the barge-in/end-of-turn policy and call-termination control.
package bridge

import (
	"log"
	"net"
)

// Server listens for edge connections and spawns one Session per accepted
// socket.
type Server struct {
	ln  net.Listener
	cfg SessionConfig
}

// Listen opens the bridge's TCP listener on addr, with TCP_NODELAY set
// on every accepted socket.
func Listen(addr string, cfg SessionConfig) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{ln: ln, cfg: cfg}, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Close stops accepting new connections.
func (s *Server) Close() error { return s.ln.Close() }

// Serve accepts connections until the listener is closed, running each
// session worker on its own goroutine. It returns once Close has been
// called elsewhere.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		go func() {
			sess := NewSession(conn, s.cfg)
			if err := sess.Run(); err != nil {
				log.Printf("[Bridge] session %s ended: %v", sess.CallUUID(), err)
			}
		}()
	}
}
