package gdbserver

import (
	"fmt"
	"net"

	"github.com/charmbracelet/log"

	"github.com/kc1fsz/swdbridge/internal/rsp"
)

// ListenAndServe implements spec.md §6's GDB frontend listener: bind
// port, falling back through fallbackPorts if it's busy, then accept
// and serve one connection at a time until Accept fails, returning that
// error (spec.md §5: "accepts exactly one connection at a time" —
// two simultaneous GDB sessions would trample the same probe).
//
// newServer builds a fresh *Server for each accepted connection
// (everything but its Transport field, which ListenAndServe fills in
// once the Transport exists); it is a constructor rather than a shared
// value because the Transport's NoAck/state-machine fields are
// per-connection.
func ListenAndServe(port int, fallbackPorts []int, newServer func(conn net.Conn) *Server, logger *log.Logger) error {
	ln, boundPort, err := listenWithFallback(port, fallbackPorts)
	if err != nil {
		return err
	}
	defer ln.Close()
	if logger != nil {
		logger.Info("gdb server listening", "port", boundPort)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		serveOne(conn, newServer, logger)
	}
}

func listenWithFallback(port int, fallbackPorts []int) (net.Listener, int, error) {
	candidates := append([]int{port}, fallbackPorts...)
	var lastErr error
	for _, p := range candidates {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
		if err == nil {
			return ln, p, nil
		}
		lastErr = err
	}
	return nil, 0, fmt.Errorf("gdbserver: no listening port available from %v: %w", candidates, lastErr)
}

func serveOne(conn net.Conn, newServer func(net.Conn) *Server, logger *log.Logger) {
	defer conn.Close()

	// Server is its own rsp.RemoteControlHandler, so the Transport
	// (which needs the handler at construction) is built after the
	// Server, then wired back in.
	server := newServer(conn)
	transport := rsp.New(conn, server, logger)
	server.Transport = transport

	if logger != nil {
		logger.Info("gdb client connected", "remote", conn.RemoteAddr())
	}
	if err := transport.Serve(server); err != nil {
		if logger != nil {
			logger.Warn("gdb session ended", "err", err)
		}
	}
}
