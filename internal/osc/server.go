package osc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rhaberkorn/osc-graphics/internal/log"
)

// ErrAlreadyOpen is returned by Open when the server already has a live
// listener, matching spec §4.I's "idempotent error if already open".
var ErrAlreadyOpen = errors.New("osc: server already open")

// Server is the UDP listener goroutine of spec §4.I's open/close. It
// owns no layers or method-table state directly — every dispatched
// Message is handed to a Dispatcher.
type Server struct {
	Dispatcher *Dispatcher

	log *log.Logger

	mu     sync.Mutex
	conn   net.PacketConn
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer returns a closed Server bound to d.
func NewServer(d *Dispatcher, logger *log.Logger) *Server {
	return &Server{Dispatcher: d, log: logger}
}

// Open binds a UDP socket on addr (host:port, or ":port" for all
// interfaces) and starts the background read loop. Calling Open on an
// already-open Server returns ErrAlreadyOpen.
func (s *Server) Open(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return ErrAlreadyOpen
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("osc: listen on %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.conn = conn
	s.cancel = cancel

	s.wg.Add(1)
	go s.readLoop(ctx, conn)

	return nil
}

func (s *Server) readLoop(ctx context.Context, conn net.PacketConn) {
	defer s.wg.Done()

	buf := make([]byte, 65536)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn().Src("osc").Msgf("read: %v", err)
			continue
		}

		msgs, err := ParsePacket(buf[:n])
		if err != nil {
			s.log.Warn().Src("osc").Msgf("malformed packet: %v", err)
			continue
		}
		for _, msg := range msgs {
			s.Dispatcher.Dispatch(msg)
		}
	}
}

// Close stops the read loop and releases the socket. Safe to call on an
// already-closed Server.
func (s *Server) Close() error {
	s.mu.Lock()
	conn := s.conn
	cancel := s.cancel
	s.conn = nil
	s.cancel = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	cancel()
	err := conn.Close()
	s.wg.Wait()
	return err
}
