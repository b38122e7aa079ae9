package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
)

// TCPServer speaks the line protocol: one command per line in, one
// response per line out.
type TCPServer struct {
	hub *Hub

	mu       sync.Mutex
	listener net.Listener
	conns    sync.WaitGroup
}

func NewTCPServer(hub *Hub) *TCPServer {
	return &TCPServer{hub: hub}
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *TCPServer) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes ln and
// waits for open connections to finish.
func (s *TCPServer) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.hub.log.Info("relay listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.conns.Wait()
				return nil
			}
			s.hub.log.Warn("accept failed", "err", err)
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.ServeConn(ctx, conn)
		}()
	}
}

// Addr returns the listening address, or nil before Serve is called.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ServeConn runs the protocol on a single connection and closes it when the
// client quits, the connection fails, or ctx is done.
func (s *TCPServer) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	client := s.hub.Connect(conn.RemoteAddr().String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()
		w := bufio.NewWriter(conn)
		for r := range client.Out() {
			if _, err := w.WriteString(r.Line() + "\n"); err != nil {
				return
			}
			if len(client.Out()) == 0 {
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
		w.Flush()
	}()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		req, err := ParseLine(scanner.Text())
		if err != nil {
			client.Fail(err)
			continue
		}
		if !client.Handle(req) {
			break
		}
	}
	client.Close()
	<-done
}
