package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"runtime"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/leshy-dns/leshy/internal/dnswire"
	"github.com/leshy-dns/leshy/internal/pipeline"
	"github.com/leshy-dns/leshy/internal/pool"
)

// Socket buffer sizes for high throughput (4MB each).
const (
	socketRecvBufferSize = 4 * 1024 * 1024
	socketSendBufferSize = 4 * 1024 * 1024
)

// DefaultWorkersPerSocket is the default number of worker goroutines per UDP socket.
const DefaultWorkersPerSocket = 1024

// bufferPool reduces allocations for incoming UDP packets. Each buffer is
// sized for the maximum expected DNS message.
var bufferPool = pool.New(func() *[]byte {
	buf := make([]byte, dnswire.MaxIncomingMessageSize)
	return &buf
})

// UDPServer accepts DNS queries over UDP across one socket per CPU core
// (SO_REUSEPORT) and dispatches them to a fixed worker pool per socket.
type UDPServer struct {
	Logger           *slog.Logger
	Handler          *pipeline.Handler
	WorkersPerSocket int // worker goroutines per socket (default 1024)

	conns []*net.UDPConn
	wg    sync.WaitGroup
}

// packet represents a received UDP packet pending processing.
type packet struct {
	bufPtr *[]byte
	n      int
	peer   *net.UDPAddr
}

// Run starts the UDP server with multiple sockets using SO_REUSEPORT.
// Each socket has its own fixed pool of worker goroutines. Returns an
// error at once if socket creation fails; otherwise blocks until ctx is
// cancelled and then returns the result of Stop (an error if goroutines
// do not exit within 5s).
func (s *UDPServer) Run(ctx context.Context, addr string) error {
	if s.WorkersPerSocket <= 0 {
		s.WorkersPerSocket = DefaultWorkersPerSocket
	}

	socketCount := runtime.NumCPU()
	s.conns = make([]*net.UDPConn, 0, socketCount)

	for range socketCount {
		conn, err := listenReusePort(addr)
		if err != nil {
			for _, c := range s.conns {
				_ = c.Close()
			}
			return err
		}

		_ = conn.SetReadBuffer(socketRecvBufferSize)
		_ = conn.SetWriteBuffer(socketSendBufferSize)

		s.conns = append(s.conns, conn)

		packetCh := make(chan packet, s.WorkersPerSocket*2)
		c := conn
		ch := packetCh

		s.wg.Go(func() {
			s.recvLoop(ctx, c, ch)
		})

		for range s.WorkersPerSocket {
			s.wg.Go(func() {
				s.workerLoop(ctx, c, ch)
			})
		}
	}

	<-ctx.Done()
	return s.Stop(5 * time.Second)
}

// RunOnConn runs the server on an existing UDP connection. Useful for
// tests and when the caller manages the socket itself.
func (s *UDPServer) RunOnConn(ctx context.Context, conn *net.UDPConn) error {
	if s.WorkersPerSocket <= 0 {
		s.WorkersPerSocket = DefaultWorkersPerSocket
	}

	s.conns = []*net.UDPConn{conn}
	packetCh := make(chan packet, s.WorkersPerSocket)
	c := conn
	ch := packetCh

	s.wg.Go(func() {
		s.recvLoop(ctx, c, ch)
	})

	for range s.WorkersPerSocket {
		s.wg.Go(func() {
			s.workerLoop(ctx, c, ch)
		})
	}

	<-ctx.Done()
	return nil
}

// recvLoop reads packets from the socket and dispatches to workers.
// Never blocks on worker availability; drops packets if all workers are
// busy, keeping the receive path fast under load.
func (s *UDPServer) recvLoop(ctx context.Context, conn *net.UDPConn, out chan<- packet) {
	for {
		bufPtr := bufferPool.Get()
		buf := *bufPtr

		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			bufferPool.Put(bufPtr)
			return
		}

		select {
		case out <- packet{bufPtr, n, peer}:
		default:
			bufferPool.Put(bufPtr)
		}
	}
}

// workerLoop processes packets from the channel.
func (s *UDPServer) workerLoop(ctx context.Context, conn *net.UDPConn, in <-chan packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-in:
			if !ok {
				return
			}
			s.handlePacket(ctx, conn, pkt)
		}
	}
}

// handlePacket processes a single DNS request.
func (s *UDPServer) handlePacket(ctx context.Context, conn *net.UDPConn, p packet) {
	defer bufferPool.Put(p.bufPtr)

	if s.Handler == nil {
		return
	}

	payload := (*p.bufPtr)[:p.n]
	peerIP := p.peer.IP.String()
	resp := s.Handler.Handle(ctx, "udp", peerIP, payload)
	if len(resp) == 0 {
		return
	}

	_, _ = conn.WriteToUDP(resp, p.peer)
}

// Stop gracefully shuts down the UDP server: closes all sockets and
// waits up to timeout for in-flight goroutines to exit.
func (s *UDPServer) Stop(timeout time.Duration) error {
	for _, c := range s.conns {
		_ = c.Close()
	}

	if timeout <= 0 {
		s.wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("udp server: timeout waiting for goroutines to exit")
	}
}

// listenReusePort creates a UDP socket with SO_REUSEPORT enabled, giving
// each CPU core its own socket so the kernel load-balances packets
// without userspace lock contention.
func listenReusePort(addr string) (*net.UDPConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp", udpAddr.String())
	if err != nil {
		return nil, err
	}

	return pc.(*net.UDPConn), nil
}
