package upstream

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream runs a minimal UDP DNS responder for tests, answering with
// the configured rcode (or a trivial A record for RcodeSuccess).
func fakeUpstream(t *testing.T, rcode int) string {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 512)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			req := new(dns.Msg)
			if err := req.Unpack(buf[:n]); err != nil {
				continue
			}
			resp := new(dns.Msg)
			resp.SetReply(req)
			resp.Rcode = rcode
			if rcode == dns.RcodeSuccess && len(req.Question) > 0 {
				resp.Answer = []dns.RR{
					&dns.A{Hdr: dns.RR_Header{Name: req.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60}},
				}
			}
			out, err := resp.Pack()
			if err != nil {
				continue
			}
			_, _ = conn.WriteToUDP(out, addr)
		}
	}()

	return conn.LocalAddr().String()
}

func query(name string) *dns.Msg {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeA)
	return m
}

func TestForwardSucceedsOnFirstUpstream(t *testing.T) {
	good := fakeUpstream(t, dns.RcodeSuccess)

	f := NewForwarder(NewHealthTracker(time.Minute, 3), time.Second)
	resp, err := f.Forward(context.Background(), query("example.com"), []string{good})
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeSuccess, resp.Rcode)
}

func TestForwardFailsOverToSecondUpstream(t *testing.T) {
	bad := fakeUpstream(t, dns.RcodeServerFailure)
	good := fakeUpstream(t, dns.RcodeSuccess)

	f := NewForwarder(NewHealthTracker(time.Minute, 3), time.Second)
	resp, err := f.Forward(context.Background(), query("example.com"), []string{bad, good})
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeSuccess, resp.Rcode)
}

func TestForwardNXDOMAINIsSuccess(t *testing.T) {
	nx := fakeUpstream(t, dns.RcodeNameError)

	f := NewForwarder(NewHealthTracker(time.Minute, 3), time.Second)
	resp, err := f.Forward(context.Background(), query("gone.example.com"), []string{nx})
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeNameError, resp.Rcode)
}

func TestForwardAllFailedReturnsError(t *testing.T) {
	bad1 := fakeUpstream(t, dns.RcodeServerFailure)
	bad2 := fakeUpstream(t, dns.RcodeRefused)

	f := NewForwarder(NewHealthTracker(time.Minute, 3), time.Second)
	_, err := f.Forward(context.Background(), query("example.com"), []string{bad1, bad2})
	assert.ErrorIs(t, err, ErrAllUpstreamsFailed)
}

func TestForwardNoEndpoints(t *testing.T) {
	f := NewForwarder(NewHealthTracker(time.Minute, 3), time.Second)
	_, err := f.Forward(context.Background(), query("example.com"), nil)
	assert.ErrorIs(t, err, ErrAllUpstreamsFailed)
}

func TestForwardMarksFailedUpstreamCold(t *testing.T) {
	bad := fakeUpstream(t, dns.RcodeServerFailure)
	good := fakeUpstream(t, dns.RcodeSuccess)

	health := NewHealthTracker(time.Minute, 1)
	f := NewForwarder(health, time.Second)

	_, err := f.Forward(context.Background(), query("example.com"), []string{bad, good})
	require.NoError(t, err)
	assert.True(t, health.IsCold(bad))
}
