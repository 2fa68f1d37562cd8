package testutil

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// ConsoleClient is a minimal Telnet client for console integration tests.
type ConsoleClient struct {
	conn net.Conn
	buf  bytes.Buffer
	t    *testing.T
}

// NewConsoleClient dials addr.
//
// Precondition: addr must be a "host:port" with a listening console.
// Postcondition: Returns a connected client or fails the test.
func NewConsoleClient(t *testing.T, addr string) *ConsoleClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &ConsoleClient{conn: conn, t: t}
}

// ReadUntil reads until substr appears in the text seen since the last
// match, with Telnet command bytes removed. It returns that text.
//
// Precondition: substr must be non-empty.
func (c *ConsoleClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	tmp := make([]byte, 1024)
	for {
		if i := strings.Index(c.buf.String(), substr); i >= 0 {
			out := c.buf.String()[:i+len(substr)]
			c.buf.Next(i + len(substr))
			return out
		}
		n, err := c.conn.Read(tmp)
		c.buf.Write(stripIAC(tmp[:n]))
		if err != nil && !strings.Contains(c.buf.String(), substr) {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, c.buf.String(), err)
		}
	}
}

// Send writes text followed by CRLF.
func (c *ConsoleClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Login answers the password prompt and waits for the greeting.
func (c *ConsoleClient) Login(password string) {
	c.t.Helper()
	c.ReadUntil("Password: ", 5*time.Second)
	c.Send(password)
	c.ReadUntil("Connected.", 5*time.Second)
}

// Close closes the connection.
func (c *ConsoleClient) Close() { _ = c.conn.Close() }

// stripIAC drops three-byte option negotiations; the console sends no
// other commands.
func stripIAC(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		if in[i] == 0xFF && i+2 < len(in) {
			i += 2
			continue
		}
		out = append(out, in[i])
	}
	return out
}
