package wire

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/pdabridge/internal/event"
)

// fakeNetwork accepts one connection at a time and records received lines.
type fakeNetwork struct {
	t  *testing.T
	ln net.Listener

	mu    sync.Mutex
	lines []string
	conn  net.Conn
	conns chan net.Conn
}

func newFakeNetwork(t *testing.T) *fakeNetwork {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeNetwork{t: t, ln: ln, conns: make(chan net.Conn, 4)}
	t.Cleanup(func() { ln.Close() })
	go f.accept()
	return f
}

func (f *fakeNetwork) accept() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		f.conns <- conn
		go f.read(conn)
	}
}

func (f *fakeNetwork) read(conn net.Conn) {
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		f.mu.Lock()
		f.lines = append(f.lines, sc.Text())
		f.mu.Unlock()
	}
}

func (f *fakeNetwork) send(line string) {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	_, err := conn.Write([]byte(line + "\r\n"))
	require.NoError(f.t, err)
}

func (f *fakeNetwork) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

func (f *fakeNetwork) waitFor(line string) {
	f.t.Helper()
	assert.Eventually(f.t, func() bool {
		for _, l := range f.received() {
			if l == line {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond, "waiting for %q", line)
}

type recorder struct {
	mu       sync.Mutex
	messages []Message
	welcomes int
	nicks    []string
	infos    []string
	drops    int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnMessage: func(m Message) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.messages = append(r.messages, m)
		},
		OnWelcome: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.welcomes++
		},
		OnNickChanged: func(n string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.nicks = append(r.nicks, n)
		},
		OnInformation: func(s string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.infos = append(r.infos, s)
		},
		OnReconnecting: func(string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.drops++
		},
	}
}

func (r *recorder) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.messages {
		out = append(out, m.Command)
	}
	return out
}

func startClient(t *testing.T, f *fakeNetwork, password string, r *recorder) (*Client, context.CancelFunc, chan error) {
	t.Helper()
	c := NewClient(Options{Addr: f.ln.Addr().String(), Nick: "Strelok", Password: password}, r.hooks(), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	return c, cancel, done
}

func TestClientRegistersAndAnswersPing(t *testing.T) {
	f := newFakeNetwork(t)
	r := &recorder{}
	_, cancel, done := startClient(t, f, "", r)
	defer func() {
		cancel()
		<-done
	}()

	f.waitFor("NICK Strelok")
	f.waitFor("USER Strelok 0 * Strelok")

	f.send(":irc.server 001 Strelok :Welcome")
	f.send("PING :abc123")
	f.waitFor("PONG abc123")
	f.send(":Wolf!w@h PRIVMSG #zone :hello")

	assert.Eventually(t, func() bool {
		return strings.Join(r.commands(), ",") == "001,PRIVMSG"
	}, 5*time.Second, 10*time.Millisecond)
	r.mu.Lock()
	assert.Equal(t, 1, r.welcomes)
	r.mu.Unlock()
}

func TestClientSend(t *testing.T) {
	f := newFakeNetwork(t)
	r := &recorder{}
	c, cancel, done := startClient(t, f, "", r)
	defer func() {
		cancel()
		<-done
	}()
	f.waitFor("NICK Strelok")

	require.NoError(t, c.Send(context.Background(), event.ChannelMessage{Target: "#zone", Content: "good hunting"}))
	f.waitFor("PRIVMSG #zone :good hunting")

	require.NoError(t, c.Send(context.Background(), event.NickChange{Nick: "Marked"}))
	f.waitFor("NICK Marked")
	assert.Equal(t, "Marked", c.Nick())
}

func TestClientSendWhileDisconnected(t *testing.T) {
	c := NewClient(Options{Addr: "127.0.0.1:1", Nick: "Strelok"}, Hooks{}, zaptest.NewLogger(t))
	assert.ErrorIs(t, c.Send(context.Background(), event.Join{Channel: "#zone"}), ErrNotConnected)
}

func TestClientAdoptsTempNickWithoutPassword(t *testing.T) {
	f := newFakeNetwork(t)
	r := &recorder{}
	c, cancel, done := startClient(t, f, "", r)
	defer func() {
		cancel()
		<-done
	}()
	f.waitFor("NICK Strelok")

	f.send(":irc.server 433 * Strelok :Nickname is already in use")
	f.waitFor("NICK Strelok_")
	assert.Eventually(t, func() bool { return c.Nick() == "Strelok_" }, 5*time.Second, 10*time.Millisecond)
	r.mu.Lock()
	assert.Equal(t, []string{"Strelok_"}, r.nicks)
	r.mu.Unlock()
}

func TestClientRecoversNickWithPassword(t *testing.T) {
	f := newFakeNetwork(t)
	r := &recorder{}
	c, cancel, done := startClient(t, f, "hunter2", r)
	defer func() {
		cancel()
		<-done
	}()
	f.waitFor("NICK Strelok")

	f.send(":irc.server 433 * Strelok :Nickname is already in use")
	f.waitFor("PRIVMSG NickServ :RECOVER Strelok hunter2")
	f.waitFor("PRIVMSG NickServ :RELEASE Strelok hunter2")
	f.waitFor("PRIVMSG NickServ :IDENTIFY hunter2")
	assert.Equal(t, "Strelok", c.Nick())
	r.mu.Lock()
	assert.Equal(t, []string{"Nick Strelok is already in use. Trying to recover it."}, r.infos)
	r.mu.Unlock()
}

func TestClientIdentifiesOnNickServPrompt(t *testing.T) {
	f := newFakeNetwork(t)
	r := &recorder{}
	_, cancel, done := startClient(t, f, "hunter2", r)
	defer func() {
		cancel()
		<-done
	}()
	f.waitFor("NICK Strelok")

	f.send(":NickServ!s@services NOTICE Strelok :This nickname is registered and protected.  If it is your")
	f.waitFor("PRIVMSG NickServ :IDENTIFY hunter2")
}

func TestClientReconnects(t *testing.T) {
	f := newFakeNetwork(t)
	r := &recorder{}
	_, cancel, done := startClient(t, f, "", r)
	defer func() {
		cancel()
		<-done
	}()

	first := <-f.conns
	first.Close()

	select {
	case <-f.conns:
	case <-time.After(10 * time.Second):
		t.Fatal("client did not reconnect")
	}
	r.mu.Lock()
	assert.Equal(t, 1, r.drops)
	r.mu.Unlock()
}

func TestClientRunStopsOnCancel(t *testing.T) {
	f := newFakeNetwork(t)
	_, cancel, done := startClient(t, f, "", &recorder{})
	<-f.conns
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}
