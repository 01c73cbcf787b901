package remote

import (
	"context"
	"net"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

// socketServer is a fake media server push socket.
type socketServer struct {
	*httptest.Server

	mu       sync.Mutex
	queries  []url.Values
	received []Message
	script   []Message
	hangUp   bool
}

func newSocketServer(t *testing.T, script []Message, hangUp bool) *socketServer {
	t.Helper()
	s := &socketServer{script: script, hangUp: hangUp}
	s.Server = httptest.NewServer(websocket.Handler(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *socketServer) handle(ws *websocket.Conn) {
	s.mu.Lock()
	s.queries = append(s.queries, ws.Request().URL.Query())
	s.mu.Unlock()

	for _, msg := range s.script {
		if err := websocket.JSON.Send(ws, msg); err != nil {
			return
		}
	}
	if s.hangUp {
		return
	}
	for {
		var msg Message
		if err := websocket.JSON.Receive(ws, &msg); err != nil {
			return
		}
		s.mu.Lock()
		s.received = append(s.received, msg)
		s.mu.Unlock()
	}
}

func (s *socketServer) connections() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.queries...)
}

func (s *socketServer) keepAlives() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.received {
		if m.MessageType == MessageKeepAlive {
			n++
		}
	}
	return n
}

func TestSocketURL(t *testing.T) {
	got, err := socketURL("https://jf.example.com/jellyfin/", "dev", "tok")
	require.NoError(t, err)
	assert.Equal(t, "wss://jf.example.com/jellyfin/socket?api_key=tok&deviceId=dev", got)

	got, err = socketURL("http://10.0.0.2:8096", "dev", "tok")
	require.NoError(t, err)
	assert.Equal(t, "ws://10.0.0.2:8096/socket?api_key=tok&deviceId=dev", got)

	_, err = socketURL("ftp://nope", "dev", "tok")
	assert.Error(t, err)
}

func TestChannelDeliversCommands(t *testing.T) {
	seek := rawMessage(t, MessagePlaystate, map[string]any{"Command": "Seek", "SeekPositionTicks": 50_000_000})
	volume := rawMessage(t, MessageGeneralCommand, map[string]any{
		"Name": "SetVolume", "Arguments": map[string]string{"Volume": "20"},
	})
	srv := newSocketServer(t, []Message{{MessageType: MessageForceKeepAlive}, seek, volume}, false)

	got := make(chan Command, 4)
	ch := NewChannel(srv.URL, func(cmd Command) { got <- cmd })
	defer ch.Close()

	require.NoError(t, ch.SetIdentity(context.Background(), "dev1", "tok1"))
	assert.Equal(t, StatusConnected, ch.Status())

	var cmds []Command
	for len(cmds) < 2 {
		select {
		case cmd := <-got:
			cmds = append(cmds, cmd)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d commands", len(cmds))
		}
	}
	assert.Equal(t, KindSeek, cmds[0].Kind)
	assert.Equal(t, 5, cmds[0].Position.Seconds())
	assert.Equal(t, KindSetVolume, cmds[1].Kind)
	assert.Equal(t, 20, cmds[1].Volume)

	conns := srv.connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "tok1", conns[0].Get("api_key"))
	assert.Equal(t, "dev1", conns[0].Get("deviceId"))
}

func TestChannelSendsKeepAlive(t *testing.T) {
	srv := newSocketServer(t, nil, false)
	ch := NewChannel(srv.URL, nil, WithKeepAlive(10*time.Millisecond))
	defer ch.Close()

	require.NoError(t, ch.SetIdentity(context.Background(), "dev1", "tok1"))
	assert.Eventually(t, func() bool { return srv.keepAlives() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestChannelNeedsFullIdentity(t *testing.T) {
	srv := newSocketServer(t, nil, false)
	ch := NewChannel(srv.URL, nil)
	defer ch.Close()

	require.NoError(t, ch.SetIdentity(context.Background(), "", "tok1"))
	require.NoError(t, ch.SetIdentity(context.Background(), "dev1", ""))
	assert.Equal(t, StatusIdle, ch.Status())
	assert.Empty(t, srv.connections())
}

func TestChannelReconnectsOnIdentityChange(t *testing.T) {
	srv := newSocketServer(t, nil, false)
	ch := NewChannel(srv.URL, nil)
	defer ch.Close()
	ctx := context.Background()

	require.NoError(t, ch.SetIdentity(ctx, "dev1", "tok1"))
	require.NoError(t, ch.SetIdentity(ctx, "dev1", "tok1"))
	require.NoError(t, ch.SetIdentity(ctx, "dev1", "tok2"))

	conns := srv.connections()
	require.Len(t, conns, 2)
	assert.Equal(t, "tok2", conns[1].Get("api_key"))
	assert.Equal(t, StatusConnected, ch.Status())

	require.NoError(t, ch.SetIdentity(ctx, "", ""))
	assert.Equal(t, StatusIdle, ch.Status())
}

func TestChannelMarksDisconnectedWithoutRetry(t *testing.T) {
	srv := newSocketServer(t, nil, true)
	ch := NewChannel(srv.URL, nil)
	defer ch.Close()

	require.NoError(t, ch.SetIdentity(context.Background(), "dev1", "tok1"))
	require.Eventually(t, func() bool { return ch.Status() == StatusDisconnected }, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, srv.connections(), 1)
}

func TestChannelDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ch := NewChannel("http://"+addr, nil, WithDialTimeout(time.Second))
	defer ch.Close()

	assert.Error(t, ch.SetIdentity(context.Background(), "dev1", "tok1"))
	assert.Equal(t, StatusDisconnected, ch.Status())
}

func TestChannelClosed(t *testing.T) {
	ch := NewChannel("http://127.0.0.1:1", nil)
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.ErrorIs(t, ch.SetIdentity(context.Background(), "dev1", "tok1"), ErrClosed)
}
