package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"github.com/tessro/finch/internal/log"
)

const (
	DefaultKeepAlive   = 30 * time.Second
	defaultDialTimeout = 10 * time.Second
)

// Status is the channel's connection state.
type Status int

const (
	// StatusIdle means no identity is set, so nothing is connected.
	StatusIdle Status = iota
	StatusConnected
	// StatusDisconnected means the last connection failed or dropped.
	// The channel does not retry on its own.
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by SetIdentity after Close.
var ErrClosed = errors.New("remote channel closed")

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithKeepAlive sets the keep-alive interval.
func WithKeepAlive(d time.Duration) ChannelOption {
	return func(c *Channel) {
		if d > 0 {
			c.keepAlive = d
		}
	}
}

// WithDialTimeout bounds each connection attempt.
func WithDialTimeout(d time.Duration) ChannelOption {
	return func(c *Channel) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithChannelLogger overrides the channel's logger.
func WithChannelLogger(l zerolog.Logger) ChannelOption {
	return func(c *Channel) {
		c.logger = l
	}
}

// Channel is the server's push socket. It is open while both a device id
// and an access token are known.
type Channel struct {
	serverURL   string
	onCommand   func(Command)
	keepAlive   time.Duration
	dialTimeout time.Duration
	logger      zerolog.Logger

	// opMu serializes identity changes and Close.
	opMu sync.Mutex

	mu       sync.Mutex
	deviceID string
	token    string
	status   Status
	link     *link
	closed   bool
}

// link is one live socket and its goroutines.
type link struct {
	conn    *websocket.Conn
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	writeMu sync.Mutex
}

func (l *link) shutdown() {
	l.once.Do(func() {
		close(l.stop)
		_ = l.conn.Close()
	})
}

func (l *link) send(msg Message) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return websocket.JSON.Send(l.conn, msg)
}

// NewChannel creates a channel for serverURL. onCommand is called from the
// channel's reader goroutine for every parsed command.
func NewChannel(serverURL string, onCommand func(Command), opts ...ChannelOption) *Channel {
	c := &Channel{
		serverURL:   strings.TrimRight(serverURL, "/"),
		onCommand:   onCommand,
		keepAlive:   DefaultKeepAlive,
		dialTimeout: defaultDialTimeout,
		logger:      log.WithComponent("remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the connection state.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Identity returns the device id and token in use.
func (c *Channel) Identity() (deviceID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID, c.token
}

// SetIdentity reconnects when the device id or token changes. An empty
// value closes the socket.
func (c *Channel) SetIdentity(ctx context.Context, deviceID, token string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	unchanged := deviceID == c.deviceID && token == c.token
	c.mu.Unlock()
	if unchanged {
		return nil
	}

	c.teardown("identity")

	c.mu.Lock()
	c.deviceID, c.token = deviceID, token
	if deviceID == "" || token == "" {
		c.status = StatusIdle
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.connect(ctx, deviceID, token)
}

// Close shuts the socket. The channel cannot be reused.
func (c *Channel) Close() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.teardown("closed")

	c.mu.Lock()
	c.status = StatusIdle
	c.mu.Unlock()
	return nil
}

func (c *Channel) connect(ctx context.Context, deviceID, token string) error {
	target, err := socketURL(c.serverURL, deviceID, token)
	if err != nil {
		c.markDisconnected(nil, "url")
		return err
	}
	cfg, err := websocket.NewConfig(target, c.serverURL)
	if err != nil {
		c.markDisconnected(nil, "url")
		return fmt.Errorf("socket config: %w", err)
	}

	dctx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()
	conn, err := cfg.DialContext(dctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("server", c.serverURL).Msg("remote channel connect failed")
		c.markDisconnected(nil, "dial")
		return fmt.Errorf("connect remote channel: %w", err)
	}

	l := &link{conn: conn, stop: make(chan struct{})}
	c.mu.Lock()
	c.link = l
	c.status = StatusConnected
	c.mu.Unlock()

	connectsTotal.Inc()
	connectedGauge.Set(1)
	c.logger.Info().Str("server", c.serverURL).Str("device_id", deviceID).Msg("remote channel connected")

	l.wg.Add(2)
	go c.readLoop(l)
	go c.keepAliveLoop(l)
	return nil
}

// teardown closes the live link, if any, and waits for its goroutines.
func (c *Channel) teardown(reason string) {
	c.mu.Lock()
	l := c.link
	c.link = nil
	c.mu.Unlock()

	if l == nil {
		return
	}
	l.shutdown()
	l.wg.Wait()
	disconnectsTotal.WithLabelValues(reason).Inc()
	connectedGauge.Set(0)
}

// markDisconnected records a lost link. It ignores links already replaced.
func (c *Channel) markDisconnected(l *link, reason string) {
	c.mu.Lock()
	if l != nil && c.link != l {
		c.mu.Unlock()
		return
	}
	c.link = nil
	c.status = StatusDisconnected
	c.mu.Unlock()

	if l != nil {
		disconnectsTotal.WithLabelValues(reason).Inc()
		connectedGauge.Set(0)
	}
}

func (c *Channel) readLoop(l *link) {
	defer l.wg.Done()
	for {
		var msg Message
		if err := websocket.JSON.Receive(l.conn, &msg); err != nil {
			select {
			case <-l.stop:
			default:
				c.logger.Warn().Err(err).Msg("remote channel lost")
				l.shutdown()
				c.markDisconnected(l, "read")
			}
			return
		}

		cmd, ok := ParseMessage(msg)
		if !ok {
			c.logger.Debug().Str("type", msg.MessageType).Msg("socket message")
			continue
		}
		if c.onCommand != nil {
			c.onCommand(cmd)
		}
	}
}

func (c *Channel) keepAliveLoop(l *link) {
	defer l.wg.Done()
	ticker := time.NewTicker(c.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			if err := l.send(Message{MessageType: MessageKeepAlive}); err != nil {
				c.logger.Warn().Err(err).Msg("remote keep-alive failed")
				l.shutdown()
				c.markDisconnected(l, "keepalive")
				return
			}
		}
	}
}

// socketURL builds ws(s)://host/socket?api_key=...&deviceId=...
func socketURL(serverURL, deviceID, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/socket"
	q := url.Values{}
	q.Set("api_key", token)
	q.Set("deviceId", deviceID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
