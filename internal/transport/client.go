package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"ard/internal/models"
	"ard/internal/providers"
	"ard/internal/reply/interfaces"
	"ard/internal/structures"
)

const defaultRequestTimeout = 10 * time.Second

// Client speaks the bot gateway's websocket protocol: requests and
// responses are correlated by an echo id, inbound message batches arrive as
// push frames. One Client serves one logged-in account.
type Client struct {
	conf    *structures.Config
	logger  providers.Logger
	cache   providers.CacheProviderInterface
	timeout time.Duration

	connMu sync.Mutex // guards conn writes and replacement
	conn   *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan *responseFrame

	handlersMu sync.Mutex
	handlers   map[uint64]func(msgs []models.InboundMessage)
	nextSub    uint64

	echo   atomic.Uint64
	closed atomic.Bool
}

func NewClient(conf *structures.Config, logger providers.Logger, cache providers.CacheProviderInterface) interfaces.TransportInterface {
	timeout := conf.Transport.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		conf:     conf,
		logger:   logger,
		cache:    cache,
		timeout:  timeout,
		pending:  make(map[string]chan *responseFrame),
		handlers: make(map[uint64]func(msgs []models.InboundMessage)),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	go c.readLoop(conn)
	c.logger.Infof(providers.TypeApp, "transport connected to %s", c.conf.Transport.Url)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.conf.Transport.Token != "" {
		header.Set("Authorization", "Bearer "+c.conf.Transport.Token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.conf.Transport.Url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.conf.Transport.Url, err)
	}
	return conn, nil
}

func (c *Client) Close() error {
	c.closed.Store(true)

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Warnf(providers.TypeApp, "transport read failed, reconnecting: %s", err)
			c.failPending(err)
			if !c.reconnect() {
				return
			}
			return
		}
		c.handleFrame(data)
	}
}

// reconnect redials until it succeeds or the client is closed. The inbound
// subscription survives: handlers are registered on the client, not on the
// connection.
func (c *Client) reconnect() bool {
	for !c.closed.Load() {
		time.Sleep(c.conf.Transport.ReconnectInterval)
		if c.closed.Load() {
			return false
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.logger.Warnf(providers.TypeApp, "transport reconnect failed: %s", err)
			continue
		}

		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()

		go c.readLoop(conn)
		c.logger.Infof(providers.TypeApp, "transport reconnected")
		return true
	}
	return false
}

func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for echo, ch := range c.pending {
		ch <- &responseFrame{Status: "failed", Message: err.Error()}
		delete(c.pending, echo)
	}
}

func (c *Client) handleFrame(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.logger.Warnf(providers.TypeApp, "transport frame unreadable: %s", err)
		return
	}

	if frame.Echo != "" {
		c.pendingMu.Lock()
		ch, ok := c.pending[frame.Echo]
		if ok {
			delete(c.pending, frame.Echo)
		}
		c.pendingMu.Unlock()
		if ok {
			ch <- &frame.responseFrame
		}
		return
	}

	if frame.PostType == "message" {
		msgs := make([]models.InboundMessage, 0, len(frame.Messages))
		for _, m := range frame.Messages {
			msgs = append(msgs, models.InboundMessage{
				ChatType:  m.ChatType,
				PeerUin:   m.PeerId,
				SenderUin: m.SenderId,
				Time:      m.Time,
			})
		}
		for _, handler := range c.snapshotHandlers() {
			handler(msgs)
		}
	}
}

func (c *Client) snapshotHandlers() []func(msgs []models.InboundMessage) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	out := make([]func(msgs []models.InboundMessage), 0, len(c.handlers))
	for _, h := range c.handlers {
		out = append(out, h)
	}
	return out
}

func (c *Client) SubscribeInbound(handler func(msgs []models.InboundMessage)) func() {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.handlers[id] = handler
	return func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		delete(c.handlers, id)
	}
}

func (c *Client) invoke(ctx context.Context, action string, params any) (json.RawMessage, error) {
	echo := strconv.FormatUint(c.echo.Inc(), 10)
	ch := make(chan *responseFrame, 1)

	c.pendingMu.Lock()
	c.pending[echo] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, echo)
		c.pendingMu.Unlock()
	}()

	frame := actionFrame{Action: action, Params: params, Echo: echo}
	c.connMu.Lock()
	conn := c.conn
	var err error
	if conn == nil {
		err = fmt.Errorf("transport not connected")
	} else {
		err = conn.WriteJSON(frame)
	}
	c.connMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case resp := <-ch:
		if resp.Status == "failed" || resp.RetCode != 0 {
			return nil, fmt.Errorf("%s: gateway returned %s (retcode=%d): %s", action, resp.Status, resp.RetCode, resp.Message)
		}
		return resp.Data, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", action, ctx.Err())
	}
}

func (c *Client) CurrentIdentity(ctx context.Context) (string, error) {
	data, err := c.invoke(ctx, "get_login_info", nil)
	if err != nil {
		return "", err
	}
	var info loginInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("get_login_info: %w", err)
	}
	if info.UserId == "" {
		return "", fmt.Errorf("get_login_info: empty user id")
	}
	return info.UserId, nil
}

// ResolveUid maps a friend uin to its transport-level uid. Results are
// memoized; a cache miss falls through to the gateway transparently.
func (c *Client) ResolveUid(ctx context.Context, uin string) (string, bool) {
	if uin == "" {
		return "", false
	}
	if cached, ok := c.cache.Get("uid:" + uin); ok {
		return string(cached), true
	}

	data, err := c.invoke(ctx, "get_user_id", resolveParams{UserId: uin})
	if err != nil {
		c.logger.Warnf(providers.TypeApp, "uid resolution for %s failed: %s", uin, err)
		return "", false
	}
	var res resolveResult
	if err := json.Unmarshal(data, &res); err != nil || res.ResolvedId == "" {
		return "", false
	}

	c.cache.Set("uid:"+uin, []byte(res.ResolvedId))
	return res.ResolvedId, true
}

func (c *Client) SendDirectMessage(ctx context.Context, uin, text string) error {
	uid, ok := c.ResolveUid(ctx, uin)
	if !ok {
		return fmt.Errorf("send to %s: %w", uin, interfaces.ErrUnresolvedIdentity)
	}

	_, err := c.invoke(ctx, "send_private_msg", sendParams{UserId: uid, Text: text})
	return err
}

func (c *Client) FetchRecentPrivateHistory(ctx context.Context, uin string, limit int) ([]models.HistoryMessage, error) {
	uid, ok := c.ResolveUid(ctx, uin)
	if !ok {
		return nil, fmt.Errorf("history for %s: %w", uin, interfaces.ErrUnresolvedIdentity)
	}

	data, err := c.invoke(ctx, "get_private_history", historyParams{UserId: uid, Limit: limit})
	if err != nil {
		return nil, err
	}

	var res historyResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("get_private_history: %w", err)
	}

	msgs := make([]models.HistoryMessage, 0, len(res.Messages))
	for _, m := range res.Messages {
		msgs = append(msgs, models.HistoryMessage{SenderUin: m.SenderId, Time: m.Time})
	}
	return msgs, nil
}
