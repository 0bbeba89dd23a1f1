package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrWSClosed is returned when subscribing on a closed or disconnected client.
var ErrWSClosed = errors.New("websocket client closed")

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription id.
	SubscribeTimeout time.Duration
	// Logger receives connection errors. Nil disables logging.
	Logger *zap.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		PingInterval:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		SubscribeTimeout: 30 * time.Second,
	}
}

// WSClientImpl implements WSClient using gorilla/websocket.
//
// Signature subscriptions are one-shot: the node sends a single notification
// and drops the subscription. A lost connection is not re-established; all
// open subscription channels are closed and callers fall back to polling.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *zap.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to channel
	subs   map[int64]chan SignatureNotification
	subsMu sync.Mutex

	// pendingSubs maps request ID to channel waiting for the notification channel
	pendingSubs   map[uint64]chan chan SignatureNotification
	pendingSubsMu sync.Mutex

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

var _ WSClient = (*WSClientImpl)(nil)

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		logger:      logger.Named("ws"),
		subs:        make(map[int64]chan SignatureNotification),
		pendingSubs: make(map[uint64]chan chan SignatureNotification),
		done:        make(chan struct{}),
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})
	c.conn = conn

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// SubscribeSignature subscribes to the confirmation of a single signature.
func (c *WSClientImpl) SubscribeSignature(ctx context.Context, sig Signature, commitment Commitment) (<-chan SignatureNotification, error) {
	if c.closed.Load() {
		return nil, ErrWSClosed
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			sig.String(),
			commitmentConfig(commitment),
		},
	}

	confirmCh := make(chan chan SignatureNotification, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = confirmCh
	c.pendingSubsMu.Unlock()

	dropPending := func() {
		c.pendingSubsMu.Lock()
		delete(c.pendingSubs, reqID)
		c.pendingSubsMu.Unlock()
	}

	c.connMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()
	if err != nil {
		dropPending()
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case ch, ok := <-confirmCh:
		if !ok {
			return nil, ErrWSClosed
		}
		return ch, nil
	case <-time.After(c.config.SubscribeTimeout):
		dropPending()
		return nil, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		select {
		case ch, ok := <-confirmCh:
			if ok {
				return ch, nil
			}
		default:
		}
		return nil, ErrWSClosed
	case <-ctx.Done():
		dropPending()
		return nil, ctx.Err()
	}
}

// Unsubscribe implements WSClient.
func (c *WSClientImpl) Unsubscribe(ch <-chan SignatureNotification) error {
	var subID int64
	found := false

	c.subsMu.Lock()
	for id, sub := range c.subs {
		if sub == ch {
			subID, found = id, true
			delete(c.subs, id)
			close(sub)
			break
		}
	}
	c.subsMu.Unlock()
	if !found || c.closed.Load() {
		return nil
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "signatureUnsubscribe",
		Params:  []interface{}{subID},
	}
	c.connMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()
	if err != nil {
		return fmt.Errorf("write unsubscribe: %w", err)
	}
	return nil
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.shutdown()

	c.connMu.Lock()
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.connMu.Unlock()

	c.wg.Wait()
	return err
}

// shutdown stops background loops and closes every outstanding channel.
func (c *WSClientImpl) shutdown() {
	c.doneOnce.Do(func() {
		close(c.done)

		c.pendingSubsMu.Lock()
		for id, ch := range c.pendingSubs {
			close(ch)
			delete(c.pendingSubs, id)
		}
		c.pendingSubsMu.Unlock()

		c.subsMu.Lock()
		for id, ch := range c.subs {
			close(ch)
			delete(c.subs, id)
		}
		c.subsMu.Unlock()
	})
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	for {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.logger.Warn("connection lost", zap.Error(err))
				c.closed.Store(true)
				c.shutdown()
				c.connMu.Lock()
				c.conn.Close()
				c.connMu.Unlock()
			}
			return
		}
		c.handleMessage(message)
	}
}

// handleMessage processes incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.logger.Debug("unparseable message", zap.Error(err))
		return
	}

	switch {
	case env.Error != nil:
		c.logger.Warn("error response",
			zap.Uint64("id", env.ID),
			zap.Int("code", env.Error.Code),
			zap.String("message", env.Error.Message))
		c.pendingSubsMu.Lock()
		if ch, ok := c.pendingSubs[env.ID]; ok {
			delete(c.pendingSubs, env.ID)
			close(ch)
		}
		c.pendingSubsMu.Unlock()
	case env.Method == "signatureNotification":
		c.handleSignatureNotification(env.Params)
	case env.ID != 0 && len(env.Result) > 0:
		var subID int64
		if err := json.Unmarshal(env.Result, &subID); err != nil {
			return
		}
		c.handleSubscribeResponse(env.ID, subID)
	}
}

// handleSubscribeResponse registers the notification channel and releases the subscriber.
func (c *WSClientImpl) handleSubscribeResponse(reqID uint64, subID int64) {
	c.pendingSubsMu.Lock()
	ch, ok := c.pendingSubs[reqID]
	if ok {
		delete(c.pendingSubs, reqID)
	}
	c.pendingSubsMu.Unlock()
	if !ok {
		return
	}

	notifCh := make(chan SignatureNotification, 1)
	c.subsMu.Lock()
	c.subs[subID] = notifCh
	c.subsMu.Unlock()

	ch <- notifCh
}

// handleSignatureNotification delivers the notification and closes the channel.
func (c *WSClientImpl) handleSignatureNotification(params *wsNotificationParams) {
	if params == nil {
		return
	}

	c.subsMu.Lock()
	ch, ok := c.subs[params.Subscription]
	if ok {
		delete(c.subs, params.Subscription)
	}
	c.subsMu.Unlock()
	if !ok {
		return
	}

	notif := SignatureNotification{Err: params.Result.Value.Err}
	if params.Result.Context != nil {
		notif.Slot = params.Result.Context.Slot
	}
	ch <- notif
	close(ch)
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.connMu.Unlock()
			if err != nil {
				c.logger.Debug("ping failed", zap.Error(err))
			}
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsEnvelope covers subscribe responses, errors and notifications.
type wsEnvelope struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      uint64                `json:"id,omitempty"`
	Result  json.RawMessage       `json:"result,omitempty"`
	Error   *RPCError             `json:"error,omitempty"`
	Method  string                `json:"method,omitempty"`
	Params  *wsNotificationParams `json:"params,omitempty"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext       `json:"context"`
	Value   wsSignatureValue `json:"value"`
}

type wsContext struct {
	Slot uint64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}
