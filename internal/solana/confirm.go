package solana

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Confirmer waits for a submitted transaction to land.
type Confirmer interface {
	// Confirm blocks until sig reaches the configured commitment.
	// Returns *TransactionError if the transaction failed on chain.
	Confirm(ctx context.Context, sig Signature) error
}

// Default confirmation settings.
const (
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultConfirmTimeout = 90 * time.Second
)

// SignatureConfirmer confirms signatures through a websocket subscription
// when available, polling getSignatureStatuses in parallel.
type SignatureConfirmer struct {
	rpc          RPCClient
	ws           WSClient
	commitment   Commitment
	pollInterval time.Duration
	timeout      time.Duration
	logger       *zap.Logger
}

var _ Confirmer = (*SignatureConfirmer)(nil)

// ConfirmerOption configures SignatureConfirmer.
type ConfirmerOption func(*SignatureConfirmer)

// WithWSClient enables websocket notifications.
func WithWSClient(ws WSClient) ConfirmerOption {
	return func(c *SignatureConfirmer) {
		c.ws = ws
	}
}

// WithCommitment sets the target commitment.
func WithCommitment(commitment Commitment) ConfirmerOption {
	return func(c *SignatureConfirmer) {
		c.commitment = commitment
	}
}

// WithPollInterval sets the status polling interval.
func WithPollInterval(d time.Duration) ConfirmerOption {
	return func(c *SignatureConfirmer) {
		c.pollInterval = d
	}
}

// WithConfirmTimeout bounds how long Confirm waits.
func WithConfirmTimeout(d time.Duration) ConfirmerOption {
	return func(c *SignatureConfirmer) {
		c.timeout = d
	}
}

// WithConfirmLogger sets the logger.
func WithConfirmLogger(logger *zap.Logger) ConfirmerOption {
	return func(c *SignatureConfirmer) {
		c.logger = logger
	}
}

// NewConfirmer creates a confirmer backed by rpc.
func NewConfirmer(rpc RPCClient, opts ...ConfirmerOption) *SignatureConfirmer {
	c := &SignatureConfirmer{
		rpc:          rpc,
		commitment:   CommitmentConfirmed,
		pollInterval: DefaultPollInterval,
		timeout:      DefaultConfirmTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("confirm")
	return c
}

// Confirm implements Confirmer.
func (c *SignatureConfirmer) Confirm(ctx context.Context, sig Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var notifications <-chan SignatureNotification
	if c.ws != nil {
		ch, err := c.ws.SubscribeSignature(ctx, sig, c.commitment)
		if err != nil {
			c.logger.Debug("subscribe failed, polling only",
				zap.Stringer("signature", sig), zap.Error(err))
		} else {
			notifications = ch
			defer func() {
				if err := c.ws.Unsubscribe(ch); err != nil {
					c.logger.Debug("unsubscribe failed", zap.Stringer("signature", sig), zap.Error(err))
				}
			}()
		}
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		done, err := c.poll(ctx, sig)
		if done {
			return err
		}
		if err != nil {
			c.logger.Debug("status poll failed", zap.Stringer("signature", sig), zap.Error(err))
		}

		select {
		case notif, ok := <-notifications:
			if !ok {
				// connection dropped; keep polling
				notifications = nil
				continue
			}
			if notif.Err != nil {
				return &TransactionError{Signature: sig, Err: notif.Err}
			}
			return nil
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("confirm %s: %w", sig, ctx.Err())
		}
	}
}

// poll checks the signature status once. done is true when the outcome is final.
func (c *SignatureConfirmer) poll(ctx context.Context, sig Signature) (bool, error) {
	statuses, err := c.rpc.GetSignatureStatuses(ctx, sig)
	if err != nil {
		return false, err
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}
	status := statuses[0]
	if status.Err != nil {
		return true, &TransactionError{Signature: sig, Err: status.Err}
	}
	return status.Reached(c.commitment), nil
}
