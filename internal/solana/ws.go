package solana

import "context"

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature delivers one notification when the signature reaches
	// commitment, then closes the channel.
	SubscribeSignature(ctx context.Context, sig Signature, commitment Commitment) (<-chan SignatureNotification, error)

	// Unsubscribe drops a subscription that has not delivered yet and closes
	// its channel. Delivered or unknown channels are ignored.
	Unsubscribe(ch <-chan SignatureNotification) error

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification represents a signatureSubscribe message.
type SignatureNotification struct {
	Slot uint64
	Err  interface{}
}
