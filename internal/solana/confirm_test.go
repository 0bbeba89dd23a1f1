package solana_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"solana-nft-mint/internal/solana"
	"solana-nft-mint/internal/solana/stub"
)

// fakeWS delivers a prepared notification, or closes the channel when notif
// is nil. With hold set the channel stays open until unsubscribed.
type fakeWS struct {
	notif *solana.SignatureNotification
	err   error
	hold  bool

	mu           sync.Mutex
	subscribed   []<-chan solana.SignatureNotification
	unsubscribed []<-chan solana.SignatureNotification
}

func (f *fakeWS) SubscribeSignature(_ context.Context, _ solana.Signature, _ solana.Commitment) (<-chan solana.SignatureNotification, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan solana.SignatureNotification, 1)
	if f.notif != nil {
		ch <- *f.notif
	}
	if !f.hold {
		close(ch)
	}
	f.mu.Lock()
	f.subscribed = append(f.subscribed, ch)
	f.mu.Unlock()
	return ch, nil
}

func (f *fakeWS) Unsubscribe(ch <-chan solana.SignatureNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, ch)
	return nil
}

func (f *fakeWS) Close() error { return nil }

func TestConfirmer_PollsUntilCommitment(t *testing.T) {
	rpc := stub.NewRPCClient()
	sig := solana.Signature{1}
	rpc.SetStatus(sig, &solana.SignatureStatus{Slot: 1, ConfirmationStatus: solana.CommitmentProcessed})

	go func() {
		time.Sleep(30 * time.Millisecond)
		rpc.SetStatus(sig, &solana.SignatureStatus{Slot: 2, ConfirmationStatus: solana.CommitmentConfirmed})
	}()

	c := solana.NewConfirmer(rpc, solana.WithPollInterval(5*time.Millisecond))
	if err := c.Confirm(context.Background(), sig); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
}

func TestConfirmer_TransactionError(t *testing.T) {
	rpc := stub.NewRPCClient()
	sig := solana.Signature{2}
	rpc.Statuses[sig] = &solana.SignatureStatus{
		Slot:               1,
		Err:                map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
		ConfirmationStatus: solana.CommitmentConfirmed,
	}

	c := solana.NewConfirmer(rpc, solana.WithPollInterval(5*time.Millisecond))
	err := c.Confirm(context.Background(), sig)

	var txErr *solana.TransactionError
	if !errors.As(err, &txErr) {
		t.Fatalf("expected TransactionError, got %v", err)
	}
	if txErr.Signature != sig {
		t.Errorf("unexpected signature %s", txErr.Signature)
	}
}

func TestConfirmer_WebsocketNotification(t *testing.T) {
	rpc := stub.NewRPCClient()
	ws := &fakeWS{notif: &solana.SignatureNotification{Slot: 9}}

	c := solana.NewConfirmer(rpc,
		solana.WithWSClient(ws),
		solana.WithPollInterval(time.Hour),
		solana.WithCommitment(solana.CommitmentFinalized),
	)
	if err := c.Confirm(context.Background(), solana.Signature{3}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
}

func TestConfirmer_WebsocketFailureFallsBackToPolling(t *testing.T) {
	rpc := stub.NewRPCClient()
	sig := solana.Signature{4}
	rpc.Statuses[sig] = &solana.SignatureStatus{ConfirmationStatus: solana.CommitmentFinalized}

	c := solana.NewConfirmer(rpc,
		solana.WithWSClient(&fakeWS{err: solana.ErrWSClosed}),
		solana.WithPollInterval(5*time.Millisecond),
	)
	if err := c.Confirm(context.Background(), sig); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
}

func TestConfirmer_Timeout(t *testing.T) {
	rpc := stub.NewRPCClient()

	c := solana.NewConfirmer(rpc,
		solana.WithWSClient(&fakeWS{}),
		solana.WithPollInterval(5*time.Millisecond),
		solana.WithConfirmTimeout(30*time.Millisecond),
	)
	err := c.Confirm(context.Background(), solana.Signature{5})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestConfirmer_UnsubscribesAfterPolling(t *testing.T) {
	rpc := stub.NewRPCClient()
	sig := solana.Signature{6}
	rpc.Statuses[sig] = &solana.SignatureStatus{ConfirmationStatus: solana.CommitmentConfirmed}
	ws := &fakeWS{hold: true}

	c := solana.NewConfirmer(rpc,
		solana.WithWSClient(ws),
		solana.WithPollInterval(5*time.Millisecond),
	)
	if err := c.Confirm(context.Background(), sig); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if len(ws.subscribed) != 1 || len(ws.unsubscribed) != 1 {
		t.Fatalf("expected one subscribe and one unsubscribe, got %d and %d", len(ws.subscribed), len(ws.unsubscribed))
	}
	if ws.unsubscribed[0] != ws.subscribed[0] {
		t.Error("unsubscribed a different channel")
	}
}

func TestConfirmer_UnsubscribesOnTimeout(t *testing.T) {
	ws := &fakeWS{hold: true}

	c := solana.NewConfirmer(stub.NewRPCClient(),
		solana.WithWSClient(ws),
		solana.WithPollInterval(5*time.Millisecond),
		solana.WithConfirmTimeout(30*time.Millisecond),
	)
	if err := c.Confirm(context.Background(), solana.Signature{7}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if len(ws.unsubscribed) != 1 {
		t.Errorf("expected subscription dropped on timeout, got %d unsubscribes", len(ws.unsubscribed))
	}
}
