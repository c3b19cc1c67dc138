package webhook

import (
	"context"

	"github.com/bingospaces/gatekeeper/internal/store"
	"github.com/bingospaces/gatekeeper/params"
)

// ReplayGuard remembers webhook ids for the signature tolerance window so a
// replayed delivery cannot trigger a second email.
type ReplayGuard struct {
	storage store.Storage
}

func NewReplayGuard(storage store.Storage) *ReplayGuard {
	return &ReplayGuard{
		storage: store.StorageWithPrefix(storage, params.ReplayKeyPrefix),
	}
}

// Seen marks webhookID as processed and reports whether it already was.
func (g *ReplayGuard) Seen(ctx context.Context, webhookID string) (bool, error) {
	stored, err := g.storage.SetNX(ctx, webhookID, true, params.WebhookReplayTTL)
	if err != nil {
		return false, err
	}
	return !stored, nil
}

// Forget releases webhookID so the sender's retry of the same delivery is
// processed again. Called when handling failed after Seen claimed the id;
// a 500 response promises the retry will be honored.
func (g *ReplayGuard) Forget(ctx context.Context, webhookID string) error {
	return g.storage.Delete(ctx, webhookID)
}
