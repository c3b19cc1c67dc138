package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bingospaces/gatekeeper/internal/oauth"
	"github.com/bingospaces/gatekeeper/model"
	"github.com/bingospaces/gatekeeper/params"
)

// RefreshOutcome is the per-candidate result of one sweep item. Exactly one
// of Refreshed/Skipped is true on success paths; both false means Error is set.
type RefreshOutcome struct {
	Provider  model.Provider `json:"provider"`
	UserID    string         `json:"userId"`
	Refreshed bool           `json:"refreshed"`
	Skipped   bool           `json:"skipped"`
	Error     string         `json:"error,omitempty"`
}

type SweepSummary struct {
	Total        int              `json:"total"`
	Refreshed    int              `json:"refreshed"`
	Skipped      int              `json:"skipped"`
	Failed       int              `json:"failed"`
	FailedTokens []RefreshOutcome `json:"failedTokens,omitempty"`
}

// Refresher renews soon-to-expire credentials ahead of gate evaluations.
// The sweep is sequential on purpose: one slow or failing provider call must
// never take the rest of the batch down with it, and there is no throughput
// pressure on a five-minute lead window.
type Refresher struct {
	store     CredentialStore
	providers map[model.Provider]oauth.Provider
	now       func() time.Time
}

func NewRefresher(store CredentialStore, providers []oauth.Provider) *Refresher {
	providerMap := make(map[model.Provider]oauth.Provider)
	for _, provider := range providers {
		providerMap[model.Provider(provider.Name())] = provider
	}
	return &Refresher{
		store:     store,
		providers: providerMap,
		now:       time.Now,
	}
}

// RunSweep finds due credentials and refreshes them one by one. The returned
// error is non-nil only when the sweep could not start at all (store
// unreachable); per-item failures land in the summary instead.
func (r *Refresher) RunSweep(ctx context.Context) (*SweepSummary, error) {
	due := r.now().Add(params.RefreshLeadWindow)
	records, err := r.store.ListDue(ctx, due)
	if err != nil {
		return nil, fmt.Errorf("list due credentials: %w", err)
	}

	summary := &SweepSummary{Total: len(records)}
	for _, record := range records {
		outcome := r.refreshOne(ctx, record)
		switch {
		case outcome.Refreshed:
			summary.Refreshed++
		case outcome.Skipped:
			summary.Skipped++
		default:
			summary.Failed++
			summary.FailedTokens = append(summary.FailedTokens, outcome)
			slog.Warn("Credential refresh failed",
				"provider", outcome.Provider, "user", outcome.UserID, "error", outcome.Error)
		}
	}
	slog.Info("Credential refresh sweep completed",
		"total", summary.Total, "refreshed", summary.Refreshed,
		"skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

func (r *Refresher) refreshOne(ctx context.Context, record *model.Credential) RefreshOutcome {
	outcome := RefreshOutcome{Provider: record.Provider, UserID: record.UserID}

	// No refresh token is the steady state for users who revoked consent,
	// not a failure.
	if record.RefreshToken == nil {
		outcome.Skipped = true
		return outcome
	}

	credential, err := r.store.Decrypt(record)
	if err != nil {
		outcome.Error = fmt.Sprintf("decrypt credential: %v", err)
		return outcome
	}
	if credential.RefreshToken == nil || *credential.RefreshToken == "" {
		outcome.Skipped = true
		return outcome
	}

	provider, ok := r.providers[record.Provider]
	if !ok {
		outcome.Error = fmt.Sprintf("no provider registered for %q", record.Provider)
		return outcome
	}

	token, err := provider.Refresh(ctx, *credential.RefreshToken)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	// Rotating providers hand back a fresh refresh token; keep the current
	// one when the response omitted it.
	nextRefresh := credential.RefreshToken
	if token.RefreshToken != "" {
		nextRefresh = &token.RefreshToken
	}
	err = r.store.Upsert(ctx, UpsertParams{
		UserID:       record.UserID,
		Provider:     record.Provider,
		AccessToken:  token.AccessToken,
		RefreshToken: nextRefresh,
		ExpiresAt:    token.ExpiresAt,
	})
	if err != nil {
		outcome.Error = fmt.Sprintf("store refreshed credential: %v", err)
		return outcome
	}
	outcome.Refreshed = true
	return outcome
}
