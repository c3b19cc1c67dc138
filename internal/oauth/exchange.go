package oauth

import (
	"context"
	"time"

	"github.com/bingospaces/gatekeeper/params"
)

// codeExchangeSchedule: 1s then 2s between the three interactive attempts.
var codeExchangeSchedule = BackoffSchedule{
	params.CodeExchangeInitialBackoff,
	2 * params.CodeExchangeInitialBackoff,
}

// Exchanger is the interactive code-exchange entry point used at login/link
// time. Transient transport failures are retried because a user is waiting on
// the other end; a rejected code fails fast without burning retry budget.
type Exchanger struct {
	providers map[string]Provider
}

func NewExchanger(providers []Provider) *Exchanger {
	providerMap := make(map[string]Provider)
	for _, provider := range providers {
		providerMap[provider.Name()] = provider
	}
	return &Exchanger{providers: providerMap}
}

func (e *Exchanger) Provider(name string) (Provider, error) {
	provider, ok := e.providers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return provider, nil
}

func (e *Exchanger) ExchangeCode(ctx context.Context, providerName string, code string) (*Token, error) {
	provider, err := e.Provider(providerName)
	if err != nil {
		return nil, err
	}
	var token *Token
	err = WithRetry(ctx, params.CodeExchangeMaxAttempts, codeExchangeSchedule, IsTransient,
		func(ctx context.Context) error {
			var exchangeErr error
			token, exchangeErr = provider.ExchangeCode(ctx, code)
			return exchangeErr
		})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// ExchangeDeadline bounds the whole interactive flow: all attempts plus
// backoff sleeps.
func ExchangeDeadline() time.Duration {
	total := time.Duration(params.CodeExchangeMaxAttempts) * params.ProviderCallTimeout
	for retry := 1; retry < params.CodeExchangeMaxAttempts; retry++ {
		total += codeExchangeSchedule.Delay(retry)
	}
	return total
}
