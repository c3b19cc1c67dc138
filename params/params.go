package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	HealthCheckServerAddr = ":3001" // health check server address

	ReplayKeyPrefix   = "wh:" // webhook replay guard keys
	DecisionKeyPrefix = "gd:" // cached gate decision keys

	RefreshLeadWindow   = 5 * time.Minute  // refresh credentials expiring within this window
	ProviderCallTimeout = 10 * time.Second // timeout for every outbound provider call

	CodeExchangeMaxAttempts    = 3               // total attempts for interactive code exchange
	CodeExchangeInitialBackoff = 1 * time.Second // doubles per retry: 1s, 2s

	MemberPageSize    = 50 // youtube members.list page size
	MemberPageCeiling = 50 // hard stop against a provider that never ends pagination

	WebhookTimestampTolerance = 5 * time.Minute // reject signed timestamps outside this skew
	WebhookReplayTTL          = 10 * time.Minute

	LinkStateExpiration  = 10 * time.Minute // signed oauth state token lifetime
	GateDecisionCacheTTL = 2 * time.Minute  // positive gate decisions only
)
