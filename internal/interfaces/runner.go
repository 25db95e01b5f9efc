package interfaces

import (
	"context"

	"atlas-broker-runner/internal/diag"
	"atlas-broker-runner/internal/types"
)

// Runner drives one broker's web platform through a real browser session.
// Implementations own the session lifecycle; callers never touch the page.
type Runner interface {
	Start(ctx context.Context) error
	LoginIfNeeded(ctx context.Context, creds types.Credentials) (types.LoginOutcome, error)
	Balance(ctx context.Context) (*float64, error)
	PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error)
	DebugProbe(ctx context.Context) (diag.Report, error)
	Ready() bool
	Close()
}
