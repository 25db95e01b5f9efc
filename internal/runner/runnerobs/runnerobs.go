package runnerobs

import (
	"context"

	"atlas-broker-runner/internal/diag"
	"atlas-broker-runner/internal/interfaces"
	"atlas-broker-runner/internal/logger"
	"atlas-broker-runner/internal/trace"
	"atlas-broker-runner/internal/types"
)

// observableRunner wraps a Runner with observability (logging & tracing)
type observableRunner struct {
	broker string
	runner interfaces.Runner
}

// Compile-time interface check
var _ interfaces.Runner = (*observableRunner)(nil)

// Wrap wraps a runner with observability middleware
func Wrap(broker string, runner interfaces.Runner) interfaces.Runner {
	return &observableRunner{
		broker: broker,
		runner: runner,
	}
}

// Start launches the browser session with observability
func (or *observableRunner) Start(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "runner.Start")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting browser session", "broker", or.broker)

	err := or.runner.Start(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to start browser session", err, "broker", or.broker)
		return err
	}

	logger.InfoSkip(ctx, 1, "Browser session started", "broker", or.broker)
	return nil
}

// LoginIfNeeded authenticates with observability
func (or *observableRunner) LoginIfNeeded(ctx context.Context, creds types.Credentials) (types.LoginOutcome, error) {
	ctx, span := trace.StartSpan(ctx, "runner.LoginIfNeeded")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Logging in if needed", "broker", or.broker, "creds_provided", !creds.Empty())

	outcome, err := or.runner.LoginIfNeeded(ctx, creds)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Login failed", err, "broker", or.broker)
		return outcome, err
	}

	logger.InfoSkip(ctx, 1, "Login state resolved",
		"broker", or.broker,
		"success", outcome.Success,
		"url", outcome.ReachedURL,
	)
	return outcome, nil
}

// Balance reads the account balance with observability
func (or *observableRunner) Balance(ctx context.Context) (*float64, error) {
	ctx, span := trace.StartSpan(ctx, "runner.Balance")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Reading balance", "broker", or.broker)

	balance, err := or.runner.Balance(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to read balance", err, "broker", or.broker)
		return nil, err
	}

	if balance == nil {
		logger.DebugSkip(ctx, 1, "Balance unknown", "broker", or.broker)
	} else {
		logger.DebugSkip(ctx, 1, "Balance read", "broker", or.broker, "balance", *balance)
	}
	return balance, nil
}

// PlaceOrder submits an order with observability
func (or *observableRunner) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "runner.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"broker", or.broker,
		"side", req.Side,
		"stake", req.Stake,
		"expiration_sec", req.ExpirationSec,
	)

	result, err := or.runner.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"broker", or.broker,
			"side", req.Side,
			"stake", req.Stake,
		)
		return types.OrderResult{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed",
		"broker", or.broker,
		"side", result.Side,
		"stake", result.Stake,
		"accepted", result.Accepted,
	)
	return result, nil
}

// DebugProbe snapshots the page with observability
func (or *observableRunner) DebugProbe(ctx context.Context) (diag.Report, error) {
	ctx, span := trace.StartSpan(ctx, "runner.DebugProbe")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Running selector probe", "broker", or.broker)

	report, err := or.runner.DebugProbe(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Selector probe failed", err, "broker", or.broker)
		return diag.Report{}, err
	}

	logger.InfoSkip(ctx, 1, "Selector probe complete",
		"broker", or.broker,
		"logged_in", report.LoggedIn,
		"probes", len(report.Probes),
	)
	return report, nil
}

// Ready reports session liveness
func (or *observableRunner) Ready() bool {
	return or.runner.Ready()
}

// Close tears down the runner with observability
func (or *observableRunner) Close() {
	logger.Info(context.Background(), "Closing runner", "broker", or.broker)
	or.runner.Close()
}
