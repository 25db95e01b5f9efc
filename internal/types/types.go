package types

// Side is the direction of a binary-options order.
type Side string

const (
	SideCall Side = "CALL"
	SidePut  Side = "PUT"
)

// AllowedExpirations are the expiration windows the platforms expose as
// quick presets. Anything else is rejected before the browser is touched.
var AllowedExpirations = []int{30, 60, 120}

// Credentials for a broker login. Either field may be empty, in which case
// the runner falls back to the broker's <PREFIX>_EMAIL / <PREFIX>_PASSWORD
// environment variables.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Empty() bool { return c.Email == "" && c.Password == "" }

// OrderRequest describes one timed buy/sell order.
type OrderRequest struct {
	Side          Side    `json:"side"`
	Stake         float64 `json:"stake"`
	ExpirationSec int     `json:"expiration_sec"`
}

// OrderResult echoes the parameters the runner submitted. The runner does
// not wait for the trade to settle; win/loss is observed later through
// balance polling.
type OrderResult struct {
	Accepted      bool    `json:"accepted"`
	Side          Side    `json:"side"`
	Stake         float64 `json:"stake"`
	ExpirationSec int     `json:"expirationSeconds"`
}

// LoginOutcome reports how a login attempt ended.
type LoginOutcome struct {
	Success       bool   `json:"success"`
	ReachedURL    string `json:"reachedUrl"`
	FailureReason string `json:"failureReason,omitempty"`
}
