package runner

// Role names a semantic slot on a broker page. Runners never hardcode raw
// selectors at call sites; they ask for a role and the resolver walks the
// profile's candidate list, so selector drift means editing one table.
type Role string

const (
	RoleEmailInput        Role = "email_input"
	RolePasswordInput     Role = "password_input"
	RoleSubmitButton      Role = "submit_button"
	RoleStakeInput        Role = "stake_input"
	RoleExpirationControl Role = "expiration_control"
	RoleBalance           Role = "balance"
	RoleLoginForm         Role = "login_form"
	RoleLoggedInLandmark  Role = "logged_in_landmark"
)

// SelectorTable maps each role to its ordered candidate selectors. Earlier
// entries are the most specific; later entries are drift-tolerant fallbacks.
type SelectorTable map[Role][]string

// commonSelectors hold the candidates shared by every broker; per-broker
// profiles extend or override individual roles.
var commonSelectors = SelectorTable{
	RoleEmailInput: {
		`input[name="email"]`,
		`input[type="email"]`,
		`input[placeholder*="email" i]`,
		`input[placeholder*="e-mail" i]`,
		`input[id*="email" i]`,
		`input[class*="email" i]`,
		`input[autocomplete="email"]`,
	},
	RolePasswordInput: {
		`input[name="password"]`,
		`input[type="password"]`,
		`input[placeholder*="senha" i]`,
		`input[placeholder*="password" i]`,
		`input[id*="password" i]`,
		`input[class*="password" i]`,
		`input[autocomplete="current-password"]`,
	},
	RoleSubmitButton: {
		`button[type="submit"]`,
		`input[type="submit"]`,
		`button:has-text("Entrar")`,
		`button:has-text("Login")`,
		`button:has-text("Conectar")`,
		`[role="button"]:has-text("Entrar")`,
		`form button`,
	},
	RoleStakeInput: {
		`input[name*="amount" i]`,
		`input[aria-label*="amount" i]`,
		`[data-testid*="amount"]`,
		`input[type="number"]`,
	},
	RoleExpirationControl: {
		`[data-testid*="expiration"]`,
		`[class*="time" i]`,
	},
	RoleBalance: {
		`[data-testid*="balance"]`,
		`[class*="balance"]`,
	},
	RoleLoginForm: {
		`input[name="email"]`,
		`form[action*="sign-in"]`,
		`form[action*="login"]`,
	},
	RoleLoggedInLandmark: {
		`[data-testid*="balance"]`,
		`[class*="balance"]`,
		`header`,
	},
}

// merge returns a copy of commonSelectors with the overrides applied.
func (t SelectorTable) merge(overrides SelectorTable) SelectorTable {
	out := make(SelectorTable, len(t)+len(overrides))
	for role, sels := range t {
		out[role] = sels
	}
	for role, sels := range overrides {
		out[role] = sels
	}
	return out
}
