package diag

import "testing"

const samplePage = `
<html>
  <body>
    <header>
      <div class="account-balance" data-testid="balance-amount">R$ 1.234,56</div>
    </header>
    <form action="/pt/sign-in">
      <input name="email" type="email">
      <input name="password" type="password">
    </form>
  </body>
</html>`

func TestInspectCountsMatches(t *testing.T) {
	table := map[string][]string{
		"balance": {
			`[data-testid*="balance"]`,
			`[class*="balance"]`,
		},
		"email_input": {
			`input[name="email"]`,
			`input[type="email"]`,
		},
	}

	probes, err := Inspect(samplePage, table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byKey := map[string]SelectorProbe{}
	for _, p := range probes {
		byKey[p.Role+"|"+p.Selector] = p
	}

	bal, ok := byKey[`balance|[data-testid*="balance"]`]
	if !ok {
		t.Fatal("expected a probe for the balance testid selector")
	}
	if bal.Matches != 1 {
		t.Errorf("expected 1 match, got %d", bal.Matches)
	}
	if bal.Sample != "R$ 1.234,56" {
		t.Errorf("expected sample text, got %q", bal.Sample)
	}

	email := byKey[`email_input|input[name="email"]`]
	if email.Matches != 1 {
		t.Errorf("expected email input to match, got %d", email.Matches)
	}
}

func TestInspectSkipsPlaywrightOnlySelectors(t *testing.T) {
	table := map[string][]string{
		"submit_button": {
			`button:has-text("Entrar")`,
			`text=/^60s$/i`,
			`button[type="submit"]`,
		},
	}

	probes, err := Inspect(samplePage, table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probes) != 1 {
		t.Fatalf("expected only the CSS-compatible selector to be probed, got %d", len(probes))
	}
	if probes[0].Selector != `button[type="submit"]` {
		t.Errorf("unexpected probed selector %q", probes[0].Selector)
	}
}

func TestInspectReportsZeroMatches(t *testing.T) {
	probes, err := Inspect(samplePage, map[string][]string{
		"stake_input": {`input[name*="amount" i]`},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probes) != 1 {
		t.Fatalf("expected one probe, got %d", len(probes))
	}
	if probes[0].Matches != 0 {
		t.Errorf("expected zero matches, got %d", probes[0].Matches)
	}
	if probes[0].Sample != "" {
		t.Errorf("expected empty sample for zero matches, got %q", probes[0].Sample)
	}
}
