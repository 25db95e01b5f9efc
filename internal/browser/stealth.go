package browser

import (
	"github.com/playwright-community/playwright-go"
)

// desktopUserAgent is a realistic desktop Chrome identity. Fresh headless
// contexts ship with a HeadlessChrome UA, which brokers flag immediately.
const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// stealthScript overrides the read-only-looking navigator properties that
// default automation setups leave at telltale values, and injects a
// minimal chrome runtime object.
const stealthScript = `
	Object.defineProperty(navigator, 'language', { get: () => 'pt-BR' });
	Object.defineProperty(navigator, 'languages', { get: () => ['pt-BR', 'pt', 'en-US', 'en'] });
	Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 8 });
	Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
	Object.defineProperty(navigator, 'deviceMemory', { get: () => 8 });

	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });

	Object.defineProperty(window, 'chrome', {
		get: () => ({
			runtime: {},
			loadTimes: function() {},
			csi: function() {},
			app: {}
		})
	});

	try { delete window.navigator.__proto__.webdriver; } catch (e) {}
`

// persistentLaunchArgs are applied to headful persistent-profile windows.
var persistentLaunchArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-features=VizDisplayCompositor",
	"--disable-web-security",
	"--no-first-run",
	"--no-default-browser-check",
}

// headlessLaunchArgs keep the headless fallback stable inside containers.
var headlessLaunchArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
}

// applyStealth installs the anti-fingerprinting overrides as an init
// script, so they run before any broker page script.
func applyStealth(context playwright.BrowserContext) error {
	return context.AddInitScript(playwright.Script{
		Content: playwright.String(stealthScript),
	})
}
