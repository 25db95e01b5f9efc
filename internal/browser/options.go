package browser

import (
	"os"
	"path/filepath"
)

// Options controls how a broker session launches its browser. All values
// come from the environment so a deployment can flip between headless,
// persistent-profile, and CDP-attach modes without a rebuild.
type Options struct {
	Headless           bool
	Persistent         bool
	StorageDir         string
	UserDataDir        string
	RemoteDebuggingURL string
	Proxy              string
	Locale             string
	Timezone           string
	Channel            string
}

// OptionsFromEnv resolves browser options for one broker. The profile
// directory defaults to a per-broker subdirectory of the storage dir so
// two runners never share mutable profile state.
func OptionsFromEnv(brokerKey string) Options {
	storageDir := envOr("PLAYWRIGHT_STORAGE_DIR", ".playwright")
	userDataDir := os.Getenv("PLAYWRIGHT_USER_DATA_DIR")
	if userDataDir == "" {
		userDataDir = filepath.Join(storageDir, brokerKey+"-profile")
	}
	return Options{
		Headless:           os.Getenv("PLAYWRIGHT_HEADLESS") != "0",
		Persistent:         os.Getenv("PLAYWRIGHT_PERSISTENT") != "0",
		StorageDir:         storageDir,
		UserDataDir:        userDataDir,
		RemoteDebuggingURL: os.Getenv("CHROME_REMOTE_DEBUGGING_URL"),
		Proxy:              os.Getenv("PROXY_SERVER"),
		Locale:             envOr("LOCALE", "pt-BR"),
		Timezone:           envOr("TIMEZONE", "America/Sao_Paulo"),
		Channel:            envOr("PLAYWRIGHT_CHANNEL", "chromium"),
	}
}

// ScreenshotDir is where diagnostic screenshots land.
func (o Options) ScreenshotDir() string {
	return filepath.Join(o.StorageDir, "screenshots")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
