// internal/browser/allocator.go
package browser

import (
	"runtime"
	"sort"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/quickapply-cli/internal/config"
)

// allocatorFlags computes the command-line switches layered on top of
// chromedp's defaults. A false value removes the switch.
func allocatorFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":               cfg.Headless,
		"enable-automation":      false,
		"disable-blink-features": "AutomationControlled",
		"disable-extensions":     true,
		"disable-gpu":            cfg.Headless,
		"hide-scrollbars":        cfg.Headless,
		"mute-audio":             true,
		"window-size":            "1366,900",
		"disable-popup-blocking": true,
		"disable-features":       "Translate",
	}

	// Containers usually run Chrome as root without a usable /dev/shm.
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
		flags["disable-setuid-sandbox"] = true
	}

	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimLeft(parts[0], "-")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags[name] = parts[1]
		} else {
			flags[name] = true
		}
	}
	return flags
}

// DefaultAllocatorOptions assembles the exec allocator options for a local
// browser launch.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	flags := allocatorFlags(cfg)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}

	if dir := userDataDir(cfg); dir != "" {
		opts = append(opts, chromedp.UserDataDir(dir))
	}
	return opts
}

// userDataDir expands a configured profile directory. A persistent profile
// keeps the job site session logged in between runs.
func userDataDir(cfg config.BrowserConfig) string {
	if cfg.UserDataDir == "" {
		return ""
	}
	dir, err := homedir.Expand(cfg.UserDataDir)
	if err != nil {
		return cfg.UserDataDir
	}
	return dir
}
