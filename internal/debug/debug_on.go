//go:build debug

// Package debug provides categorized trace logging for navigation, providers
// and search. Build with -tags debug to enable it.
package debug

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Enabled indicates whether debug logging is active
const Enabled = true

// Category represents a debug logging category
type Category string

const (
	APP    Category = "APP"    // Browser operations and shell commands
	NAV    Category = "NAV"    // Session state transitions, back-stack
	FS     Category = "FS"     // Provider resolve/list calls
	SEARCH Category = "SEARCH" // Search lifecycle
	STORE  Category = "STORE"  // Preferences and grants
	VOLUME Category = "VOLUME" // Volume detection and switching
	CONFIG Category = "CONFIG" // Configuration loading

	// Verbose subcategories
	FS_ENTRY    Category = "FS_ENTRY"    // Individual child entries
	SEARCH_WALK Category = "SEARCH_WALK" // Per-directory traversal steps
)

var (
	enabledCategories = map[Category]bool{
		APP:    true,
		NAV:    true,
		FS:     true,
		SEARCH: true,
		STORE:  true,
		VOLUME: true,
		CONFIG: true,

		FS_ENTRY:    false,
		SEARCH_WALK: false,
	}
	categoryMu sync.RWMutex

	logger *zap.SugaredLogger
)

func init() {
	l, err := zap.NewDevelopment(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	logger = l.Named("debug").Sugar()

	// SHELF_DEBUG=NAV,SEARCH or SHELF_DEBUG=all or SHELF_DEBUG=none
	env := os.Getenv("SHELF_DEBUG")
	if env == "" {
		return
	}

	categoryMu.Lock()
	defer categoryMu.Unlock()

	env = strings.ToUpper(env)
	switch env {
	case "ALL":
		for cat := range enabledCategories {
			enabledCategories[cat] = true
		}
	case "NONE":
		for cat := range enabledCategories {
			enabledCategories[cat] = false
		}
	default:
		for cat := range enabledCategories {
			enabledCategories[cat] = false
		}
		for _, cat := range strings.Split(env, ",") {
			enabledCategories[Category(strings.TrimSpace(cat))] = true
		}
	}
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	categoryMu.RLock()
	enabled := enabledCategories[cat]
	categoryMu.RUnlock()

	if !enabled {
		return
	}
	logger.With("category", string(cat)).Debugf(format, args...)
}

// Enable enables a debug category
func Enable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = true
	categoryMu.Unlock()
}

// Disable disables a debug category
func Disable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = false
	categoryMu.Unlock()
}

// IsEnabled returns whether a category is enabled
func IsEnabled(cat Category) bool {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	return enabledCategories[cat]
}

// EnableAll enables all debug categories including verbose ones
func EnableAll() {
	categoryMu.Lock()
	for cat := range enabledCategories {
		enabledCategories[cat] = true
	}
	categoryMu.Unlock()
}
