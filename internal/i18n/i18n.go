// Package i18n provides message catalogs for user-facing labels.
//
// Catalogs are embedded YAML files keyed by message ID. English is always
// loaded as the base catalog; other locales overlay it, so missing keys
// fall back to English and, failing that, to the key itself.
package i18n

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	mu       sync.RWMutex
	messages map[string]string
	locale   string
)

// Init loads the catalog for loc. Safe to call repeatedly; re-initializing
// with the same locale is a no-op.
func Init(loc string) error {
	if loc == "" {
		loc = "en"
	}

	mu.Lock()
	defer mu.Unlock()

	if messages != nil && locale == loc {
		return nil
	}

	base, err := loadCatalog("en")
	if err != nil {
		return fmt.Errorf("loading base catalog: %w", err)
	}

	if loc != "en" {
		overlay, err := loadCatalog(loc)
		if err != nil {
			return fmt.Errorf("loading catalog %q: %w", loc, err)
		}
		for k, v := range overlay {
			base[k] = v
		}
	}

	messages = base
	locale = loc
	return nil
}

// Locale returns the active locale, or "" before Init.
func Locale() string {
	mu.RLock()
	defer mu.RUnlock()
	return locale
}

// T returns the message for key, formatted with args when given. Unknown
// keys return the key itself so missing translations stay visible.
func T(key string, args ...any) string {
	mu.RLock()
	msg, ok := messages[key]
	mu.RUnlock()

	if !ok {
		msg = key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

func loadCatalog(loc string) (map[string]string, error) {
	data, err := localeFS.ReadFile("locales/" + loc + ".yaml")
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]string)
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}
