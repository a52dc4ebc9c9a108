// Package locale resolves and persists the user's language preference.
package locale

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"quiz-platform/webclient/internal/platform/apierr"
	"quiz-platform/webclient/internal/storage"
)

var supported = []language.Tag{language.English, language.Ukrainian}

var matcher = language.NewMatcher(supported)

// Supported returns the supported language tags, default first.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Match returns the supported tag closest to value. ok is false when value is empty,
// unparsable, or has no reasonable match.
func Match(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Und, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

// Preference holds the persisted locale. Tag is served from memory after Load.
type Preference struct {
	store    storage.Store
	fallback language.Tag

	mu  sync.RWMutex
	tag language.Tag
}

// NewPreference returns a Preference backed by store. fallback is used when nothing valid is stored;
// an unsupported fallback becomes English.
func NewPreference(store storage.Store, fallback string) *Preference {
	fb, ok := Match(fallback)
	if !ok {
		fb = language.English
	}
	return &Preference{store: store, fallback: fb, tag: fb}
}

// Load reads the stored preference. Unknown stored values resolve to the fallback.
func (p *Preference) Load(ctx context.Context) (language.Tag, error) {
	v, ok, err := p.store.Get(ctx, storage.KeyLocale)
	if err != nil {
		return p.Tag(), fmt.Errorf("locale: load: %w", err)
	}
	tag := p.fallback
	if ok {
		if m, found := Match(v); found {
			tag = m
		} else {
			log.Printf("locale: ignoring unsupported stored locale %q", v)
		}
	}
	p.mu.Lock()
	p.tag = tag
	p.mu.Unlock()
	return tag, nil
}

// Set validates value against the supported locales and persists it.
func (p *Preference) Set(ctx context.Context, value string) (language.Tag, error) {
	tag, ok := Match(value)
	if !ok {
		return p.Tag(), apierr.Validation("locale", fmt.Sprintf("unsupported locale %q", value))
	}
	if err := p.store.Put(ctx, map[string]string{storage.KeyLocale: tag.String()}); err != nil {
		return p.Tag(), fmt.Errorf("locale: save: %w", err)
	}
	p.mu.Lock()
	p.tag = tag
	p.mu.Unlock()
	return tag, nil
}

// Tag returns the current locale.
func (p *Preference) Tag() language.Tag {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tag
}

// AcceptLanguage returns the value for the Accept-Language request header.
func (p *Preference) AcceptLanguage() string {
	return p.Tag().String()
}
