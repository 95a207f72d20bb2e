// Package i18n translates console messages from embedded locale files.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"path"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

// Translator maps a message id plus template values to display text.
type Translator struct {
	bundle        *goi18n.Bundle
	defaultLocale string
}

// New loads every embedded locale. English is the fallback language.
func New(defaultLocale string) (*Translator, error) {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", e.Name(), err)
		}
	}
	return &Translator{bundle: bundle, defaultLocale: defaultLocale}, nil
}

// Locales lists the loaded language tags.
func (t *Translator) Locales() []string {
	tags := t.bundle.LanguageTags()
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.String()
	}
	return out
}

// WithLocale returns ctx carrying locale (e.g. "vi", "en").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext returns the context locale or the translator default.
func (t *Translator) LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return t.defaultLocale
}

// T translates id for the context locale. Unknown ids come back unchanged.
func (t *Translator) T(ctx context.Context, id string, data ...map[string]interface{}) string {
	return t.Localize(t.LocaleFromContext(ctx), id, data...)
}

// Localize translates id for an explicit locale.
func (t *Translator) Localize(locale, id string, data ...map[string]interface{}) string {
	if t == nil {
		return id
	}
	l := goi18n.NewLocalizer(t.bundle, locale, t.defaultLocale)
	cfg := &goi18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 && data[0] != nil {
		cfg.TemplateData = data[0]
	}
	msg, err := l.Localize(cfg)
	if err != nil {
		return id
	}
	return msg
}
