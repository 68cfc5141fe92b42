// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BaseLocale is the fallback locale for every lookup.
const BaseLocale = "en-US"

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// amountKeys are metadata keys rendered as grouped numbers for the locale.
var amountKeys = map[string]bool{
	"price":   true,
	"amount":  true,
	"balance": true,
}

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	tag      language.Tag
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	catalogs   = map[string]*Catalog{
		BaseLocale: NewCatalog(BaseLocale, enUS),
		"pt-BR":    NewCatalog("pt-BR", ptBR),
	}
)

// GetCatalog returns the catalog that best matches locale.
// Falls back to en-US when nothing matches.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}
	if c, ok := lookupCatalog(requested); ok {
		return c
	}

	catalogsMu.RLock()
	defer catalogsMu.RUnlock()

	tags := make([]language.Tag, 0, len(catalogs))
	available := make([]*Catalog, 0, len(catalogs))
	tags = append(tags, catalogs[BaseLocale].tag)
	available = append(available, catalogs[BaseLocale])
	for name, c := range catalogs {
		if name == BaseLocale {
			continue
		}
		tags = append(tags, c.tag)
		available = append(available, c)
	}

	desired, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(desired) == 0 {
		return catalogs[BaseLocale]
	}
	_, index, confidence := language.NewMatcher(tags).Match(desired...)
	if confidence == language.No {
		return catalogs[BaseLocale]
	}
	return available[index]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found, and to the raw
// template when it fails to parse or execute.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, c.localize(metadata)); err != nil {
		return tmpl
	}
	return buf.String()
}

// localize copies metadata, rendering amount values with the locale's digit
// grouping.
func (c *Catalog) localize(metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata))
	printer := message.NewPrinter(c.tag)
	for key, value := range metadata {
		if amountKeys[key] {
			if n, err := strconv.ParseUint(value, 10, 64); err == nil {
				out[key] = printer.Sprintf("%d", n)
				continue
			}
		}
		out[key] = value
	}
	return out
}

// RegisterCatalog registers a catalog for locale. Call it during init or test
// setup.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Catalog{
		locale:   locale,
		tag:      tag,
		messages: cloned,
	}
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}
