// Package i18n resolves localized message templates from YAML catalogs.
//
// Each catalog file is named after a BCP 47 tag (en.yaml, pt.yaml) and maps
// message keys to templates with positional placeholders {0}, {1}, ...
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/go-notify-api/internal/domain"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed messages/*.yaml
var embedded embed.FS

// Catalog holds the templates of every loaded locale.
type Catalog struct {
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

// NewCatalog loads the embedded catalogs. fallback is used when a key or a
// locale is missing; it must be one of the embedded locales.
func NewCatalog(fallback string) (*Catalog, error) {
	return Load(embedded, "messages", fallback)
}

// Load reads every *.yaml file in dir of fsys.
func Load(fsys fs.FS, dir, fallback string) (*Catalog, error) {
	fb, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("parse fallback locale %q: %w", fallback, err)
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	c := &Catalog{messages: make(map[language.Tag]map[string]string)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		tag, err := language.Parse(strings.TrimSuffix(e.Name(), ".yaml"))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", e.Name(), err)
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		msgs := map[string]string{}
		if err := yaml.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("decode catalog %s: %w", e.Name(), err)
		}
		c.messages[tag] = msgs
	}
	if _, ok := c.messages[fb]; !ok {
		return nil, fmt.Errorf("fallback locale %q has no catalog", fallback)
	}

	// The matcher prefers its first tag on a tie, so the fallback goes first.
	c.fallback = fb
	c.tags = append(c.tags, fb)
	for tag := range c.messages {
		if tag != fb {
			c.tags = append(c.tags, tag)
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Fallback returns the locale used when nothing better matches.
func (c *Catalog) Fallback() language.Tag {
	return c.fallback
}

// Match returns the supported locale closest to the given preferences.
func (c *Catalog) Match(prefs ...language.Tag) language.Tag {
	if len(prefs) == 0 {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(prefs...)
	if conf == language.No {
		return c.fallback
	}
	return c.tags[idx]
}

// GetMessage renders key for locale, substituting args into {n} placeholders.
// Keys missing from the matched locale are looked up in the fallback locale.
func (c *Catalog) GetMessage(key string, args []string, locale language.Tag) (string, error) {
	tmpl, ok := c.messages[c.Match(locale)][key]
	if !ok {
		tmpl, ok = c.messages[c.fallback][key]
	}
	if !ok {
		return "", fmt.Errorf("message %q: %w", key, domain.ErrMissingMessage)
	}
	return format(tmpl, args), nil
}

func format(tmpl string, args []string) string {
	if len(args) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(args)*2)
	for i, a := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", a)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
