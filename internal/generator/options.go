package generator

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Kanary159357/orval/internal/lint"
	"github.com/Kanary159357/orval/internal/openapi"
)

// Transform rewrites the parsed document before generation.
type Transform func(*openapi.Document) (*openapi.Document, error)

// Option configures Generate.
type Option func(*config)

type config struct {
	name        string
	transform   Transform
	validator   lint.Validator
	logger      *slog.Logger
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	pathRes     []*regexp.Regexp
	err         error
}

func newConfig(opts []Option) *config {
	cfg := &config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithName sets the API name. It defaults to the document title.
func WithName(name string) Option {
	return func(c *config) { c.name = strings.TrimSpace(name) }
}

// WithTransform installs a hook run on the parsed document before any
// other step.
func WithTransform(fn Transform) Option {
	return func(c *config) { c.transform = fn }
}

// WithValidator enables advisory validation of the raw input.
func WithValidator(v lint.Validator) Option {
	return func(c *config) { c.validator = v }
}

// WithLogger sets the logger for progress and validation findings.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) Option {
	return func(c *config) { c.includeTags = addTags(c.includeTags, tags) }
}

// WithExcludeTags drops operations that have any of the given tags.
func WithExcludeTags(tags []string) Option {
	return func(c *config) { c.excludeTags = addTags(c.excludeTags, tags) }
}

// WithPathPatterns keeps only operations whose route matches at least one of
// the regular expressions. An invalid pattern fails Generate.
func WithPathPatterns(patterns []string) Option {
	return func(c *config) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				if c.err == nil {
					c.err = fmt.Errorf("invalid path pattern %q: %w", p, err)
				}
				continue
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// allow applies the tag and path filters.
func (c *config) allow(route string, op *openapi.Operation) bool {
	if len(c.pathRes) > 0 {
		matched := false
		for _, re := range c.pathRes {
			if re.MatchString(route) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range op.Tags {
			if _, yes := c.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range op.Tags {
		if _, blocked := c.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}
