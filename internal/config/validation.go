package config

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var rootedPath = regexp.MustCompile(`^/[^\s]*$`)

// Validate reports every invalid setting at once, keyed by section.
func (c *Config) Validate() error {
	return validation.Errors{
		"site":     c.Site.validate(),
		"content":  c.validateContent(),
		"markdown": c.validateMarkdown(),
		"feed":     c.validateFeed(),
		"output":   c.validateOutput(),
		"build":    validation.ValidateStruct(&c.Build, validation.Field(&c.Build.Concurrency, validation.Min(1))),
	}.Filter()
}

func (m *SiteMetadata) validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Title, validation.Required.Error("site title is required")),
		validation.Field(&m.URL,
			validation.Required.Error("site url is required"),
			is.URL.Error("site url must be an absolute URL"),
		),
	)
}

func (c *Config) validateContent() error {
	return validation.ValidateStruct(&c.Content,
		validation.Field(&c.Content.Dir, validation.Required),
		validation.Field(&c.Content.ExcerptLength, validation.Min(1)),
	)
}

func (c *Config) validateMarkdown() error {
	md := &c.Markdown
	errs := validation.Errors{}
	if err := validation.ValidateStruct(md,
		validation.Field(&md.WordsPerMinute, validation.Required, validation.Min(1)),
		validation.Field(&md.ImageMaxWidth, validation.Min(0)),
	); err != nil {
		return err
	}
	if err := validation.Validate(md.Tweet.Align, validation.In("left", "center", "right")); err != nil {
		errs["tweet.align"] = err
	}
	if err := validation.Validate(md.Tweet.Theme, validation.In("light", "dark")); err != nil {
		errs["tweet.theme"] = err
	}
	return errs.Filter()
}

func (c *Config) validateFeed() error {
	return validation.ValidateStruct(&c.Feed,
		validation.Field(&c.Feed.Path, validation.Required, validation.Match(rootedPath)),
		validation.Field(&c.Feed.AtomPath, validation.Match(rootedPath)),
		validation.Field(&c.Feed.Limit, validation.Min(0)),
	)
}

func (c *Config) validateOutput() error {
	return validation.ValidateStruct(&c.Output,
		validation.Field(&c.Output.Directory, validation.Required),
		validation.Field(&c.Output.MaxImageWidth, validation.Min(0)),
	)
}
