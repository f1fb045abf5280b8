package config

import "strings"

// Default returns a configuration with every optional setting filled in.
// Load decodes the user's file on top of it, so absent keys keep these values.
func Default() *Config {
	return &Config{
		Content: ContentConfig{
			Dir:           "content",
			StaticDir:     "static",
			ExcerptLength: 140,
		},
		Markdown: MarkdownConfig{
			WordsPerMinute: 200,
			CodeTitleClass: "remark-code-title",
			ImageMaxWidth:  590,
			ShowCaptions:   true,
			Tweet: TweetConfig{
				Align: "center",
				Theme: "dark",
			},
			IframeWrapperStyle: "margin-bottom: 1.0725rem",
			HighlightStyle:     "github",
		},
		Feed: FeedConfig{
			Path: "/rss.xml",
		},
		Output: OutputConfig{
			Directory:     "public",
			MaxImageWidth: 1180,
			Sitemap:       true,
		},
		Build: BuildConfig{
			Concurrency: 4,
			ReportFile:  "build-report.json",
		},
	}
}

// normalize repairs values a user can plausibly get slightly wrong.
func (c *Config) normalize() {
	c.Site.Social.Twitter = strings.TrimPrefix(strings.TrimSpace(c.Site.Social.Twitter), "@")
	c.Site.Social.GitHub = strings.TrimSpace(c.Site.Social.GitHub)
	c.Markdown.Tweet.Align = strings.ToLower(c.Markdown.Tweet.Align)
	c.Markdown.Tweet.Theme = strings.ToLower(c.Markdown.Tweet.Theme)

	if c.Build.Concurrency <= 0 {
		c.Build.Concurrency = 1
	}
	if c.Feed.Path != "" && !strings.HasPrefix(c.Feed.Path, "/") {
		c.Feed.Path = "/" + c.Feed.Path
	}
	if c.Feed.AtomPath != "" && !strings.HasPrefix(c.Feed.AtomPath, "/") {
		c.Feed.AtomPath = "/" + c.Feed.AtomPath
	}
}
