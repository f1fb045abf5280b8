package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// DefaultConfigFile is the configuration path used when --config is not given.
const DefaultConfigFile = "blogbuilder.yaml"

// Config is the complete blogbuilder configuration. A Config is not modified
// once a build starts; components receive the sections they need by value.
type Config struct {
	Site     SiteMetadata   `yaml:"site"`
	Content  ContentConfig  `yaml:"content"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Feed     FeedConfig     `yaml:"feed"`
	Output   OutputConfig   `yaml:"output"`
	Build    BuildConfig    `yaml:"build"`
}

// SiteMetadata is the site-wide identity shown in layouts and feeds.
type SiteMetadata struct {
	Title         string `yaml:"title"`
	Description   string `yaml:"description,omitempty"`
	URL           string `yaml:"url"`
	Author        string `yaml:"author,omitempty"`
	AuthorTagline string `yaml:"author_tagline,omitempty"`
	Social        Social `yaml:"social,omitempty"`
}

// Social holds the author's handles, without a leading @.
type Social struct {
	Twitter string `yaml:"twitter,omitempty"`
	GitHub  string `yaml:"github,omitempty"`
}

// BaseURL returns the site URL without a trailing slash.
func (m SiteMetadata) BaseURL() string {
	return strings.TrimRight(m.URL, "/")
}

// AbsoluteURL joins route onto the site URL.
func (m SiteMetadata) AbsoluteURL(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return m.BaseURL() + route
}

// TwitterURL returns the profile link for the configured handle, or "".
func (m SiteMetadata) TwitterURL() string {
	if m.Social.Twitter == "" {
		return ""
	}
	return "https://twitter.com/" + strings.TrimPrefix(m.Social.Twitter, "@")
}

// GitHubURL returns the profile link for the configured handle, or "".
func (m SiteMetadata) GitHubURL() string {
	if m.Social.GitHub == "" {
		return ""
	}
	return "https://github.com/" + m.Social.GitHub
}

// ContentConfig locates source documents.
type ContentConfig struct {
	Dir           string `yaml:"dir"`
	StaticDir     string `yaml:"static_dir,omitempty"`
	IncludeDrafts bool   `yaml:"include_drafts"`
	// ExcerptLength is the number of plain-text characters used when a post has no description.
	ExcerptLength int `yaml:"excerpt_length"`
}

// MarkdownConfig drives the Markdown pass chain.
type MarkdownConfig struct {
	WordsPerMinute     int         `yaml:"words_per_minute"`
	CodeTitleClass     string      `yaml:"code_title_class"`
	ImageMaxWidth      int         `yaml:"image_max_width"`
	ShowCaptions       bool        `yaml:"show_captions"`
	Tweet              TweetConfig `yaml:"tweet"`
	IframeWrapperStyle string      `yaml:"iframe_wrapper_style"`
	HighlightStyle     string      `yaml:"highlight_style"`
}

// TweetConfig controls static tweet embeds.
type TweetConfig struct {
	Align      string `yaml:"align"`
	Theme      string `yaml:"theme"`
	HideThread bool   `yaml:"hide_thread"`
}

// FeedConfig controls syndication output.
type FeedConfig struct {
	Path     string `yaml:"path"`
	AtomPath string `yaml:"atom_path,omitempty"`
	// Limit caps the number of items; 0 means all posts.
	Limit int `yaml:"limit,omitempty"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory     string `yaml:"directory"`
	MaxImageWidth int    `yaml:"max_image_width"`
	Sitemap       bool   `yaml:"sitemap"`
}

// BuildConfig holds driver settings.
type BuildConfig struct {
	Concurrency int    `yaml:"concurrency"`
	ReportFile  string `yaml:"report_file"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
	HistoryDB   string `yaml:"history_db,omitempty"`
}

// Load reads, expands and validates the configuration at configPath.
// ${VAR} references are expanded after .env files have been loaded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults, normalizes and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Site = SiteMetadata{
		Title:         "Intelligible Babble",
		Description:   "Notes on software, written down so I stop forgetting them.",
		URL:           "https://example.com",
		Author:        "Your Name",
		AuthorTagline: "Writes code, occasionally prose.",
		Social:        Social{Twitter: "yourhandle", GitHub: "yourhandle"},
	}
	example.Build.HistoryDB = ".blogbuilder/history.db"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.FileSystemError(err, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
