package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Initial pages to give to the crawler to begin discovering and traversing other pages.
	seedURLs []url.URL
	// Hosts treated as equivalent to the main host for link-filtering purposes.
	additionalHosts map[string]struct{}
	// mainHost is derived from the first seed URL.
	mainHost string

	//===============
	// Policy toggles
	//===============
	// FollowAll disables the rel="nofollow" drop rule.
	followAll bool
	// ContentOnly disables the raw-text regex extraction pass.
	contentOnly bool
	// PreserveQueryOrder disables alphabetical query-parameter sorting.
	preserveQueryOrder bool

	//===============
	// Politeness / retry
	//===============
	// Number of worker goroutines fetching concurrently.
	concurrency int
	// Maximum number of retry attempts for a transient or transport failure.
	maxRetries int
	// PreferredPort is injected into any same-host URL with an empty port;
	// empty when the seed had no non-default port.
	preferredPort string

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request.
	timeout time.Duration
	// User agent sent with every request.
	userAgent string

	//===============
	// Storage
	//===============
	// cacheDir holds the content-addressed response cache.
	cacheDir string
	// bodyDir, if set, holds raw response bodies alongside the cache.
	bodyDir string
	// extractorDir, if set, holds the extractor driver's per-URL output.
	extractorDir string
	// extractorBin, if set, is the path to the extractor child-process binary.
	extractorBin string

	//===============
	// Output
	//===============
	// badURLsFile, if set, is read for the companion bad-URLs tool.
	badURLsFile   string
	discoveredOut string
	failedOut     string
}

type configDTO struct {
	SeedURLs           []url.URL     `json:"seedUrls"`
	AdditionalHosts    []string      `json:"additionalHosts,omitempty"`
	FollowAll          bool          `json:"followAll,omitempty"`
	ContentOnly        bool          `json:"contentOnly,omitempty"`
	PreserveQueryOrder bool          `json:"preserveQueryOrder,omitempty"`
	Concurrency        int           `json:"concurrency,omitempty"`
	MaxRetries         int           `json:"maxRetries,omitempty"`
	Timeout            time.Duration `json:"timeout,omitempty"`
	UserAgent          string        `json:"userAgent,omitempty"`
	CacheDir           string        `json:"cacheDir,omitempty"`
	BodyDir            string        `json:"bodyDir,omitempty"`
	ExtractorDir       string        `json:"extractorDir,omitempty"`
	ExtractorBin       string        `json:"extractorBin,omitempty"`
	BadURLsFile        string        `json:"badUrlsFile,omitempty"`
	DiscoveredOut      string        `json:"discoveredOut,omitempty"`
	FailedOut          string        `json:"failedOut,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg, err := WithDefault(dto.SeedURLs).Build()
	if err != nil {
		return Config{}, err
	}

	if len(dto.AdditionalHosts) > 0 {
		hosts := make(map[string]struct{}, len(dto.AdditionalHosts))
		for _, h := range dto.AdditionalHosts {
			hosts[h] = struct{}{}
		}
		cfg.additionalHosts = hosts
	}

	// Booleans are DTO-as-is: the JSON document is the source of truth for
	// toggles, there is no meaningful "unset" bool to fall back from.
	cfg.followAll = dto.FollowAll
	cfg.contentOnly = dto.ContentOnly
	cfg.preserveQueryOrder = dto.PreserveQueryOrder

	if dto.Concurrency != 0 {
		cfg.concurrency = dto.Concurrency
	}
	if dto.MaxRetries != 0 {
		cfg.maxRetries = dto.MaxRetries
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.CacheDir != "" {
		cfg.cacheDir = dto.CacheDir
	}
	if dto.BodyDir != "" {
		cfg.bodyDir = dto.BodyDir
	}
	if dto.ExtractorDir != "" {
		cfg.extractorDir = dto.ExtractorDir
	}
	if dto.ExtractorBin != "" {
		cfg.extractorBin = dto.ExtractorBin
	}
	if dto.BadURLsFile != "" {
		cfg.badURLsFile = dto.BadURLsFile
	}
	if dto.DiscoveredOut != "" {
		cfg.discoveredOut = dto.DiscoveredOut
	}
	if dto.FailedOut != "" {
		cfg.failedOut = dto.FailedOut
	}

	return cfg, nil
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	if err := json.Unmarshal(configContent, &cfgDTO); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config with the provided seed URLs and default
// values for all other fields. seedUrls is mandatory and must not be empty -
// an error is returned from Build() if it is.
func WithDefault(seedUrls []url.URL) *Config {
	return &Config{
		seedURLs:           seedUrls,
		additionalHosts:    map[string]struct{}{},
		followAll:          false,
		contentOnly:        false,
		preserveQueryOrder: false,
		concurrency:        20,
		maxRetries:         3,
		timeout:            30 * time.Second,
		userAgent:          "webscout/1.0",
		cacheDir:           "cache",
		discoveredOut:      "discovered.txt",
		failedOut:          "failed.yaml",
	}
}

func (c *Config) WithSeedUrls(urls []url.URL) *Config {
	c.seedURLs = urls
	return c
}

func (c *Config) WithAdditionalHosts(hosts map[string]struct{}) *Config {
	c.additionalHosts = hosts
	return c
}

func (c *Config) WithFollowAll(v bool) *Config {
	c.followAll = v
	return c
}

func (c *Config) WithContentOnly(v bool) *Config {
	c.contentOnly = v
	return c
}

func (c *Config) WithPreserveQueryOrder(v bool) *Config {
	c.preserveQueryOrder = v
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithMaxRetries(retries int) *Config {
	c.maxRetries = retries
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithCacheDir(dir string) *Config {
	c.cacheDir = dir
	return c
}

func (c *Config) WithBodyDir(dir string) *Config {
	c.bodyDir = dir
	return c
}

func (c *Config) WithExtractorDir(dir string) *Config {
	c.extractorDir = dir
	return c
}

func (c *Config) WithExtractorBin(path string) *Config {
	c.extractorBin = path
	return c
}

func (c *Config) WithBadURLsFile(path string) *Config {
	c.badURLsFile = path
	return c
}

func (c *Config) WithDiscoveredOut(path string) *Config {
	c.discoveredOut = path
	return c
}

func (c *Config) WithFailedOut(path string) *Config {
	c.failedOut = path
	return c
}

func (c *Config) Build() (Config, error) {
	if len(c.seedURLs) == 0 {
		return Config{}, fmt.Errorf("%w: seedUrls cannot be empty", ErrInvalidConfig)
	}

	main := c.seedURLs[0]
	c.mainHost = main.Hostname()

	port := main.Port()
	switch {
	case port == "" || (main.Scheme == "http" && port == "80") || (main.Scheme == "https" && port == "443"):
		c.preferredPort = ""
	default:
		c.preferredPort = port
	}

	if c.additionalHosts == nil {
		c.additionalHosts = map[string]struct{}{}
	}

	return *c, nil
}

func (c Config) SeedURLs() []url.URL {
	urls := make([]url.URL, len(c.seedURLs))
	copy(urls, c.seedURLs)
	return urls
}

func (c Config) MainHost() string {
	return c.mainHost
}

func (c Config) AdditionalHosts() map[string]struct{} {
	hosts := make(map[string]struct{}, len(c.additionalHosts))
	for k, v := range c.additionalHosts {
		hosts[k] = v
	}
	return hosts
}

func (c Config) FollowAll() bool {
	return c.followAll
}

func (c Config) ContentOnly() bool {
	return c.contentOnly
}

func (c Config) PreserveQueryOrder() bool {
	return c.preserveQueryOrder
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) MaxRetries() int {
	return c.maxRetries
}

func (c Config) PreferredPort() string {
	return c.preferredPort
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) CacheDir() string {
	return c.cacheDir
}

func (c Config) BodyDir() string {
	return c.bodyDir
}

func (c Config) ExtractorDir() string {
	return c.extractorDir
}

func (c Config) ExtractorBin() string {
	return c.extractorBin
}

func (c Config) BadURLsFile() string {
	return c.badURLsFile
}

func (c Config) DiscoveredOut() string {
	return c.discoveredOut
}

func (c Config) FailedOut() string {
	return c.failedOut
}
