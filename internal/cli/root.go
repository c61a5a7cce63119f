package cmd

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dnovak/webscout/internal/build"
	"github.com/dnovak/webscout/internal/cache"
	"github.com/dnovak/webscout/internal/config"
	"github.com/dnovak/webscout/internal/engine"
	"github.com/dnovak/webscout/internal/extractordriver"
	"github.com/dnovak/webscout/internal/observe"
	"github.com/dnovak/webscout/internal/output"
)

var (
	cfgFile            string
	seedURLs           []string
	additionalHosts    []string
	followAll          bool
	contentOnly        bool
	preserveQueryOrder bool
	concurrency        int
	maxRetries         int
	timeout            time.Duration
	userAgent          string
	cacheDir           string
	bodyDir            string
	extractorDir       string
	extractorBin       string
	badURLsFile        string
	discoveredOut      string
	failedOut          string
	showVersion        bool
)

func toSet(vals []string) map[string]struct{} {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func parseSeedURLs(raw []string) ([]url.URL, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one --seed is required")
	}
	urls := make([]url.URL, 0, len(raw))
	for _, s := range raw {
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("error parsing seed URL %s: %w", s, err)
		}
		urls = append(urls, *u)
	}
	return urls, nil
}

var rootCmd = &cobra.Command{
	Use:   "webscout",
	Short: "A same-site web crawler with authority-fallback fetching.",
	Long: `webscout crawls a site starting from one or more seed URLs, staying
within the seed's host (plus any declared additional hosts), following
sitemaps and in-page links, and caching every response it fetches.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Println(build.FullVersion())
			return nil
		}
		return run()
	},
}

// Execute adds all child commands to the root command and runs it, exiting
// the process with status 1 on any argument, config, or crawl-setup error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config-file", "", "config file path; flags override its non-zero fields")
	rootCmd.Flags().StringArrayVar(&seedURLs, "seed", nil, "a starting URL (can be repeated)")
	rootCmd.Flags().StringVar(&badURLsFile, "bad-urls-file", "", "optional bad-URLs file path for the companion tool; the crawl itself does not read it")
	rootCmd.Flags().StringArrayVar(&additionalHosts, "additional-host", nil, "a host treated as equivalent to the main host (can be repeated)")
	rootCmd.Flags().BoolVar(&followAll, "follow-all", false, "follow rel=\"nofollow\" links")
	rootCmd.Flags().BoolVar(&contentOnly, "content-only", false, "skip the raw-text regex extraction pass over JS/CSS")
	rootCmd.Flags().BoolVar(&preserveQueryOrder, "preserve-query-order", false, "don't alphabetically sort query parameters during normalization")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent fetch workers (default 20)")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "maximum retry attempts for a transient or transport failure (default 3)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout (default 30s)")
	rootCmd.Flags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for the content-addressed response cache")
	rootCmd.Flags().StringVar(&bodyDir, "body-dir", "", "optional sibling directory for raw response bodies")
	rootCmd.Flags().StringVar(&extractorDir, "extractor-dir", "", "directory for the extractor driver's per-URL output")
	rootCmd.Flags().StringVar(&extractorBin, "extractor-bin", "", "path to the external extractor binary; enables the extractor driver")
	rootCmd.Flags().StringVar(&discoveredOut, "discovered-out", "", "output path for the discovered-URL list (default discovered.txt)")
	rootCmd.Flags().StringVar(&failedOut, "failed-out", "", "output path for the failed-URL report (default failed.yaml)")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print the build version and exit")
}

// BuildConfig assembles a config.Config from the config file (if any) and
// the CLI flags captured into this package's vars, flags overriding any
// non-zero value the file set.
func BuildConfig() (config.Config, error) {
	var builder *config.Config

	if cfgFile != "" {
		loaded, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, err
		}
		builder = config.WithDefault(loaded.SeedURLs()).
			WithAdditionalHosts(loaded.AdditionalHosts()).
			WithFollowAll(loaded.FollowAll()).
			WithContentOnly(loaded.ContentOnly()).
			WithPreserveQueryOrder(loaded.PreserveQueryOrder()).
			WithConcurrency(loaded.Concurrency()).
			WithMaxRetries(loaded.MaxRetries()).
			WithTimeout(loaded.Timeout()).
			WithUserAgent(loaded.UserAgent()).
			WithCacheDir(loaded.CacheDir()).
			WithBodyDir(loaded.BodyDir()).
			WithExtractorDir(loaded.ExtractorDir()).
			WithExtractorBin(loaded.ExtractorBin()).
			WithBadURLsFile(loaded.BadURLsFile()).
			WithDiscoveredOut(loaded.DiscoveredOut()).
			WithFailedOut(loaded.FailedOut())
		if len(seedURLs) > 0 {
			seeds, err := parseSeedURLs(seedURLs)
			if err != nil {
				return config.Config{}, err
			}
			builder = builder.WithSeedUrls(seeds)
		}
	} else {
		seeds, err := parseSeedURLs(seedURLs)
		if err != nil {
			return config.Config{}, err
		}
		builder = config.WithDefault(seeds)
	}

	if len(additionalHosts) > 0 {
		builder = builder.WithAdditionalHosts(toSet(additionalHosts))
	}
	if followAll {
		builder = builder.WithFollowAll(true)
	}
	if contentOnly {
		builder = builder.WithContentOnly(true)
	}
	if preserveQueryOrder {
		builder = builder.WithPreserveQueryOrder(true)
	}
	if concurrency > 0 {
		builder = builder.WithConcurrency(concurrency)
	}
	if maxRetries > 0 {
		builder = builder.WithMaxRetries(maxRetries)
	}
	if timeout > 0 {
		builder = builder.WithTimeout(timeout)
	}
	if userAgent != "" {
		builder = builder.WithUserAgent(userAgent)
	}
	if cacheDir != "" {
		builder = builder.WithCacheDir(cacheDir)
	}
	if bodyDir != "" {
		builder = builder.WithBodyDir(bodyDir)
	}
	if extractorDir != "" {
		builder = builder.WithExtractorDir(extractorDir)
	}
	if extractorBin != "" {
		builder = builder.WithExtractorBin(extractorBin)
	}
	if badURLsFile != "" {
		builder = builder.WithBadURLsFile(badURLsFile)
	}
	if discoveredOut != "" {
		builder = builder.WithDiscoveredOut(discoveredOut)
	}
	if failedOut != "" {
		builder = builder.WithFailedOut(failedOut)
	}

	return builder.Build()
}

func run() error {
	cfg, err := BuildConfig()
	if err != nil {
		return err
	}

	c := cache.New(cfg.CacheDir(), cfg.BodyDir())
	e := engine.New(cfg, c, observe.LogObserver{})
	e.Run()

	state := e.State()
	if err := output.WriteDiscovered(cfg.DiscoveredOut(), state.DiscoveredURLs()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: writing discovered URLs: %v\n", err)
	}
	if err := output.WriteFailed(cfg.FailedOut(), state.FailedSnapshot(), state.ReferrersOf); err != nil {
		fmt.Fprintf(os.Stderr, "warning: writing failed URLs: %v\n", err)
	}

	if cfg.ExtractorBin() != "" {
		d := extractordriver.New(cfg.BodyDir(), cfg.ExtractorDir(), cfg.ExtractorBin())
		if err := d.Run(state.HTMLHashes()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: extractor driver: %v\n", err)
		}
	}

	return nil
}

// ResetFlags restores every package-level flag variable to its zero value,
// used between test cases that call Execute or run directly.
func ResetFlags() {
	cfgFile = ""
	seedURLs = nil
	additionalHosts = nil
	followAll = false
	contentOnly = false
	preserveQueryOrder = false
	concurrency = 0
	maxRetries = 0
	timeout = 0
	userAgent = ""
	cacheDir = ""
	bodyDir = ""
	extractorDir = ""
	extractorBin = ""
	badURLsFile = ""
	discoveredOut = ""
	failedOut = ""
	showVersion = false
}

func SetSeedURLsForTest(urls []string)         { seedURLs = urls }
func SetConfigFileForTest(path string)         { cfgFile = path }
func SetAdditionalHostsForTest(hosts []string) { additionalHosts = hosts }
func SetConcurrencyForTest(n int)              { concurrency = n }
func SetCacheDirForTest(dir string)            { cacheDir = dir }
func SetDiscoveredOutForTest(path string)      { discoveredOut = path }
func SetFailedOutForTest(path string)          { failedOut = path }
