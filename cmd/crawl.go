package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/crawler"
	"github.com/brogergvhs/noveld/internal/providers/lnpub"
	"github.com/brogergvhs/noveld/internal/store"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagStartPage int
	flagEndPage   int
	flagOrder     string
	flagStatus    string
	flagNovels    string

	// runtime
	flagDataDir      string
	flagBaseURL      string
	flagDryRun       bool
	flagRefreshKnown bool
	flagStrictDedup  bool
	flagLogFile      string

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
	flagCFBypass   bool
)

func init() {
	crawlCmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the novel catalog and store chapter datasets as JSON. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runCrawl,
	}

	// selection
	crawlCmd.Flags().IntVar(&flagStartPage, "start-page", 0, "first listing page to walk")
	crawlCmd.Flags().IntVar(&flagEndPage, "end-page", 0, "last listing page to walk")
	crawlCmd.Flags().StringVar(&flagOrder, "order", "", "listing order (e.g. popular)")
	crawlCmd.Flags().StringVar(&flagStatus, "status", "", "listing status filter (e.g. completed)")
	crawlCmd.Flags().StringVar(&flagNovels, "novels", "", "crawl specific novels by slug (e.g. shadow-slave,lord-of-mysteries)")

	// runtime
	crawlCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "folder for novels.json and chapter datasets")
	crawlCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "catalog base URL")
	crawlCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be crawled, don’t fetch chapters")
	crawlCmd.Flags().BoolVar(&flagRefreshKnown, "refresh-known", false, "also re-harvest chapters of already indexed novels")
	crawlCmd.Flags().BoolVar(&flagStrictDedup, "strict-dedup", false, "match chapters by number only when the title also matches")
	crawlCmd.Flags().StringVar(&flagLogFile, "log-file", "", "also write logs to this file")

	// headers/auth
	crawlCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	crawlCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	crawlCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	crawlCmd.Flags().BoolVar(&flagCFBypass, "cloudflare-bypass", false, "send browser-shaped headers for Cloudflare-fronted sites")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(_ *cobra.Command, _ []string) error {
	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,

		BaseURL: flagBaseURL,
		DataDir: flagDataDir,

		StartPage: flagStartPage,
		EndPage:   flagEndPage,
		Order:     flagOrder,
		Status:    flagStatus,

		StrictDedup:  flagStrictDedup,
		RefreshKnown: flagRefreshKnown,

		Cookie:           flagCookie,
		CookieFile:       flagCookieFile,
		UserAgent:        flagUserAgent,
		CloudflareBypass: flagCFBypass,

		LogFile: flagLogFile,
	})
	if err != nil {
		return err
	}

	logSvc, err := ui.NewLogger(cfg.Debug, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logSvc.Sync() }()

	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	fmt.Println("Full config:")
	cfg.Print()
	fmt.Println()

	// the bypass transport sets its own browser headers
	userAgent := cfg.UserAgent
	if !cfg.CloudflareBypass {
		userAgent = util.PickUserAgent(cfg.UserAgent)
	}

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          cfg.Timeout.Std(),
		UserAgent:        userAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      logSvc,
	})
	if err != nil {
		return err
	}

	st := store.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	src := lnpub.NewScraper(client, cfg.BaseURL, cfg.Order, cfg.Status)

	cr := crawler.New(src, st, logSvc, crawler.Options{
		StartPage:       cfg.StartPage,
		EndPage:         cfg.EndPage,
		RetryAttempts:   cfg.RetryAttempts,
		RetryDelay:      cfg.RetryDelay.Std(),
		CheckpointEvery: cfg.CheckpointEvery,

		PageDelay:        cfg.PageDelay.Std(),
		DetailDelay:      cfg.DetailDelay.Std(),
		ChapterPageDelay: cfg.ChapterPageDelay.Std(),
		ChapterDelay:     cfg.ChapterDelay.Std(),
		NovelDelay:       cfg.NovelDelay.Std(),

		StrictDedup:  cfg.StrictDedup,
		RefreshKnown: cfg.RefreshKnown,
		OnlySlugs:    splitSlugs(flagNovels),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagDryRun {
		listed, err := cr.Discover(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Dry-run: %d novels listed.\n\n", len(listed))
		for i, n := range listed {
			fmt.Printf("%3d) %s  [%s]\n    %s\n", i+1, n.Title, n.Slug, n.URL)
		}
		return nil
	}

	pm := ui.NewProgressManager()
	defer pm.Close()
	cr.SetProgress(pm)

	start := time.Now()
	runErr := cr.Run(ctx)
	pm.Close()

	stats := cr.Stats()

	fmt.Println()
	fmt.Println("Crawl Summary:")
	fmt.Printf("Novels listed:   %d\n", stats.NovelsListed.Load())
	fmt.Printf("Novels detailed: %d\n", stats.NovelsDetailed.Load())
	fmt.Printf("New chapters:    %d\n", stats.ChaptersNew.Load())
	fmt.Printf("Fetched bodies:  %d\n", stats.ChaptersFetched.Load())
	fmt.Printf("Failed chapters: %d\n", stats.ChaptersFailed.Load())
	fmt.Printf("Text data:       %s\n", util.Human(stats.TextBytes.Load()))
	fmt.Printf("Time:            %s\n", time.Since(start).Round(time.Second))

	if errors.Is(runErr, context.Canceled) {
		fmt.Println("\nInterrupted. Progress is checkpointed; run again to resume.")
		return nil
	}
	if runErr != nil {
		return runErr
	}

	fmt.Println("\nAll done.")
	return nil
}

func splitSlugs(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})

	out := []string{}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}

	return out
}
