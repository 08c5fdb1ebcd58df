package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"webspider/pkg/config"
	"webspider/pkg/extract"
	"webspider/pkg/fetch"
	"webspider/pkg/spider"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	configFileFlag := flag.String("config", "", "Path to YAML config file (optional)")
	domainsFlag := flag.String("domains", "", "Comma-separated domain allow-list (empty = unrestricted)")
	maxWorkersFlag := flag.Int("max-workers", 0, "Global concurrency limit (0 = config/default)")
	perDomainFlag := flag.Int("workers-per-domain", 0, "Per-domain concurrency limit (0 = config/default)")
	logLevelFlag := flag.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	timeoutFlag := flag.Duration("timeout", 0, "Overall crawl timeout (0 = none)")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevelFlag, err)
	} else {
		log.SetLevel(level)
	}

	seeds := flag.Args()
	if len(seeds) == 0 {
		log.Fatal("Usage: webspider [flags] <seed-url> [<seed-url>...]")
	}

	// --- Load Configuration ---
	var cfg config.Config
	if *configFileFlag != "" {
		yamlFile, readErr := os.ReadFile(*configFileFlag)
		if readErr != nil {
			log.Fatalf("Read config file '%s' error: %v", *configFileFlag, readErr)
		}
		if unmarshalErr := yaml.Unmarshal(yamlFile, &cfg); unmarshalErr != nil {
			log.Fatalf("Parse config file '%s' error: %v", *configFileFlag, unmarshalErr)
		}
	}

	// Flags override file values
	if *domainsFlag != "" {
		cfg.AllowedDomains = strings.Split(*domainsFlag, ",")
	}
	if *maxWorkersFlag > 0 {
		cfg.MaxWorkers = *maxWorkersFlag
	}
	if *perDomainFlag > 0 {
		cfg.WorkersPerDomain = *perDomainFlag
	}
	if *timeoutFlag > 0 {
		cfg.CrawlTimeout = *timeoutFlag
	}

	// Validate early so client construction below sees effective values.
	warnings, err := cfg.Validate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	log.Infof("Config: MaxWorkers:%d, WorkersPerDomain:%d, AllowedDomains:%v",
		cfg.MaxWorkers, cfg.WorkersPerDomain, cfg.AllowedDomains)

	// --- Global Context & Signal Handling ---
	var crawlCtx context.Context
	var cancelCrawl context.CancelFunc
	if cfg.CrawlTimeout > 0 {
		log.Infof("Setting crawl timeout: %v", cfg.CrawlTimeout)
		crawlCtx, cancelCrawl = context.WithTimeout(context.Background(), cfg.CrawlTimeout)
	} else {
		crawlCtx, cancelCrawl = context.WithCancel(context.Background())
	}
	defer cancelCrawl()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancelCrawl()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	// --- Initialize Components ---
	httpClient := fetch.NewClient(cfg.HTTPClientSettings, log)
	fetcher := fetch.NewHTTPFetcher(httpClient, &cfg, log)
	handler := extract.Links(log)

	sp, err := spider.New(&cfg, fetcher, handler, log)
	if err != nil {
		log.Fatalf("Failed to initialize spider: %v", err)
	}

	// --- Run ---
	err = sp.Run(crawlCtx, seeds...)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Crawl cancelled gracefully.")
			os.Exit(0)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Crawl timed out.")
			os.Exit(1)
		}
		log.Errorf("Crawl finished with error: %v", err)
		os.Exit(1)
	}
	log.Info("Crawl completed successfully.")
}
