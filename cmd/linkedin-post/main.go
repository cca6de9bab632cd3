package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/auth"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/config"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/feeds"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/gateway"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/schedule"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/server"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/session"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/settings"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/share"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "linkedin-post",
	Short:   "AI-assisted LinkedIn tech-news posting",
	Long:    "linkedin-post fetches tech news, generates post images and captions, and walks each post through scheduling and sharing on LinkedIn.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("linkedin-post", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/linkedin-post/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure models, feeds, and the LinkedIn redirect URI.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show settings and connection status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings database: %s\n\n", store.Path())
		fmt.Println("LinkedIn:")
		fmt.Printf("  Client ID set: %v\n", st.ClientID != "")
		fmt.Printf("  Client secret set: %v\n", st.ClientSecret != "")
		fmt.Printf("  Connected: %v\n", st.IsConnected)
		fmt.Println("\nGemini:")
		fmt.Printf("  API key in settings: %v\n", st.APIKey != "")
		fmt.Printf("  API key in %s: %v\n", cfg.Gemini.APIKeyEnv, cfg.APIKey() != "")
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local posting workflow app",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		gw, err := buildGateway(store)
		if err != nil {
			return err
		}

		sharer := share.NewComposer(cfg.GetDownloadDir())
		pace := time.Duration(cfg.Pipeline.PaceMS) * time.Millisecond

		var schedOpts []schedule.Option
		if cfg.Share.FireDelayMS > 0 {
			schedOpts = append(schedOpts, schedule.WithFireDelay(time.Duration(cfg.Share.FireDelayMS)*time.Millisecond))
		}

		sess := session.New(gw, sharer, pace, schedOpts...)
		authHandler := auth.NewHandler(store, cfg.LinkedIn.RedirectURI, cfg.LinkedIn.Scope)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting app at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(sess, store, authHandler, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// buildGateway assembles the generation gateway. The Gemini key comes from
// settings first, then the environment. Without a key, or when configured,
// RSS feeds replace the model-backed news source; image and caption
// generation always go through Gemini.
func buildGateway(store *settings.Store) (gateway.Gateway, error) {
	st, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	apiKey := st.APIKey
	if apiKey == "" {
		apiKey = cfg.APIKey()
	}

	gemini := gateway.NewGeminiClient(apiKey)
	gemini.NewsModel = cfg.Gemini.NewsModel
	gemini.CaptionModel = cfg.Gemini.CaptionModel
	gemini.ThinkingModel = cfg.Gemini.ThinkingModel
	gemini.ImageModel = cfg.Gemini.ImageModel
	gemini.ThinkingBudget = cfg.Gemini.ThinkingBudget

	if cfg.News.Source == "feeds" || !gemini.IsConfigured() {
		feedConfigs := make([]feeds.FeedConfig, len(cfg.News.Feeds))
		for i, f := range cfg.News.Feeds {
			feedConfigs[i] = feeds.FeedConfig{URL: f.URL, Name: f.Name}
		}
		if len(feedConfigs) == 0 {
			return nil, fmt.Errorf("no Gemini API key and no feeds configured")
		}
		if !gemini.IsConfigured() {
			log.Println("No Gemini API key configured; using RSS feeds for news")
		}
		source := feeds.NewSource(feedConfigs, cfg.News.BatchSize)
		return gateway.Compose(source, gemini, gemini), nil
	}

	return gemini, nil
}

func openStore() (*settings.Store, error) {
	dataDir := cfg.GetDataDir()
	return settings.Open(filepath.Join(dataDir, "linkedin-post.db"))
}
