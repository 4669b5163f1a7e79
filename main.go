package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rpupo63/portfolio-backend/api"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/services"
	"github.com/rpupo63/portfolio-backend/store"
)

//nolint:gochecknoglobals // Cobra boilerplate
var envFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "portfolio-backend",
	Short: "Serve the portfolio site and its admin API",
	Long: `portfolio-backend serves the public portfolio pages (home, resume, showcase)
and the admin API used to maintain them.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the dotenv file, the environment and, when SSM_PARAMETER_PATH
// is set, the parameters stored under that path.
func loadConfig(ctx context.Context) (map[string]string, error) {
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: Error loading %s file: %v\n", envFile, err)
	}

	c := config.New()
	setupLogging(c)

	parameterPath := config.GetString(c, "SSM_PARAMETER_PATH", "")
	if parameterPath == "" {
		return c, nil
	}
	params, err := config.NewParameterStore(ctx)
	if err != nil {
		return nil, err
	}
	loaded, err := config.OverlaySSM(ctx, params, c, parameterPath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("parameters", loaded).Str("path", parameterPath).Msg("Loaded configuration from SSM")
	return c, nil
}

func setupLogging(c map[string]string) {
	level, err := zerolog.ParseLevel(config.GetString(c, "LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if config.IsDevelopment(c) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openDatabase(ctx context.Context, c map[string]string) (database.Database, error) {
	dbConfig := database.ConfigFromMap(c)
	gormDB, err := database.Open(ctx, dbConfig)
	if err != nil {
		return database.Database{}, err
	}
	return database.New(gormDB, dbConfig.EnforceRLS), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	fmt.Println("Initializing app...")
	c, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	sessionSecret := config.GetString(c, "SESSION_SECRET", "")
	if sessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is not configured")
	}
	supabaseURL := config.GetString(c, "SUPABASE_URL", "")
	if supabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is not configured")
	}

	db, err := openDatabase(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	if config.GetBool(c, "RUN_MIGRATIONS", false) {
		if err := database.RunMigrations(database.ConfigFromMap(c).URL()); err != nil {
			return err
		}
	}

	staleAfter := time.Duration(config.GetInt(c, "CACHE_STALE_MINUTES", int(store.DefaultStaleAfter/time.Minute))) * time.Minute
	catalog := store.NewCatalog(db, store.NewCache(staleAfter))

	gotrue := auth.NewGoTrue(supabaseURL, config.GetString(c, "SUPABASE_ANON_KEY", ""), &http.Client{Timeout: 15 * time.Second})
	factory := auth.NewFactory(
		gotrue,
		auth.StorageKey(auth.ProjectRef(supabaseURL)),
		[]byte(config.GetString(c, "SUPABASE_JWT_SECRET", "")),
		api.NewProfileFetcher(db.ProfileRepo()),
		auth.TimeoutsFromMap(c),
	)
	idle := time.Duration(config.GetInt(c, "AUTH_SESSION_IDLE_MINUTES", 30)) * time.Minute
	registry := auth.NewRegistry(factory, idle)
	defer registry.Shutdown()
	go registry.Run(ctx)

	deps := api.Dependencies{
		Catalog:  catalog,
		Registry: registry,
		Cookies:  api.NewCookieStore(sessionSecret, !config.IsDevelopment(c)),
		Ping:     db.Ping,
	}
	if media := services.MediaConfigFromMap(c); media.Enabled() {
		storage, err := services.NewS3MediaStorage(ctx, media)
		if err != nil {
			return err
		}
		deps.Images = storage
	} else {
		log.Warn().Msg("STORAGE_BUCKET is not configured, image uploads are disabled")
	}

	server, err := api.NewServer(c, deps)
	if err != nil {
		return fmt.Errorf("error initializing server: %w", err)
	}

	errChannel := make(chan error, 2)
	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
	return nil
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
