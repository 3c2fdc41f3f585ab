package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"vinylogue/card"
	appConfig "vinylogue/config"
	"vinylogue/controller"
	"vinylogue/database"
	"vinylogue/handlers"
	"vinylogue/sentry"
	"vinylogue/spotify"
)

// artworkCacheEntries bounds the decoded covers kept in memory.
const artworkCacheEntries = 256

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}
	appConfig.NewConfig()
	configureLogging(appConfig.Config.Options.LogLevel)
	sentry.Init(appConfig.Config.Sentry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		sentry.ReportError(err)
		log.Fatal(err)
	}
}

func configureLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		FieldsOrder:     []string{"module", "method"},
		TimestampFormat: time.RFC3339,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func newGateway(cfg appConfig.SpotifyConfig) (*spotify.Gateway, error) {
	if !cfg.HasCredentials() {
		return nil, errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}
	return spotify.New(spotify.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		APIURL:       cfg.APIURL,
		Market:       cfg.Market,
		RetryDelay:   cfg.RetryDelay,
	})
}

func run(ctx context.Context) error {
	cfg := appConfig.Config

	gateway, err := newGateway(cfg.Spotify)
	if err != nil {
		return err
	}

	var fetcher card.ArtworkFetcher = card.NewHTTPArtworkFetcher(cfg.Card.ArtworkTimeout)
	if cfg.Card.ArtworkCache > 0 {
		fetcher = card.NewCachedArtworkFetcher(fetcher, cfg.Card.ArtworkCache, artworkCacheEntries)
	}
	renderer := card.NewRenderer(card.Options{
		Fetcher:   fetcher,
		Watermark: cfg.Card.Watermark,
	})

	var history controller.History
	if cfg.Database.HistoryEnabled {
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		history = db
	}

	ctrl := controller.NewController(gateway, renderer, history)
	defer ctrl.Close()

	if gin.IsDebugging() && cfg.Options.LogLevel != "debug" && cfg.Options.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), sentry.GetSentryGin())
	handlers.NewManager(ctrl, cfg.Card.CacheMaxAge).Register(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on :%s", cfg.Options.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
