package sentry

import (
	sentry "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"vinylogue/config"
)

// Init configures the global Sentry client. An empty DSN leaves reporting
// disabled but still safe to call.
func Init(cfg config.SentryConfig) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Release:          cfg.Release,
		TracesSampleRate: 1.0,
	}); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	if cfg.DSN == "" {
		log.Debug("SENTRY_DSN not set, error reporting disabled")
	}
}

// GetSentryGin returns the request middleware. Repanic hands panics on to
// gin's recovery so the client still gets a 500.
func GetSentryGin() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

func ReportError(err error) {
	sentry.CaptureException(err)
}
