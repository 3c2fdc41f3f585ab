// Package sentryhelper provides utilities for Sentry transaction and scope management.
// It keeps breadcrumbs and context isolated per HTTP request.
package sentryhelper

import (
	"context"

	sentry "github.com/getsentry/sentry-go"
)

// contextKey is used to store the cloned hub in context
type contextKey string

const hubContextKey contextKey = "sentry_hub"

// WithHub stores hub in ctx so later helpers report to it.
func WithHub(ctx context.Context, hub *sentry.Hub) context.Context {
	return context.WithValue(ctx, hubContextKey, hub)
}

// HubFromContext retrieves the request hub from context. It prefers a hub
// stored by WithHub, then one attached by the gin middleware, and finally
// falls back to CurrentHub.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub, ok := ctx.Value(hubContextKey).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// AddBreadcrumb adds a breadcrumb to the hub in context (isolated per-request).
func AddBreadcrumb(ctx context.Context, breadcrumb *sentry.Breadcrumb) {
	HubFromContext(ctx).AddBreadcrumb(breadcrumb, nil)
}

// CaptureException captures an exception on the hub in context.
func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}

// ConfigureScope configures the scope on the hub in context.
func ConfigureScope(ctx context.Context, f func(*sentry.Scope)) {
	HubFromContext(ctx).ConfigureScope(f)
}

// DetachFromTransaction creates a new context carrying a clone of the request
// hub, without the transaction or the request's cancellation. The clone keeps
// the request's breadcrumbs and tags, while spans and tags set by background
// work stay off the request scope.
func DetachFromTransaction(ctx context.Context) context.Context {
	return WithHub(context.Background(), HubFromContext(ctx).Clone())
}

// StartLinkedTransaction starts a transaction for background work that
// references the request which spawned it via tags.
func StartLinkedTransaction(ctx context.Context, name string, operation string, tags map[string]string) (context.Context, *sentry.Span) {
	hub := HubFromContext(ctx)

	transaction := sentry.StartTransaction(ctx, name,
		sentry.WithOpName(operation),
		sentry.WithTransactionSource(sentry.SourceTask),
	)
	for k, v := range tags {
		transaction.SetTag(k, v)
	}

	// Bind the transaction to the hub's scope
	hub.Scope().SetSpan(transaction)

	return transaction.Context(), transaction
}
