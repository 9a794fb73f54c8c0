// Package container wires the application together with samber/do.
// Each *Package function registers the providers for one concern; the
// entrypoints pick the packages they need.
package container

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkgate/linkgate/internal/analytics"
	"github.com/linkgate/linkgate/internal/handlers"
	"github.com/linkgate/linkgate/internal/health"
	"github.com/linkgate/linkgate/internal/keys"
	"github.com/linkgate/linkgate/internal/messaging"
	"github.com/linkgate/linkgate/internal/middleware"
	"github.com/linkgate/linkgate/internal/ratelimit"
	"github.com/linkgate/linkgate/internal/shortener"
	"github.com/linkgate/linkgate/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// Options holds the runtime configuration, populated by humacli from
// command-line flags or SERVICE_* environment variables.
type Options struct {
	Port           int    `default:"8888"           help:"Port to listen on"                                  short:"p"`
	BaseURL        string `help:"Public base URL used to build short links"                name:"base-url"`
	RedisAddr      string `default:"localhost:6379" help:"Redis server address"                name:"redis-addr" short:"r"`
	UnkeyRootKey   string `help:"Root key for the key management provider"                 name:"unkey-root-key"`
	UnkeyAPIID     string `help:"Provider API id that issued keys belong to"               name:"unkey-api-id"`
	UnkeyNamespace string `default:"url.shortener"  help:"Provider rate limit namespace"       name:"unkey-namespace"`
	DatabaseURL    string `help:"Postgres DSN for the analytics store (optional)"          name:"database-url"`
	LogFormat      string `default:"console"        help:"Log encoding: console or json"       name:"log-format"`
	LocalRateLimit bool   `help:"Rate limit locally instead of at the key provider"        name:"local-rate-limit"`
	Dev            bool   `help:"Run with in-memory key provider, store and transport"     name:"dev"`
}

// Validate fails fast on missing required configuration. Dev mode needs
// nothing external.
func (o *Options) Validate() error {
	if o.Dev {
		return nil
	}

	var missing []string

	if o.BaseURL == "" {
		missing = append(missing, "base-url")
	}

	if o.UnkeyRootKey == "" {
		missing = append(missing, "unkey-root-key")
	}

	if o.UnkeyAPIID == "" {
		missing = append(missing, "unkey-api-id")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// PublicBaseURL returns the configured base URL, defaulting to localhost
// in dev mode.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// KeyProviderPackage provides the external key management provider, or its
// in-memory stand-in in dev mode.
func KeyProviderPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (keys.Provider, error) {
		options := do.MustInvoke[*Options](i)

		if options.Dev {
			return keys.NewMemoryProvider(), nil
		}

		return keys.NewUnkeyProvider(
			options.UnkeyRootKey,
			options.UnkeyAPIID,
			options.UnkeyNamespace,
		), nil
	})
}

// RepositoryPackage provides the code generator and the link repository.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*shortener.Generator, error) {
		return shortener.NewGenerator(), nil
	})

	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		options := do.MustInvoke[*Options](i)
		generator := do.MustInvoke[*shortener.Generator](i)

		if options.Dev {
			return store.NewMemoryStore(generator), nil
		}

		client := do.MustInvoke[*redis.Client](i)

		return store.NewRedisStore(client, generator), nil
	})
}

// Shorten endpoint namespace limit, mirrored locally when the provider
// round trip is skipped.
const (
	localRateLimitMax    = 5
	localRateLimitWindow = 10 * time.Second
)

// RateLimitPackage provides the request rate limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Limiter, error) {
		options := do.MustInvoke[*Options](i)

		if options.LocalRateLimit {
			var counters ratelimit.Store
			if options.Dev {
				counters = store.NewRateLimitMemoryStore()
			} else {
				counters = store.NewRateLimitRedisStore(do.MustInvoke[*redis.Client](i))
			}

			return ratelimit.NewSlidingWindowLimiter(counters, localRateLimitMax, localRateLimitWindow), nil
		}

		provider := do.MustInvoke[keys.Provider](i)

		return ratelimit.NewProviderLimiter(provider), nil
	})
}

// PublisherGroupPackage provides the analytics event publisher and the
// typed publish functions derived from it.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		options := do.MustInvoke[*Options](i)

		if options.Dev {
			return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
		}

		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.LinkCreatedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.LinkCreatedEvent](group.Publisher(), analytics.TopicLinkCreated), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.LinkResolvedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.LinkResolvedEvent](group.Publisher(), analytics.TopicLinkResolved), nil
	})
}

// ConsumerGroupPackage provides the analytics consumers and their store.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		options := do.MustInvoke[*Options](i)

		if options.DatabaseURL == "" {
			return analytics.NewNoopStore(), nil
		}

		pool, err := pgxpool.New(context.Background(), options.DatabaseURL)
		if err != nil {
			return nil, err
		}

		return analytics.NewPostgresStore(pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		analyticsStore := do.MustInvoke[analytics.Store](i)

		var subscriber message.Subscriber

		if options.Dev {
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		} else {
			client := do.MustInvoke[*redis.Client](i)

			var err error

			subscriber, err = redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        client,
				ConsumerGroup: "analytics",
			}, watermill.NopLogger{})
			if err != nil {
				return nil, err
			}
		}

		group := messaging.NewConsumerGroup(subscriber, logger)

		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkCreated,
			analyticsStore.SaveLinkCreated, logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkResolved,
			analyticsStore.SaveLinkResolved, logger))

		return group, nil
	})
}

// HTTPPackage provides the router and the API with all routes registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("linkgate", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))
		api.UseMiddleware(middleware.RateLimiter(api, do.MustInvoke[ratelimit.Limiter](i), logger))

		linkHandler := handlers.NewLinkHandler(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[keys.Provider](i),
			options.PublicBaseURL(),
			do.MustInvoke[messaging.Publish[analytics.LinkCreatedEvent]](i),
			do.MustInvoke[messaging.Publish[analytics.LinkResolvedEvent]](i),
			logger,
		)
		handlers.RegisterRoutes(api, linkHandler)

		healthHandler := health.NewHandler(
			health.NewRedisChecker(do.MustInvoke[*redis.Client](i)),
			health.NewProviderChecker(do.MustInvoke[keys.Provider](i)),
		)
		health.RegisterRoutes(api, healthHandler)

		return api, nil
	})
}

// DevTransportPackage provides the in-process event transport for dev
// mode. Publisher and subscriber must share the instance for events to
// flow, so it is registered once and invoked from both sides.
func DevTransportPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*gochannel.GoChannel, error) {
		return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}), nil
	})
}
