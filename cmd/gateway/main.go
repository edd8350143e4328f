// Command gateway runs the session gateway for the forum SPA: the
// self-hosted identity provider, the per-principal session contexts, and
// the HTTP surface the client talks to.
//
// Startup sequence:
//
//  1. Initialize the structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to MongoDB (account store) and Redis (preference store).
//  4. Start the profile record dispatcher.
//  5. Wire the session context factory and the HTTP router.
//  6. Serve until interrupted, then shut down gracefully.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openforum/session-gateway/internal/api"
	"github.com/openforum/session-gateway/internal/core/service"
	"github.com/openforum/session-gateway/internal/httpclient"
	"github.com/openforum/session-gateway/internal/infrastructure/backend"
	"github.com/openforum/session-gateway/internal/infrastructure/config"
	mongostore "github.com/openforum/session-gateway/internal/infrastructure/db/mongo"
	redisstore "github.com/openforum/session-gateway/internal/infrastructure/db/redis"
	"github.com/openforum/session-gateway/internal/infrastructure/payment"
	"github.com/openforum/session-gateway/internal/infrastructure/provider/local"
	"github.com/openforum/session-gateway/internal/infrastructure/provider/oauth"
	"github.com/openforum/session-gateway/internal/infrastructure/queue"
	"github.com/openforum/session-gateway/internal/session"
	"github.com/openforum/session-gateway/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})
	log.Info().Str("env", cfg.Env).Msg("session gateway starting")

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// --- MongoDB: account store ---
	mongoClient, db, err := mongostore.Connect(startupCtx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer func() {
		if derr := mongoClient.Disconnect(context.Background()); derr != nil {
			log.Error().Err(derr).Msg("mongo disconnect error")
		}
	}()

	accounts := mongostore.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(startupCtx); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	// --- Redis: preference store ---
	rdb, err := redisstore.Connect(startupCtx, redisstore.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("redis close error")
		}
	}()
	prefs := redisstore.NewPreferenceStore(rdb)

	// --- Federated sign-in (optional) ---
	var flow *oauth.Flow
	if cfg.OAuth.ClientID != "" {
		flow = oauth.NewFlow(oauth.Options{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			AuthURL:      cfg.OAuth.AuthURL,
			TokenURL:     cfg.OAuth.TokenURL,
			UserinfoURL:  cfg.OAuth.UserinfoURL,
			RedirectURL:  cfg.OAuth.RedirectURL,
			Scopes:       cfg.OAuth.Scopes,
		})
		log.Info().Msg("federated sign-in enabled")
	}

	// --- Identity provider ---
	provider := local.NewProvider(accounts, flowOrNil(flow), cfg.JWTSecret, cfg.TokenTTL, log)

	// --- Backend collaborators ---
	// Profile records go out under the gateway's own service credential,
	// not any visitor's token.
	serviceDirectory := backend.NewDirectory(cfg.Backend.BaseURL,
		httpclient.New(httpclient.StaticToken(cfg.ServiceToken)))

	dispatcher := queue.NewDispatcher(4, serviceDirectory, log)
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	dispatcher.Start(rootCtx)

	payments := payment.NewProcessor(cfg.Payment.BaseURL, http.DefaultClient)

	policy := service.ParseSignOutPolicy(cfg.SignOutPolicy)

	// --- Session context factory ---
	// Every principal gets a fresh provider session, a session store over
	// it, and the services derived from that store. Directory reads go out
	// with the principal's own token, read at send time.
	factory := func() (*session.Context, error) {
		sess := provider.NewSession()
		store := service.NewSessionStore(sess, prefs, cfg.DefaultTheme, log)
		directory := backend.NewDirectory(cfg.Backend.BaseURL, httpclient.New(store))
		resolver := service.NewRoleResolver(directory, store, log)
		return &session.Context{
			Store:      store,
			Gateway:    service.NewIdentityGateway(sess, store, dispatcher, policy, log),
			Roles:      resolver,
			Gate:       service.NewRouteGate(store, resolver),
			Membership: service.NewMembershipService(payments, directory, store, log),
		}, nil
	}

	registry, err := session.NewRegistry(factory, log)
	if err != nil {
		log.Fatal().Err(err).Msg("session registry init failed")
	}

	// --- HTTP server ---
	e := api.NewRouter(api.RouterDeps{
		Registry: registry,
		Verifier: provider,
		Flow:     flow,
		States:   redisstore.NewStateStore(rdb),
		Mongo:    db,
		Redis:    rdb,
		Log:      log,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Msg("listening")
		if serr := e.Start(addr); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			log.Fatal().Err(serr).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}

// flowOrNil keeps the provider's Federation dependency a typed nil-safe
// interface: a nil *oauth.Flow must not masquerade as a non-nil Federation.
func flowOrNil(flow *oauth.Flow) local.Federation {
	if flow == nil {
		return nil
	}
	return flow
}
