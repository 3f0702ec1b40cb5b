package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/entitlement"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/providers/groq"
	"server/internal/providers/hume"
	"server/internal/providers/identity"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	directory, err := identity.NewSupabaseDirectory(identity.Options{
		BaseURL:        cfg.SupabaseURL,
		ServiceRoleKey: cfg.SupabaseServiceKey,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("identity directory configuration invalid")
	}

	gate := entitlement.NewGatekeeper(repo.NewEntitlementRepository(dbpool), logger)

	app := &handlers.App{
		Logger:           logger,
		SQL:              infra.NewSQLRunner(dbpool, logger),
		Directory:        directory,
		Gate:             gate,
		VoiceSessionCost: cfg.VoiceSessionCost,
		ChatCreditCost:   cfg.ChatCreditCost,
	}

	if cfg.GroqAPIKey != "" {
		chat, err := groq.NewClient(groq.Options{
			APIKey:  cfg.GroqAPIKey,
			Model:   cfg.GroqModel,
			BaseURL: cfg.GroqBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("groq client configuration invalid")
		}
		app.Chat = chatAdapter{chat}
	} else {
		logger.Warn().Msg("GROQ_API_KEY not set; coach chat disabled")
	}

	if cfg.HumeAPIKey != "" && cfg.HumeSecretKey != "" {
		voice, err := hume.NewClient(hume.Options{
			APIKey:    cfg.HumeAPIKey,
			SecretKey: cfg.HumeSecretKey,
			BaseURL:   cfg.HumeBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("hume client configuration invalid")
		}
		app.Voice = voiceAdapter{voice}
	} else {
		logger.Warn().Msg("Hume credentials not set; voice endpoints will report misconfiguration")
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:        logger,
		RateLimit:     cfg.RateLimitPerMin,
		DefaultLocale: cfg.DefaultLocale,
		CountryLookup: countryLookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
