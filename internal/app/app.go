// Package app wires configuration, storage, collaborators and the HTTP
// server into a runnable gateway.
package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"hardhat-gateway/internal/access"
	"hardhat-gateway/internal/config"
	"hardhat-gateway/internal/coordinator"
	"hardhat-gateway/internal/docgen"
	gatewayhttp "hardhat-gateway/internal/http"
	"hardhat-gateway/internal/notifier"
	"hardhat-gateway/internal/payment"
	"hardhat-gateway/internal/repository/postgres"
	"hardhat-gateway/internal/storage/s3"
)

type Service struct {
	config *config.Config
	db     *postgres.DB
	server *gatewayhttp.Server
	logger *log.Logger
}

// NewService wires up all dependencies and returns a configured Service.
func NewService() (*Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	customers := postgres.NewCustomerRepository(db)
	monthly := postgres.NewMonthlyCodeRepository(db)
	links := postgres.NewAccessLinkRepository(db)
	submissions := postgres.NewSubmissionRepository(db)
	profiles := postgres.NewProfileRepository(db)
	events := postgres.NewWebhookEventRepository(db)

	mail, err := notifier.New(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.SiteBase, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build notifier: %w", err)
	}

	issuer := access.NewIssuer(customers, monthly, mail, cfg.Codes.TTLDays, logger)
	sessions := access.NewSessionService(cfg.Session.Secret, cfg.Session.TTL)
	magicSessions := access.NewSessionService(cfg.Session.Secret, cfg.Session.MagicLinkTTL)
	subscription := access.NewSubscriptionVerifier(links)
	oneTime := access.NewOneTimeVerifier(links)

	generator := docgen.NewClient(cfg.Docgen.BaseURL, cfg.Docgen.APIKey)

	// The artifact store is optional; without a bucket the download path
	// falls back to fetching through the generator.
	var objects coordinator.ObjectStore
	if cfg.Artifacts.Bucket != "" {
		s3Client, err := s3.NewClient(&cfg.Artifacts)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to build artifact store: %w", err)
		}
		objects = s3Client
	}

	coord := coordinator.New(submissions, profiles, generator, objects, cfg.Docgen.MaxPending, logger)

	bridge := payment.NewBridge(customers, links, events, mail, payment.BridgeConfig{
		PriceRAMS: cfg.Stripe.PriceRAMS,
		PriceCPP:  cfg.Stripe.PriceCPP,
		TTLDays:   cfg.Codes.TTLDays,
	}, logger)

	server := gatewayhttp.NewServer(&gatewayhttp.ServerDependencies{
		Config:        cfg,
		Links:         links,
		Profiles:      profiles,
		Issuer:        issuer,
		Sessions:      sessions,
		MagicSessions: magicSessions,
		Subscription:  subscription,
		OneTime:       oneTime,
		Coordinator:   coord,
		Bridge:        bridge,
	})

	return &Service{
		config: cfg,
		db:     db,
		server: server,
		logger: logger,
	}, nil
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Service) Start() error {
	s.logger.Printf("gateway listening on :%s", s.config.Server.Port)
	return s.server.Start(":" + s.config.Server.Port)
}

// Shutdown drains the HTTP server and closes the database pool.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.db.Close()
	return err
}

// Config exposes the loaded configuration.
func (s *Service) Config() *config.Config {
	return s.config
}
