package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/goldenstat/identity/internal/config"
	"github.com/goldenstat/identity/internal/domain/identity"
	cachedrepo "github.com/goldenstat/identity/internal/infrastructure/repository/cache"
	"github.com/goldenstat/identity/internal/infrastructure/repository/postgres"
	"github.com/goldenstat/identity/internal/interfaces/httpapi"
	basecache "github.com/goldenstat/identity/internal/platform/cache"
	"github.com/goldenstat/identity/internal/platform/logging"
	"github.com/goldenstat/identity/internal/usecase"
)

// Services bundles the usecase layer so the API server and the resolver CLI
// share one wiring path.
type Services struct {
	Resolution *usecase.ResolutionService
	Mapping    *usecase.MappingService
	Applier    *usecase.ApplierService
}

func OpenDB(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinaryResult)

	db, err := otelsqlx.Open("postgres", dbURL,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return db, nil
}

func NewServices(db *sqlx.DB, cfg config.Config, logger *logging.Logger) (Services, error) {
	aliases := identity.DefaultClubAliases()
	if cfg.ClubAliasFile != "" {
		loaded, err := identity.LoadClubAliases(cfg.ClubAliasFile)
		if err != nil {
			return Services{}, fmt.Errorf("load club aliases: %w", err)
		}
		aliases = loaded
	}
	normalizer := identity.NewClubNormalizer(aliases)

	store := basecache.NewStore(cfg.CacheTTL)
	players := cachedrepo.NewPlayerRepository(postgres.NewPlayerRepository(db), store)
	facts := postgres.NewParticipationRepository(db)
	mappings := cachedrepo.NewMappingRepository(postgres.NewMappingRepository(db), store)
	tx := postgres.NewTxManager(db)

	return Services{
		Resolution: usecase.NewResolutionService(players, facts, mappings, normalizer, logger, usecase.ResolutionConfig{
			SimilarityThreshold:  cfg.SimilarityThreshold,
			MinProposeConfidence: cfg.MinProposeConfidence,
			ScanMinMatches:       cfg.ScanMinMatches,
			ScanWorkers:          cfg.ScanWorkers,
		}),
		Mapping: usecase.NewMappingService(mappings, players, logger),
		Applier: usecase.NewApplierService(players, facts, mappings, tx, logger),
	}, nil
}

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, *sqlx.DB, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	services, err := NewServices(db, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	handler := httpapi.NewHandler(services.Resolution, services.Mapping, services.Applier, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = db.Close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, db, nil
}
