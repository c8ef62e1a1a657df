package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medlab/medlab/internal/config"
	"github.com/medlab/medlab/internal/domain/account"
	"github.com/medlab/medlab/internal/domain/clinical"
	"github.com/medlab/medlab/internal/domain/lab"
	"github.com/medlab/medlab/internal/domain/labnumber"
	"github.com/medlab/medlab/internal/domain/panel"
	"github.com/medlab/medlab/internal/domain/patient"
	"github.com/medlab/medlab/internal/domain/radiology"
	"github.com/medlab/medlab/internal/domain/user"
	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/auth"
	"github.com/medlab/medlab/internal/platform/db"
	"github.com/medlab/medlab/internal/platform/docstore"
	"github.com/medlab/medlab/internal/platform/middleware"
	"github.com/medlab/medlab/internal/platform/sequence"
)

// stores holds one repository per collection for the configured backend.
type stores struct {
	patients  patient.Repository
	accounts  account.Repository
	numbers   labnumber.Repository
	labs      lab.Repository
	radiology radiology.Repository
	clinical  clinical.Repository
	users     user.Repository

	tx      db.Transactor
	seq     sequence.Sequencer
	checks  []db.Check
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	var (
		st  *stores
		err error
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		st, err = openPostgres(ctx, cfg)
	case config.BackendMongo:
		st, err = openMongo(ctx, cfg)
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		st = memoryStores()
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RedisURL != "" {
		client, err := sequence.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			st.close()
			return nil, err
		}
		st.seq = sequence.NewRedis(client)
		st.checks = append(st.checks, sequence.RedisCheck(client))
		st.closers = append(st.closers, func() { client.Close() })
		logger.Info().Msg("lab number sequences kept in redis")
	}
	return st, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*stores, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, err
	}
	return postgresStores(pool), nil
}

func postgresStores(pool *pgxpool.Pool) *stores {
	return &stores{
		patients:  patient.NewRepo(pool),
		accounts:  account.NewRepo(pool),
		numbers:   labnumber.NewRepo(pool),
		labs:      lab.NewRepo(pool),
		radiology: radiology.NewRepo(pool),
		clinical:  clinical.NewRepo(pool),
		users:     user.NewRepo(pool),
		tx:        db.PoolTransactor{Pool: pool},
		seq:       sequence.NewPostgres(pool),
		checks:    []db.Check{db.PoolCheck(pool)},
		closers:   []func(){pool.Close},
	}
}

func openMongo(ctx context.Context, cfg *config.Config) (*stores, error) {
	client, database, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	st, err := mongoStores(ctx, database)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	st.checks = []db.Check{docstore.Check(client)}
	st.closers = []func(){func() { _ = client.Disconnect(context.Background()) }}
	return st, nil
}

func mongoStores(ctx context.Context, database *mongo.Database) (*stores, error) {
	st := &stores{tx: db.NoTx{}, seq: sequence.NewMongo(database)}
	var err error
	if st.patients, err = patient.NewMongoRepo(ctx, database); err != nil {
		return nil, err
	}
	if st.accounts, err = account.NewMongoRepo(ctx, database); err != nil {
		return nil, err
	}
	if st.numbers, err = labnumber.NewMongoRepo(ctx, database); err != nil {
		return nil, err
	}
	if st.labs, err = lab.NewMongoRepo(ctx, database); err != nil {
		return nil, err
	}
	if st.radiology, err = radiology.NewMongoRepo(ctx, database); err != nil {
		return nil, err
	}
	if st.clinical, err = clinical.NewMongoRepo(ctx, database); err != nil {
		return nil, err
	}
	if st.users, err = user.NewMongoRepo(ctx, database); err != nil {
		return nil, err
	}
	return st, nil
}

func memoryStores() *stores {
	return &stores{
		patients:  patient.NewMemoryRepo(),
		accounts:  account.NewMemoryRepo(),
		numbers:   labnumber.NewMemoryRepo(),
		labs:      lab.NewMemoryRepo(),
		radiology: radiology.NewMemoryRepo(),
		clinical:  clinical.NewMemoryRepo(),
		users:     user.NewMemoryRepo(),
		tx:        db.NoTx{},
		seq:       sequence.NewMemory(),
	}
}

// newServer builds the Echo instance with middleware, domain routes and
// health checks.
func newServer(cfg *config.Config, logger zerolog.Logger, st *stores, signingKey []byte) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{panel.DroppedFieldsHeader, echo.HeaderContentDisposition},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Auth middleware
	tokens := auth.NewTokens(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		SigningKey: signingKey,
		TTL:        cfg.AuthTokenTTL,
	})
	if cfg.ResolvedAuthMode() == config.AuthModeDevelopment {
		e.Use(auth.DevAuthMiddleware(tokens))
	} else {
		e.Use(auth.JWTMiddleware(tokens, auth.AuthSkipper))
	}

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(st.checks...))

	// Lab number issuer
	var gen labnumber.Generator = labnumber.NewTimestampGenerator()
	if cfg.LabNumberStrategy == config.StrategyPassport {
		gen = labnumber.NewPassportGenerator(st.seq)
	}
	numberSvc := labnumber.NewService(st.numbers, gen)

	var issued lab.NumberLookup
	if cfg.RequireIssuedLabNumber {
		issued = numberSvc
	}

	// Domain services
	patientSvc := patient.NewService(st.patients)
	accountSvc := account.NewService(st.accounts)
	labSvc := lab.NewService(st.labs, issued)
	radiologySvc := radiology.NewService(st.radiology, issued)
	clinicalSvc := clinical.NewService(st.clinical, st.tx, map[string]clinical.Snapshotter{
		clinical.SourceLab:       labSvc,
		clinical.SourceRadiology: radiologySvc,
	})
	userSvc := user.NewService(st.users, tokens)

	api := e.Group("")
	patient.NewHandler(patientSvc, cfg.UploadMaxBytes).RegisterRoutes(api)
	account.NewHandler(accountSvc).RegisterRoutes(api)
	labnumber.NewHandler(numberSvc).RegisterRoutes(api)
	lab.NewHandler(labSvc, cfg.UploadMaxBytes).RegisterRoutes(api)
	radiology.NewHandler(radiologySvc, cfg.UploadMaxBytes).RegisterRoutes(api)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(api)
	user.NewHandler(userSvc).RegisterRoutes(api)

	return e
}
