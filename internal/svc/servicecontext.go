package svc

import (
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "finsight-api/internal/cache"
	"finsight-api/internal/candles"
	"finsight-api/internal/config"
	"finsight-api/internal/history"
	"finsight-api/internal/indicator"
	"finsight-api/internal/repo"
	"finsight-api/internal/valuation"
	"finsight-api/pkg/marketdata"
	_ "finsight-api/pkg/marketdata/finnhub" // register finnhub provider
)

// ServiceContext wires configuration, storage and the analytics engines
// together for binaries and handlers to consume.
type ServiceContext struct {
	Config config.Config

	DBConn sqlx.SqlConn
	Repos  *repo.Set

	MarketConfig    *marketdata.Config
	MarketProviders map[string]marketdata.Provider
	DefaultMarket   marketdata.Provider

	Candles   *candles.Source
	Valuation *valuation.Engine
	Indicator *indicator.Service
	History   *history.Engine
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{Config: c}

	marketCfg := c.Market.Value
	if marketCfg == nil {
		marketCfg = marketdata.MustLoad()
	}
	providers, err := marketCfg.BuildProviders()
	if err != nil {
		log.Fatalf("failed to build market providers: %v", err)
	}
	provider, ok := providers[marketCfg.Default]
	if !ok {
		log.Fatalf("default market provider %q not found", marketCfg.Default)
	}
	svc.MarketConfig = marketCfg
	svc.MarketProviders = providers
	svc.DefaultMarket = provider

	var store candles.Store = candles.NopStore{}
	if strings.TrimSpace(c.Redis.Host) != "" {
		store = candles.NewRedisStore(redis.MustNewRedis(c.Redis))
	}
	svc.Candles = candles.NewSource(provider, store, cachekeys.NewTTLSet(c.TTL))

	if c.Postgres.DSN == "" {
		log.Fatalf("postgres DSN is required")
	}
	svc.DBConn = sqlx.NewSqlConn("pgx", c.Postgres.DSN)
	repos, err := repo.New(repo.Dependencies{DBConn: svc.DBConn})
	if err != nil {
		log.Fatalf("failed to build repositories: %v", err)
	}
	svc.Repos = repos

	svc.Valuation = valuation.NewEngine(svc.Candles)
	svc.Indicator = indicator.NewService(repos.Companies, svc.Candles)
	svc.History = history.NewEngine(repos.Portfolios, repos.Snapshots, svc.Candles, svc.Valuation, c.Snapshot.BackfillDays)

	return svc
}
