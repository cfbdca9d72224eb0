package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	infisical "github.com/infisical/go-sdk"
	"github.com/shopspring/decimal"

	"github.com/web3-frozen/anchor-autopilot/internal/chain"
	"github.com/web3-frozen/anchor-autopilot/internal/txlog"
)

type Config struct {
	Port           string
	LogLevel       slog.Level
	DatabaseURL    string
	FrontendOrigin string
	RedisURL       string
	RedisPassword  string

	LCDURL            string
	FCDURL            string
	AnchorAPIURL      string
	SpectrumAPIURL    string
	AirdropAPIURL     string
	ChainID           string
	RequestsPerSecond int

	WalletAddress string
	StableDenom   string
	ContractsFile string

	TickInterval time.Duration
	Scan         txlog.Policy
	Settings     Settings
}

func Load() Config {
	scan := txlog.DefaultPolicy()
	cfg := Config{
		Port:           envOr("PORT", "8080"),
		LogLevel:       envLevel("LOG_LEVEL", slog.LevelInfo),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),

		LCDURL:            envOr("LCD_URL", chain.DefaultLCD),
		FCDURL:            envOr("FCD_URL", chain.DefaultFCD),
		AnchorAPIURL:      envOr("ANCHOR_API_URL", "https://api.anchorprotocol.com"),
		SpectrumAPIURL:    envOr("SPECTRUM_API_URL", "https://specapi.finance"),
		AirdropAPIURL:     envOr("AIRDROP_API_URL", "https://airdrop.anchorprotocol.com"),
		ChainID:           envOr("CHAIN_ID", "columbus-5"),
		RequestsPerSecond: envInt("REQUESTS_PER_SECOND", 10),

		WalletAddress: os.Getenv("WALLET_ADDRESS"),
		StableDenom:   envOr("STABLE_DENOM", "uusd"),
		ContractsFile: os.Getenv("CONTRACTS_FILE"),

		TickInterval: envDuration("TICK_INTERVAL", time.Second),
		Scan: txlog.Policy{
			Budget:        envDuration("SCAN_BUDGET", scan.Budget),
			Target:        envInt("SCAN_TARGET", scan.Target),
			DepositTarget: envInt("DEPOSIT_SCAN_TARGET", scan.DepositTarget),
			PageSize:      envInt("SCAN_PAGE_SIZE", scan.PageSize),
			MaxFailures:   envInt("SCAN_MAX_FAILURES", scan.MaxFailures),
		},
		Settings: loadSettings(),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL",
		"http://infisical-infisical-standalone-infisical.infisical.svc.cluster.local:8080")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"WALLET_ADDRESS": &cfg.WalletAddress,
		"DATABASE_URL":   &cfg.DatabaseURL,
		"REDIS_PASSWORD": &cfg.RedisPassword,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		slog.Warn("invalid decimal, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func envLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
		slog.Warn("invalid log level, using default", "key", key, "value", v)
		return fallback
	}
	return l
}
