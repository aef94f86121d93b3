package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	RunAddress    string
	UpstreamAddress string
	UpstreamToken string
	DatabaseURI   string
	Key           string
	PollInterval  time.Duration
	RateLimit     string
	Logger        *zap.SugaredLogger
}

func NewConfig() *Config {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stdout", "server.log"}

	logger := zap.Must(logCfg.Build())

	if err := godotenv.Load(); err != nil {
		logger.Sugar().Info("no .env file found, using environment variables")
	}

	cfg := &Config{}
	var pollSeconds int
	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "HTTP server address")
	flag.StringVar(&cfg.UpstreamAddress, "u", "", "upstream order store address")
	flag.StringVar(&cfg.UpstreamToken, "t", "", "upstream service token")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "audit DB connection string")
	flag.StringVar(&cfg.Key, "k", "", "JWT signing key")
	flag.IntVar(&pollSeconds, "p", 30, "pending count poll interval, seconds")
	flag.StringVar(&cfg.RateLimit, "l", "100-M", "admin API rate limit")
	flag.Parse()

	cfg.PollInterval = time.Duration(pollSeconds) * time.Second
	cfg.Logger = logger.Sugar()

	ReadServerEnvironment(cfg)

	return cfg
}

func ReadServerEnvironment(cfg *Config) {
	if runAddress := os.Getenv("RUN_ADDRESS"); runAddress != "" {
		cfg.RunAddress = runAddress
	}

	if upstream := os.Getenv("UPSTREAM_ADDRESS"); upstream != "" {
		cfg.UpstreamAddress = upstream
	}

	if token := os.Getenv("UPSTREAM_TOKEN"); token != "" {
		cfg.UpstreamToken = token
	}

	if databaseURI := os.Getenv("DATABASE_URI"); databaseURI != "" {
		cfg.DatabaseURI = databaseURI
	}

	if key := os.Getenv("DATASHOP_KEY"); key != "" {
		cfg.Key = key
	}

	if poll := os.Getenv("POLL_INTERVAL"); poll != "" {
		if sec, err := strconv.Atoi(poll); err == nil && sec > 0 {
			cfg.PollInterval = time.Duration(sec) * time.Second
		}
	}

	if limit := os.Getenv("RATE_LIMIT"); limit != "" {
		cfg.RateLimit = limit
	}
}
