package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/weightlab/wamm/internal/clock"
	"github.com/weightlab/wamm/internal/config"
	"github.com/weightlab/wamm/internal/engine"
	"github.com/weightlab/wamm/internal/ledger"
	"github.com/weightlab/wamm/internal/logger"
	"github.com/weightlab/wamm/internal/state"
	"github.com/weightlab/wamm/internal/types"
	"github.com/weightlab/wamm/internal/web"
)

const custodyAccount = "wamm-custody"

// main is the entry point for the weighted pool engine daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Weighted pool engine starting...")

	// Initialize database connection for event persistence (optional)
	var (
		sink   types.EventSink
		source web.EventSource
	)
	if config.DBEnabled {
		dbCfg := state.DBConfig{
			Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
			User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
			DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
		}
		if err := state.InitDB(dbCfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		sink = state.DBSink{}
		source = web.DBEventSource{}
	} else {
		log.Info().Msg("DB_HOST not set, retaining events in memory only")
		memSink := state.NewMemorySink(4096)
		sink = memSink
		source = web.MemoryEventSource{Sink: memSink}
	}

	// --- 2. Engine Initialization ---
	clk := clock.NewInterval(time.Now(), config.BlockInterval)

	tokens := ledger.NewMemory(custodyAccount)
	// Pre-fund custody with the reward token so claims can pay out.
	tokens.Mint(config.RewardDenom, custodyAccount, sdkmath.NewIntWithDecimal(1, 24))

	eng, err := engine.New(engine.Config{
		Owner:            config.OwnerAddress,
		RewardDenom:      config.RewardDenom,
		EmissionPerBlock: sdkmath.NewIntFromUint64(config.RewardPerBlock),
		Ledger:           tokens,
		Clock:            clk,
		Sink:             sink,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize pool engine")
	}

	log.Info().
		Str("owner", config.OwnerAddress).
		Str("reward_denom", config.RewardDenom).
		Uint64("reward_per_block", config.RewardPerBlock).
		Dur("block_interval", config.BlockInterval).
		Msg("Pool engine initialized")

	// --- 3. Web Server ---
	webServer := web.NewWebServer(config.WebPort, eng, clk, source, config.DBEnabled)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting pool API server")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 4. Wait for Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received, exiting")
}

func mustAtoi(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
