package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// OwnerAddress is the administrative account allowed to create pools,
	// change emission parameters, and pause the engine.
	OwnerAddress string

	// RewardDenom is the token in which block rewards are paid.
	RewardDenom string
	// RewardPerBlock is the total emission per block, in base units.
	RewardPerBlock uint64

	// BlockInterval is the wall-clock duration of one synthetic block.
	BlockInterval time.Duration

	// WebPort is the listen port of the read-only HTTP API.
	WebPort string

	// DBEnabled toggles PostgreSQL event persistence. Without it events are
	// retained in memory only.
	DBEnabled bool
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	OwnerAddress, err = getEnv("WAMM_OWNER_ADDRESS")
	if err != nil {
		return err
	}

	RewardDenom, err = getEnv("WAMM_REWARD_DENOM")
	if err != nil {
		return err
	}

	RewardPerBlock, err = getEnvAsUint64("WAMM_REWARD_PER_BLOCK")
	if err != nil {
		return err
	}

	intervalMs, err := getEnvAsUint64("WAMM_BLOCK_INTERVAL_MS")
	if err != nil {
		return err
	}
	if intervalMs == 0 {
		return errors.New("environment variable WAMM_BLOCK_INTERVAL_MS must be positive")
	}
	BlockInterval = time.Duration(intervalMs) * time.Millisecond

	WebPort = os.Getenv("WEB_PORT")
	if WebPort == "" {
		WebPort = "8080"
	}

	DBEnabled = os.Getenv("DB_HOST") != ""

	log.Debug().
		Str("OwnerAddress", OwnerAddress).
		Str("RewardDenom", RewardDenom).
		Uint64("RewardPerBlock", RewardPerBlock).
		Dur("BlockInterval", BlockInterval).
		Bool("DBEnabled", DBEnabled).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}
