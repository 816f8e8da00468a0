package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/combolock/internal/database"
	"github.com/robalobadob/combolock/internal/game"
	"github.com/robalobadob/combolock/internal/httpserver"
	"github.com/robalobadob/combolock/internal/search"
	"github.com/robalobadob/combolock/internal/store"
	"github.com/robalobadob/combolock/internal/symbols"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := symbols.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load alphabet")
	}

	db, err := database.Open(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	cfg := httpserver.Config{
		Alphabet:          symbols.Alphabet(),
		Length:            getEnvInt("COMBO_LENGTH", search.DefaultLength),
		MaxGuesses:        getEnvInt("MAX_GUESSES", game.DefaultRows),
		MaxLength:         getEnvInt("MAX_LENGTH", httpserver.DefaultMaxLength),
		SearchMaxAttempts: int64(getEnvInt("SEARCH_MAX_ATTEMPTS", 1_000_000)),
		DailySalt:         getEnv("DAILY_SALT", "local_dev_salt"),
	}
	mem := store.NewMemoryStore()
	go pruneGames(mem, getEnvDuration("GAME_TTL", 24*time.Hour))

	srv := httpserver.New(mem, db, cfg)

	port := getEnv("PORT", "5175")
	log.Info().
		Str("port", port).
		Strs("alphabet", cfg.Alphabet).
		Int("symbols", symbols.Stats()).
		Int("length", cfg.Length).
		Msg("starting combolock")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses k as an int; unset or malformed values yield def.
func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring malformed integer")
		return def
	}
	return n
}

// getEnvDuration parses k with time.ParseDuration; unset or malformed values yield def.
func getEnvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring malformed duration")
		return def
	}
	return d
}

// pruneGames drops in-memory games older than ttl, checking every ttl/4 (at least a minute).
func pruneGames(st store.Store, ttl time.Duration) {
	every := ttl / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for range t.C {
		n, err := st.Prune(context.Background(), time.Now().Add(-ttl))
		if err != nil {
			log.Warn().Err(err).Msg("prune games")
			continue
		}
		if n > 0 {
			log.Info().Int("removed", n).Msg("pruned stale games")
		}
	}
}
