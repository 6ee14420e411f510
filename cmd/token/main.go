// Command token mints a bearer token for local development, signed with the
// same JWT_SECRET the server verifies against.
//
//	JWT_SECRET=dev go run ./cmd/token -user alice -name Alice
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mmynk/tripsplit/internal/auth"
	"github.com/mmynk/tripsplit/internal/config"
	"github.com/mmynk/tripsplit/pkg/logging"
)

type tokenConfig struct {
	JWTSecret     string        `env:"JWT_SECRET,required,notEmpty"`
	TokenDuration time.Duration `env:"JWT_TOKEN_DURATION" envDefault:"24h"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"warn"`
}

func main() {
	userID := flag.String("user", "", "user ID to put in the token")
	displayName := flag.String("name", "", "display name (optional)")
	flag.Parse()

	var cfg tokenConfig
	if err := config.ParseEnv(&cfg); err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	if *userID == "" {
		slog.Error("-user is required")
		flag.Usage()
		os.Exit(2)
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration).Generate(*userID, *displayName)
	if err != nil {
		slog.Error("Failed to generate token", "error", err)
		os.Exit(1)
	}

	slog.Debug("Token generated", "user_id", *userID, "expires_in", cfg.TokenDuration.String())
	fmt.Println(token)
}
