package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the arcade client and the
// reference resource server.
// Note: the session keystore passphrase is prompted at runtime and held in
// memory - use GetPassphraseBytes()
type Config struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	RPCURL             string        `envconfig:"ARCADE_RPC_URL" default:"https://api.devnet.solana.com"`
	PlatformWallet     string        `envconfig:"ARCADE_PLATFORM_WALLET"`
	ServerURL          string        `envconfig:"ARCADE_SERVER_URL" default:"http://localhost:8081/api/start-game"`
	USDCMint           string        `envconfig:"ARCADE_USDC_MINT"`
	FeeReserveLamports uint64        `envconfig:"ARCADE_FEE_RESERVE_LAMPORTS" default:"5000"`
	PollInterval       time.Duration `envconfig:"ARCADE_POLL_INTERVAL" default:"5s"`
	SessionKeyPath     string        `envconfig:"ARCADE_SESSION_KEY_PATH"`
	PrimaryKeyPath     string        `envconfig:"ARCADE_PRIMARY_KEY_PATH"`
	PassphrasePrompt   bool          `envconfig:"ARCADE_SESSION_PASSPHRASE_PROMPT" default:"false"`
	LogLevel           string        `envconfig:"ARCADE_LOG_LEVEL" default:"info"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.SessionKeyPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve config dir: %w", err)
		}
		cfg.SessionKeyPath = filepath.Join(dir, "arcade-sol", "session.key")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetRPCURL returns the Solana RPC URL from configuration
func GetRPCURL() string {
	return Get().RPCURL
}

// GetPlatformWallet returns the platform recipient address
func GetPlatformWallet() string {
	return Get().PlatformWallet
}

// GetServerURL returns the arcade resource server endpoint
func GetServerURL() string {
	return Get().ServerURL
}

// GetUSDCMint returns the configured SPL mint, empty if native-only
func GetUSDCMint() string {
	return Get().USDCMint
}

// GetFeeReserveLamports returns the fixed fee reserve used by funding pre-flight
func GetFeeReserveLamports() uint64 {
	return Get().FeeReserveLamports
}

// GetPollInterval returns the balance poll interval
func GetPollInterval() time.Duration {
	return Get().PollInterval
}

// GetSessionKeyPath returns path to the session keystore file
func GetSessionKeyPath() string {
	return Get().SessionKeyPath
}

// GetPrimaryKeyPath returns path to the optional primary keystore file
func GetPrimaryKeyPath() string {
	return Get().PrimaryKeyPath
}

var passphraseBytes []byte

// PromptForPassphrase prompts for the session keystore passphrase in the
// terminal. The passphrase is read without echoing and stored in memory.
// Call this at startup before the daemon begins handling requests.
// Skipped entirely unless ARCADE_SESSION_PASSPHRASE_PROMPT is set: the
// session key is disposable by design and plaintext storage is the default.
func PromptForPassphrase() error {
	if !Get().PassphrasePrompt {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: run the app interactively to enter passphrase")
	}
	fmt.Fprint(os.Stderr, "Enter session keystore passphrase: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("passphrase cannot be empty")
	}

	passphraseBytes = make([]byte, len(raw))
	copy(passphraseBytes, raw)
	clear(raw)
	return nil
}

// GetPassphraseBytes returns a copy of the passphrase stored in memory, or nil
// when no passphrase is in use (plaintext keystore mode).
// Caller must zero the returned slice after use.
func GetPassphraseBytes() []byte {
	if len(passphraseBytes) == 0 {
		return nil
	}
	out := make([]byte, len(passphraseBytes))
	copy(out, passphraseBytes)
	return out
}
