package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Redis struct {
		// Addr empty means the in-process revocation registry is used,
		// which is only correct for a single-instance deployment.
		Addr string
	}
	Auth struct {
		JWTSecret              string
		AccessTTLMinutes       int
		RefreshTTLHours        int
		ConfirmationTTLMinutes int
	}
	Mailgun struct {
		Domain    string
		APIKey    string
		FromTitle string
		FromEmail string
	}
	App struct {
		// BaseURL is the absolute prefix confirmation links are built on.
		BaseURL string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("STORES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/stores.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.accessttlminutes", 15)
	v.SetDefault("auth.refreshttlhours", 720)
	v.SetDefault("auth.confirmationttlminutes", 60)
	v.SetDefault("mailgun.domain", "")
	v.SetDefault("mailgun.apikey", "")
	v.SetDefault("mailgun.fromtitle", "Stores REST API")
	v.SetDefault("mailgun.fromemail", "")
	v.SetDefault("app.baseurl", "http://127.0.0.1:8080")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
