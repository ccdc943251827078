package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Auth struct {
		JWTSecret   string `env:"JWT_SECRET,required"`
		TokenTTLMin int    `env:"TOKEN_TTL_MIN" envDefault:"1440"`

		// Exact-match admin identities. A session whose email appears here
		// resolves to admin before any store lookup.
		AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

		// Bootstrap activation code. Empty disables it entirely; when set it
		// is honored only while no admin profile exists yet.
		MasterCode string `env:"MASTER_CODE" envDefault:""`

		// Phone-number accounts are stored under a synthetic email on this
		// domain, matching the auth provider's email-only account model.
		PhoneEmailDomain string `env:"PHONE_EMAIL_DOMAIN" envDefault:"members.agrihub.local"`

		ResetTokenTTLMin int `env:"RESET_TOKEN_TTL_MIN" envDefault:"30"`
	}

	Telegram struct {
		BotToken       string `env:"BOT_TOKEN" envDefault:""`
		InitDataTTLSec int    `env:"INIT_DATA_TTL_SEC" envDefault:"86400"`
	}

	Chat struct {
		// Additional restricted channel ids appended to the built-in set at
		// deploy time (comma separated).
		ExtraChannels []string `env:"EXTRA_CHANNELS" envSeparator:","`

		HistoryLimit int `env:"CHAT_HISTORY_LIMIT" envDefault:"500"`
	}

	Workers struct {
		ChatTrimCron string `env:"CHAT_TRIM_CRON" envDefault:"@every 10m"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Missing .env is fine; in production the variables are set directly.
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
