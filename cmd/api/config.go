package main

import (
	"time"

	"reviewhub/internal/ratelimiter"

	"github.com/caarlos0/env/v11"
)

type config struct {
	Addr   string `env:"ADDR" envDefault:":8080"`
	Env    string `env:"ENV" envDefault:"development"`
	APIURL string `env:"EXTERNAL_URL" envDefault:"localhost:8080"`

	DB     dbConfig     `envPrefix:"DB_"`
	Auth   authConfig   `envPrefix:"AUTH_"`
	Mail   mailConfig   `envPrefix:"SMTP_"`
	Push   pushConfig   `envPrefix:"EXPO_"`
	Events eventsConfig `envPrefix:"NATS_"`
	Refs   refsConfig   `envPrefix:"HASHIDS_"`

	RateLimiter ratelimiter.Config `envPrefix:"RATELIMITER_"`
}

type dbConfig struct {
	Addr         string `env:"ADDR,required"`
	MaxOpenConns int32  `env:"MAX_OPEN_CONNS" envDefault:"30"`
	MaxIdleTime  string `env:"MAX_IDLE_TIME" envDefault:"15m"`
	Migrate      bool   `env:"MIGRATE" envDefault:"true"`
}

type authConfig struct {
	Basic basicConfig `envPrefix:"BASIC_"`
	Token tokenConfig `envPrefix:"TOKEN_"`
}

type basicConfig struct {
	User string `env:"USER"`
	Pass string `env:"PASS"`
}

type tokenConfig struct {
	Secret string        `env:"SECRET,required"`
	Exp    time.Duration `env:"EXP" envDefault:"72h"`
	Iss    string        `env:"ISS" envDefault:"reviewhub"`
	Aud    string        `env:"AUD" envDefault:"reviewhub"`
}

// mailConfig is optional; without a host no emails are sent.
type mailConfig struct {
	Host      string `env:"HOST"`
	Port      int    `env:"PORT" envDefault:"587"`
	Username  string `env:"USERNAME"`
	Password  string `env:"PASSWORD"`
	FromEmail string `env:"FROM_EMAIL" envDefault:"no-reply@reviewhub.local"`
}

type pushConfig struct {
	AccessToken string `env:"ACCESS_TOKEN"`
	Enabled     bool   `env:"ENABLED" envDefault:"false"`
}

type eventsConfig struct {
	URL string `env:"URL"`
}

type refsConfig struct {
	Salt      string `env:"SALT" envDefault:"reviewhub"`
	MinLength int    `env:"MIN_LENGTH" envDefault:"8"`
}

func loadConfig() (config, error) {
	return env.ParseAs[config]()
}
