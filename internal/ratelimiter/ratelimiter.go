package ratelimiter

import "time"

// Limiter decides whether one more request from key fits in its budget. When
// it does not, the duration is how long until the budget resets.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int           `env:"REQUESTS_COUNT" envDefault:"30"`
	TimeFrame            time.Duration `env:"TIME_FRAME" envDefault:"1m"`
	Enabled              bool          `env:"ENABLED" envDefault:"false"`
}
