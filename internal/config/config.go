// loads up the .env files and environment into the one Config used to wire Waitingway.

package config

import (
	"Waitingway/pkg/db"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds every setting Waitingway reads at startup.
// It is built once in main and handed to each component constructor.
type Config struct {
	Env         string
	Version     string
	SrvAddr     string
	SrvPort     string
	MetricsAddr string
	CORSOrigin  string

	Redis       db.RedisConfig
	DatabaseURL string

	// 32 byte key sealing notification tokens
	UpdatesKey []byte
	// bcrypt hash of the shared client secret used with Basic auth
	ClientSecretHash string
	// HS256 secret for Bearer tokens, Bearer auth is disabled when empty
	JWTSecret string

	Discord DiscordConfig

	QueueSizeDMThreshold uint32
	PublishChunkSize     int

	Travel TravelConfig
}

type DiscordConfig struct {
	APIURL   string
	BotToken string
}

// TravelConfig drives the travel state refresher and the connector it spawns.
type TravelConfig struct {
	Period  time.Duration
	Timeout time.Duration

	ConnectorPath     string
	LobbyHosts        []string
	VersionFile       string
	Username          string
	Password          string
	UIDCachePath      string
	UIDCacheTTL       int
	DCTokenCachePath  string
	DCTokenCacheTTL   int
	ProhibitedErrCode string
}

// Default values applied when the matching key is absent.
const (
	DefaultPublishChunkSize     = 32
	DefaultQueueSizeDMThreshold = 50
	DefaultTravelPeriod         = time.Minute
	DefaultTravelTimeout        = 30 * time.Second
	DefaultDiscordAPIURL        = "https://discord.com/api/v10"
	DefaultProhibitedErrCode    = "TRAVEL_PROHIBITED"
)

// Load reads the dotenv file at path (if any) and returns the resolved Config.
// A missing file is only fatal when ENV=DEV, production injects plain environment variables.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && os.Getenv("ENV") == "DEV" {
			return nil, errors.Wrapf(err, "loading %s", path)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the Config from a lookup function, tests pass a map backed getter.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}
	threshold := p.integer("QUEUE_SIZE_DM_THRESHOLD", DefaultQueueSizeDMThreshold)
	if threshold < 0 {
		p.fail("QUEUE_SIZE_DM_THRESHOLD", "must not be negative")
		threshold = DefaultQueueSizeDMThreshold
	}
	cfg := &Config{
		Env:         p.str("ENV", "PROD"),
		Version:     p.str("VERSION", "dev"),
		SrvAddr:     p.str("SRV_ADDR", "0.0.0.0"),
		SrvPort:     p.str("SRV_PORT", "8080"),
		MetricsAddr: p.str("METRICS_ADDR", "127.0.0.1:9090"),
		CORSOrigin:  p.str("CORS_ORIGIN", "*"),
		Redis: db.RedisConfig{
			Addr:      p.required("REDIS_ADDR"),
			Port:      p.str("REDIS_PORT", "6379"),
			Password:  p.str("REDIS_PASSWORD", ""),
			DB:        p.integer("REDIS_DB_NUMBER", 0),
			Namespace: p.str("REDIS_NAMESPACE", "waitingway"),
		},
		DatabaseURL:      p.required("DATABASE_URL"),
		UpdatesKey:       p.key("UPDATES_KEY"),
		ClientSecretHash: p.required("CLIENT_SECRET_HASH"),
		JWTSecret:        p.str("JWT_SECRET", ""),
		Discord: DiscordConfig{
			APIURL:   p.str("DISCORD_API_URL", DefaultDiscordAPIURL),
			BotToken: p.required("DISCORD_BOT_TOKEN"),
		},
		QueueSizeDMThreshold: uint32(threshold),
		PublishChunkSize:     p.integer("PUBLISH_CHUNK_SIZE", DefaultPublishChunkSize),
		Travel: TravelConfig{
			Period:            p.duration("TRAVEL_PERIOD", DefaultTravelPeriod),
			Timeout:           p.duration("TRAVEL_TIMEOUT", DefaultTravelTimeout),
			ConnectorPath:     p.required("STASIS_CONNECTOR_PATH"),
			LobbyHosts:        p.list("STASIS_LOBBY_HOSTS"),
			VersionFile:       p.required("STASIS_VERSION_FILE"),
			Username:          p.required("STASIS_USERNAME"),
			Password:          p.required("STASIS_PASSWORD"),
			UIDCachePath:      p.str("STASIS_UID_CACHE_PATH", "uid-cache.json"),
			UIDCacheTTL:       p.integer("STASIS_UID_CACHE_TTL", 3600),
			DCTokenCachePath:  p.str("STASIS_DC_TOKEN_CACHE_PATH", "dc-token-cache.json"),
			DCTokenCacheTTL:   p.integer("STASIS_DC_TOKEN_CACHE_TTL", 3600),
			ProhibitedErrCode: p.str("STASIS_PROHIBITED_ERRCODE", DefaultProhibitedErrCode),
		},
	}
	if cfg.PublishChunkSize <= 0 {
		p.fail("PUBLISH_CHUNK_SIZE", "must be positive")
	}
	if len(cfg.Travel.LobbyHosts) == 0 {
		p.fail("STASIS_LOBBY_HOSTS", "at least one host is required")
	}
	if len(p.problems) != 0 {
		return nil, errors.Errorf("invalid configuration: %s", strings.Join(p.problems, "; "))
	}
	return cfg, nil
}

// IsDev reports whether Waitingway runs in the DEV environment.
func (c *Config) IsDev() bool {
	return c.Env == "DEV"
}

// parser collects every configuration problem instead of stopping at the first one.
type parser struct {
	getenv   func(string) string
	problems []string
}

func (p *parser) fail(key, reason string) {
	p.problems = append(p.problems, fmt.Sprintf("%s %s", key, reason))
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) required(key string) string {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		p.fail(key, "is required")
	}
	return v
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Couldn't convert to int
		p.fail(key, "is not an integer")
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.fail(key, "is not a positive duration")
		return def
	}
	return d
}

func (p *parser) list(key string) []string {
	var out []string
	for _, item := range strings.Split(p.getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// key decodes a hex encoded 256-bit key.
func (p *parser) key(key string) []byte {
	v := p.required(key)
	if v == "" {
		return nil
	}
	raw, err := hex.DecodeString(v)
	if err != nil {
		p.fail(key, "is not hex encoded")
		return nil
	}
	if len(raw) != 32 {
		p.fail(key, "must decode to 32 bytes")
		return nil
	}
	return raw
}
