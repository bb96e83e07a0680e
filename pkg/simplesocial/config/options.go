package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabaseURL selects the document store
func WithDatabaseURL(url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithStorageURL selects the blob store
func WithStorageURL(url string) Option {
	return func(c *ServerConfig) error {
		c.StorageURL = url
		return nil
	}
}

// WithFilesystemURLPrefix sets the public URL prefix of file:// storage
func WithFilesystemURLPrefix(prefix string) Option {
	return func(c *ServerConfig) error {
		c.FSURLPrefix = prefix
		return nil
	}
}

// WithAWSCredentials sets static S3 credentials
func WithAWSCredentials(accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if (accessKeyID == "") != (secretAccessKey == "") {
			return fmt.Errorf("access key id and secret access key must be set together")
		}
		c.AWSAccessKeyID = accessKeyID
		c.AWSSecretAccessKey = secretAccessKey
		return nil
	}
}

// WithPreviewStrategy selects how display URLs are derived. baseURL is the
// CDN base for the cdn strategy and the API base for app-routed; it is
// ignored otherwise.
func WithPreviewStrategy(strategy, baseURL string) Option {
	return func(c *ServerConfig) error {
		c.PreviewStrategy = strategy
		switch strategy {
		case PreviewStrategyCDN:
			c.CDNBaseURL = baseURL
		case PreviewStrategyAppRouted:
			if baseURL != "" {
				c.APIBaseURL = baseURL
			}
		}
		return nil
	}
}

// WithAvatarBaseURL enables initials avatars for profiles without an image
func WithAvatarBaseURL(baseURL string) Option {
	return func(c *ServerConfig) error {
		c.AvatarBaseURL = baseURL
		return nil
	}
}

// WithQueryCache enables or disables the read cache
func WithQueryCache(enabled bool, ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if enabled && ttl <= 0 {
			return fmt.Errorf("query cache ttl must be positive")
		}
		c.QueryCacheEnabled = enabled
		c.QueryCacheTTL = ttl
		return nil
	}
}

// WithEnrichmentConcurrency bounds concurrent creator lookups
func WithEnrichmentConcurrency(n int) Option {
	return func(c *ServerConfig) error {
		c.EnrichmentConcurrency = n
		return nil
	}
}

// WithJWTSecret sets the HS256 secret of session tokens
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithCORSOrigins sets the allowed CORS origins
func WithCORSOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.CORSAllowedOrigins = origins
		return nil
	}
}

// WithRateLimit sets the per-client request rate; rps 0 disables limiting
func WithRateLimit(rps float64, burst int) Option {
	return func(c *ServerConfig) error {
		c.RateLimitRPS = rps
		c.RateLimitBurst = burst
		return nil
	}
}

// WithMetricsRegisterer registers service metrics on reg
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *ServerConfig) error {
		c.registerer = reg
		return nil
	}
}

// WithLogger sets the logger handed to the service and the stores
func WithLogger(logger *slog.Logger) Option {
	return func(c *ServerConfig) error {
		c.logger = logger
		return nil
	}
}
