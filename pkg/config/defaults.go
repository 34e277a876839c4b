package config

import "time"

// Default configuration values.
const (
	// DefaultPort is the default TCP port the RSVP server listens on
	DefaultPort = "7777"

	// DefaultLogLevel is the default process log level
	DefaultLogLevel = "INFO"

	// DefaultAuditType is the default audit sink type
	DefaultAuditType = "file"

	// DefaultAuditPath is the default audit log file
	DefaultAuditPath = "rsvpd.log"

	// DefaultReadTimeout bounds reading a single request
	DefaultReadTimeout = 30 * time.Second

	// DefaultWriteTimeout bounds writing a single response
	DefaultWriteTimeout = 30 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultMetricsPort is the default Prometheus scrape port
	DefaultMetricsPort = 9090
)

// ApplyDefaults fills in zero-valued fields with default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = cfg.Server.RateLimit * 2
	}

	if cfg.Audit.Type == "" {
		cfg.Audit.Type = DefaultAuditType
	}
	if cfg.Audit.Type == "file" {
		if cfg.Audit.File == nil {
			cfg.Audit.File = map[string]any{}
		}
		if _, ok := cfg.Audit.File["path"]; !ok {
			cfg.Audit.File["path"] = DefaultAuditPath
		}
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}
}
