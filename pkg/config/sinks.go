package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/mariwald/rsvpd/internal/audit"
)

// fileSinkConfig represents file-sink configuration loaded from YAML.
type fileSinkConfig struct {
	Path string `mapstructure:"path"`
}

// NewAuditSink creates the audit sink described by the configuration.
//
// The sink type selects the implementation; its type-specific section is
// decoded separately so unknown sink types never pull in unrelated keys.
func NewAuditSink(cfg AuditConfig) (*audit.Sink, error) {
	switch cfg.Type {
	case "file":
		return createFileSink(cfg)
	case "stdout":
		return audit.NewWriterSink(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown audit sink type: %q", cfg.Type)
	}
}

// createFileSink creates an append-only file audit sink.
func createFileSink(cfg AuditConfig) (*audit.Sink, error) {
	// Decode file-specific configuration
	var fileCfg fileSinkConfig
	if err := mapstructure.Decode(cfg.File, &fileCfg); err != nil {
		return nil, fmt.Errorf("invalid file sink config: %w", err)
	}

	if fileCfg.Path == "" {
		fileCfg.Path = DefaultAuditPath
	}

	sink, err := audit.NewFileSink(fileCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return sink, nil
}
