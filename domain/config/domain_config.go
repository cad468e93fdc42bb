package config

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Content constraints
	MaxTitleLength   int
	MaxContentLength int
	MaxItemsPerNode  int

	// Pipeline constraints
	MaxPipelineSteps int

	// Buffer constraints
	MaxOpenBuffers    int // 0 means unlimited; eviction skips pinned buffers
	DefaultBufferName string

	// Validation settings
	AllowEmptyContent bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxTitleLength:   200,
		MaxContentLength: 500000,
		MaxItemsPerNode:  5000,

		MaxPipelineSteps: 20,

		MaxOpenBuffers:    0,
		DefaultBufferName: "Untitled",

		AllowEmptyContent: false,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()

	cfg.MaxContentLength = 200000
	cfg.MaxOpenBuffers = 32

	return cfg
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()

	cfg.AllowEmptyContent = true

	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
