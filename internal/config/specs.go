package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint   string  `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint   string  `envconfig:"otel_http_endpoint"`
	TracingEnabled     bool    `envconfig:"tracing_enabled" default:"true"`
	TracingSampleRatio float64 `envconfig:"tracing_sample_ratio" default:"1"`

	MonitoringEnabled bool `envconfig:"monitoring_enabled" default:"true"`

	KratosAdminURL string `envconfig:"kratos_admin_url"`

	InvitationLifetime      time.Duration `envconfig:"invitation_lifetime" default:"168h"`
	InvitationSweepInterval time.Duration `envconfig:"invitation_sweep_interval" default:"1h"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port     int `envconfig:"port" default:"8080"`
	GRPCPort int `envconfig:"grpc_port" default:"50051"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	AuthenticationEnabled         bool     `envconfig:"authentication_enabled" default:"true"`
	AuthenticationIssuer          string   `envconfig:"authentication_issuer"`
	AuthenticationJwksURL         string   `envconfig:"authentication_jwks_url"`
	AuthenticationAllowedSubjects []string `envconfig:"authentication_allowed_subjects"`
	AuthenticationRequiredScope   string   `envconfig:"authentication_required_scope"`

	CORSAllowedOrigins []string `envconfig:"cors_allowed_origins" default:"*"`

	RateLimitRequests int           `envconfig:"rate_limit_requests" default:"100"`
	RateLimitWindow   time.Duration `envconfig:"rate_limit_window" default:"1m"`
}
