package config

import "os"

// Environment variables consulted by parseEnv.
const (
	EnvSecretKey   = "JWT_SECRET"
	EnvDatabaseDSN = "DATABASE_DSN"
	EnvHTTPAddr    = "HTTP_ADDR"
	EnvGRPCAddr    = "GRPC_ADDR"
	EnvStorageMode = "STORAGE_MODE"
	EnvLogLevel    = "LOG_LEVEL"
)

// parseEnv overlays non-empty environment variables. The signing secret is
// normally provided this way so it never lands in a config file.
func parseEnv(config *Config) {
	lookup := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	lookup(EnvSecretKey, &config.SecretKey)
	lookup(EnvDatabaseDSN, &config.DatabaseDSN)
	lookup(EnvHTTPAddr, &config.EndpointAddrHTTP)
	lookup(EnvGRPCAddr, &config.EndpointAddrGRPC)
	lookup(EnvStorageMode, &config.StorageMode)
	lookup(EnvLogLevel, &config.LogLevel)
}
