// Package config loads and validates asset registry configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables. Secrets (database DSN, broker and Redis
// passwords, InfluxDB token) belong in the environment or a .env file rather
// than the YAML file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.API.Port)
package config
