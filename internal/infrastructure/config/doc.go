// Package config handles loading and validating vidhub configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Token secrets and broker credentials should be set via environment variables
//   - Access and refresh secrets must be distinct and at least 32 characters
//   - Cookie Secure should only be disabled for local development
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
