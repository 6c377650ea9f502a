// Package config loads the settings of a prompting run.
//
// A Config can be read from TOML, YAML or JSON; the format is chosen by file
// extension. Environment variables with the DIALOGKIT_ prefix override file
// values, and LoadDotEnv reads a .env file into the environment first:
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load("run.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Durations are written as strings such as "30s" or "5m" in every format.
// Schema returns the JSON Schema of Config for editor integration.
package config
