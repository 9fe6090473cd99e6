// Package config manages zonetool settings. Values come from built-in
// defaults, an optional .env file, ~/.zonetool/config.yaml (or --config), and
// ZONETOOL_* environment variables, in increasing priority. The config file
// can be checked against an embedded JSON schema with Validate.
package config
