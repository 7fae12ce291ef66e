package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/crmarques/vaultapi/faults"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var envBindings = map[string]string{
	"address":                  EnvAddress,
	"token":                    EnvToken,
	"timeout":                  EnvClientTimeout,
	"tls.ca-cert-file":         EnvCACert,
	"tls.ca-path":              EnvCAPath,
	"tls.client-cert-file":     EnvClientCert,
	"tls.client-key-file":      EnvClientKey,
	"tls.server-name":          EnvServerName,
	"tls.insecure-skip-verify": EnvSkipVerify,
}

// flagBindings maps configuration keys to the persistent CLI flags that may
// override them. Flags only win when they were set explicitly.
var flagBindings = map[string]string{
	"address": "address",
	"token":   "token",
	"timeout": "timeout",
}

// Load resolves the Vault settings from, in increasing order of precedence:
// the YAML file at path (or vaultctl.yaml in the user config dir and the
// working directory when path is empty), VAULT_* environment variables and
// explicitly set flags.
func Load(flags *pflag.FlagSet, path string) (Vault, error) {
	v := viper.New()
	v.SetDefault("timeout", "30s")

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, DefaultConfigName))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || strings.TrimSpace(path) != "" {
			return Vault{}, validationError("configuration file could not be read", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Vault{}, validationError("configuration environment binding failed", err)
		}
	}

	if flags != nil {
		for key, name := range flagBindings {
			flag := flags.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Vault{}, validationError("configuration flag binding failed", err)
			}
		}
	}

	var cfg Vault
	if err := v.Unmarshal(&cfg); err != nil {
		return Vault{}, validationError("configuration is invalid", err)
	}
	if cfg.TLS.isZero() {
		cfg.TLS = nil
	}

	return cfg, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
