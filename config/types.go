package config

import "time"

const (
	EnvAddress       = "VAULT_ADDR"
	EnvToken         = "VAULT_TOKEN"
	EnvCACert        = "VAULT_CACERT"
	EnvCAPath        = "VAULT_CAPATH"
	EnvClientCert    = "VAULT_CLIENT_CERT"
	EnvClientKey     = "VAULT_CLIENT_KEY"
	EnvSkipVerify    = "VAULT_SKIP_VERIFY"
	EnvServerName    = "VAULT_TLS_SERVER_NAME"
	EnvClientTimeout = "VAULT_CLIENT_TIMEOUT"

	DefaultConfigName = "vaultctl"
)

// Vault holds the connection settings for one Vault server.
type Vault struct {
	Address string        `mapstructure:"address" yaml:"address"`
	Token   string        `mapstructure:"token" yaml:"token,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
	TLS     *TLS          `mapstructure:"tls" yaml:"tls,omitempty"`
}

// TLS mirrors the VAULT_CACERT family of settings. CACertFile and CAPath
// may be combined; every PEM certificate found is trusted.
type TLS struct {
	CACertFile         string `mapstructure:"ca-cert-file" yaml:"ca-cert-file,omitempty"`
	CAPath             string `mapstructure:"ca-path" yaml:"ca-path,omitempty"`
	ClientCertFile     string `mapstructure:"client-cert-file" yaml:"client-cert-file,omitempty"`
	ClientKeyFile      string `mapstructure:"client-key-file" yaml:"client-key-file,omitempty"`
	ServerName         string `mapstructure:"server-name" yaml:"server-name,omitempty"`
	InsecureSkipVerify bool   `mapstructure:"insecure-skip-verify" yaml:"insecure-skip-verify,omitempty"`
}

func (t *TLS) isZero() bool {
	return t == nil || *t == TLS{}
}
