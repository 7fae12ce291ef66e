package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"strings"

	"github.com/crmarques/vaultapi/config"
	"github.com/crmarques/vaultapi/faults"
)

// Build returns nil when no TLS settings are configured so callers keep the
// transport defaults.
func Build(settings *config.TLS) (*tls.Config, error) {
	if settings == nil {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         strings.TrimSpace(settings.ServerName),
		InsecureSkipVerify: settings.InsecureSkipVerify,
	}

	pool, err := rootCAs(strings.TrimSpace(settings.CACertFile), strings.TrimSpace(settings.CAPath))
	if err != nil {
		return nil, err
	}
	tlsConfig.RootCAs = pool

	certificate, err := clientCertificate(settings)
	if err != nil {
		return nil, err
	}
	if certificate != nil {
		tlsConfig.Certificates = []tls.Certificate{*certificate}
	}

	return tlsConfig, nil
}

func rootCAs(caFile string, caPath string) (*x509.CertPool, error) {
	if caFile == "" && caPath == "" {
		return nil, nil
	}

	pool := x509.NewCertPool()
	if caFile != "" {
		if err := appendPEMFile(pool, caFile, "tls.ca-cert-file"); err != nil {
			return nil, err
		}
	}

	if caPath != "" {
		entries, err := os.ReadDir(caPath)
		if err != nil {
			return nil, validationError("tls.ca-path could not be read", err)
		}

		loaded := 0
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if err := appendPEMFile(pool, filepath.Join(caPath, entry.Name()), "tls.ca-path"); err != nil {
				return nil, err
			}
			loaded++
		}
		if loaded == 0 {
			return nil, validationError("tls.ca-path contains no certificates", nil)
		}
	}

	return pool, nil
}

func appendPEMFile(pool *x509.CertPool, path string, setting string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return validationError(setting+" could not be read", err)
	}
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return validationError(setting+" is not valid PEM: "+filepath.Base(path), nil)
	}
	return nil
}

func clientCertificate(settings *config.TLS) (*tls.Certificate, error) {
	certFile := strings.TrimSpace(settings.ClientCertFile)
	keyFile := strings.TrimSpace(settings.ClientKeyFile)
	if (certFile == "") != (keyFile == "") {
		return nil, validationError("tls requires both client-cert-file and client-key-file", nil)
	}
	if certFile == "" {
		return nil, nil
	}

	certificate, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, validationError("tls client certificate pair is invalid", err)
	}
	return &certificate, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
