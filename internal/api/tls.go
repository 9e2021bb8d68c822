package api

import (
	"crypto/tls"
	"log"
	"os"
	"sync"
	"time"
)

// TLSConfig holds the certificate and key paths for HTTPS.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

var tlsConfig *TLSConfig

// InitTLS configures HTTPS from explicit paths, falling back to
// SIGNAL_TLS_CERT and SIGNAL_TLS_KEY. TLS stays off unless both are set.
func InitTLS(certFile, keyFile string) {
	if certFile == "" {
		certFile = os.Getenv("SIGNAL_TLS_CERT")
	}
	if keyFile == "" {
		keyFile = os.Getenv("SIGNAL_TLS_KEY")
	}

	tlsConfig = nil
	switch {
	case certFile != "" && keyFile != "":
		tlsConfig = &TLSConfig{CertFile: certFile, KeyFile: keyFile}
	case certFile != "" || keyFile != "":
		log.Printf("tls: both certificate and key are required, serving plain HTTP")
	}
}

// IsTLSEnabled returns true if TLS is configured.
func IsTLSEnabled() bool {
	return tlsConfig != nil
}

// GetTLSConfig returns the current TLS configuration (may be nil).
func GetTLSConfig() *TLSConfig {
	return tlsConfig
}

// certReloader serves the key pair from disk, re-reading it when either
// file's modification time changes so rotated certificates apply without
// a restart.
type certReloader struct {
	certFile, keyFile string

	mu      sync.Mutex
	cert    *tls.Certificate
	certMod time.Time
	keyMod  time.Time
}

func newCertReloader(certFile, keyFile string) (*certReloader, error) {
	cr := &certReloader{certFile: certFile, keyFile: keyFile}
	if _, err := cr.current(); err != nil {
		return nil, err
	}
	return cr, nil
}

func (cr *certReloader) current() (*tls.Certificate, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	certInfo, err := os.Stat(cr.certFile)
	if err != nil {
		return cr.fallback(err)
	}
	keyInfo, err := os.Stat(cr.keyFile)
	if err != nil {
		return cr.fallback(err)
	}
	if cr.cert != nil && certInfo.ModTime().Equal(cr.certMod) && keyInfo.ModTime().Equal(cr.keyMod) {
		return cr.cert, nil
	}

	cert, err := tls.LoadX509KeyPair(cr.certFile, cr.keyFile)
	if err != nil {
		return cr.fallback(err)
	}
	if cr.cert != nil {
		log.Printf("tls: reloaded certificate from %s", cr.certFile)
	}
	cr.cert, cr.certMod, cr.keyMod = &cert, certInfo.ModTime(), keyInfo.ModTime()
	return cr.cert, nil
}

// fallback keeps serving the last good pair while a rotation is half written.
func (cr *certReloader) fallback(err error) (*tls.Certificate, error) {
	if cr.cert != nil {
		return cr.cert, nil
	}
	return nil, err
}

func (cr *certReloader) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return cr.current()
}

// LoadTLSConfig builds a tls.Config backed by the configured key pair.
// Returns nil and logs an error if the pair cannot be loaded.
func LoadTLSConfig() *tls.Config {
	if !IsTLSEnabled() {
		return nil
	}

	cr, err := newCertReloader(tlsConfig.CertFile, tlsConfig.KeyFile)
	if err != nil {
		log.Printf("Failed to load TLS certificate: %v", err)
		return nil
	}

	return &tls.Config{
		GetCertificate: cr.getCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}
