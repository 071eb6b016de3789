package utils

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// NewHTTPClient builds a client that trusts the system roots plus any PEM certificates in caCertFile.
func NewHTTPClient(caCertFile string, timeout time.Duration) (*http.Client, error) {
	client := &http.Client{Timeout: timeout}

	caCertFile = strings.TrimSpace(caCertFile)
	if caCertFile == "" {
		return client, nil
	}

	pemBits, err := os.ReadFile(caCertFile)
	if err != nil {
		return nil, WrapIfNotNil(err, caCertFile)
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pemBits) {
		return nil, WrapIfNotNil(errors.New("no PEM certificates found"), caCertFile)
	}

	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, WrapIfNotNil(fmt.Errorf("unexpected default transport %T", http.DefaultTransport))
	}
	transport = transport.Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    pool,
	}
	client.Transport = transport
	return client, nil
}
