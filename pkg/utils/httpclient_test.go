package utils

import (
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type HTTPClientSuite struct {
	suite.Suite
}

func TestHTTPClientSuite(t *testing.T) {
	suite.Run(t, new(HTTPClientSuite))
}

func (s *HTTPClientSuite) TestNoCAFileUsesDefaultTransport() {
	client, err := NewHTTPClient("", 5*time.Second)
	s.Require().NoError(err)
	s.Nil(client.Transport)
	s.Equal(5*time.Second, client.Timeout)
}

func (s *HTTPClientSuite) TestMissingCAFile() {
	_, err := NewHTTPClient(filepath.Join(s.T().TempDir(), "missing.crt"), time.Second)
	s.Error(err)
}

func (s *HTTPClientSuite) TestCAFileWithoutCertificates() {
	path := filepath.Join(s.T().TempDir(), "ca.crt")
	s.Require().NoError(os.WriteFile(path, []byte("not a certificate"), 0o600))

	_, err := NewHTTPClient(path, time.Second)
	s.Require().Error(err)
	s.Contains(err.Error(), "no PEM certificates found")
}

func (s *HTTPClientSuite) TestCustomCATrustsServer() {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	path := filepath.Join(s.T().TempDir(), "ca.crt")
	pemBits := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
	s.Require().NoError(os.WriteFile(path, pemBits, 0o600))

	client, err := NewHTTPClient(path, 5*time.Second)
	s.Require().NoError(err)

	resp, err := client.Get(server.URL)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusNoContent, resp.StatusCode)
}
