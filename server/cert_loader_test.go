package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeKeyPair writes a self-signed certificate for commonName into dir.
func writeKeyPair(t *testing.T, dir, commonName string) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{commonName},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600))
	return certFile, keyFile
}

func leafName(t *testing.T, loader *CertLoader) string {
	t.Helper()
	cert, err := loader.GetCertificate(nil)
	require.NoError(t, err)
	require.NotNil(t, cert)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf.Subject.CommonName
}

func TestNewCertLoader(t *testing.T) {
	certFile, keyFile := writeKeyPair(t, t.TempDir(), "signup.mergington.edu")

	loader, err := NewCertLoader(certFile, keyFile, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "signup.mergington.edu", leafName(t, loader))
}

func TestNewCertLoader_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCertLoader(filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"), slog.Default())
	assert.Error(t, err)
}

func TestCertLoader_ReloadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "old.mergington.edu")

	loader, err := NewCertLoader(certFile, keyFile, slog.Default())
	require.NoError(t, err)
	loader.checkInterval = 0

	writeKeyPair(t, dir, "new.mergington.edu")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(certFile, future, future))

	assert.Equal(t, "new.mergington.edu", leafName(t, loader))
}

func TestCertLoader_KeepsCertificateOnBadReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "stable.mergington.edu")

	loader, err := NewCertLoader(certFile, keyFile, slog.Default())
	require.NoError(t, err)
	loader.checkInterval = 0

	require.NoError(t, os.WriteFile(certFile, []byte("not a certificate"), 0600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(certFile, future, future))

	assert.Equal(t, "stable.mergington.edu", leafName(t, loader))
}

func TestCertLoader_ChecksAtMostOncePerInterval(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "first.mergington.edu")

	loader, err := NewCertLoader(certFile, keyFile, slog.Default())
	require.NoError(t, err)
	loader.lastCheck = time.Now()

	writeKeyPair(t, dir, "second.mergington.edu")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(certFile, future, future))

	assert.Equal(t, "first.mergington.edu", leafName(t, loader))
}
