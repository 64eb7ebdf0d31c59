package grpchost

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFillsDefaults(t *testing.T) {
	opts := ServerOptions{}
	require.NoError(t, opts.Validate())

	def := DefaultOptions()
	require.Equal(t, def.MaxMessageSize, opts.MaxMessageSize)
	require.Equal(t, def.MaxConcurrentStreams, opts.MaxConcurrentStreams)
	require.Equal(t, def.KeepaliveTimeout, opts.KeepaliveTimeout)
	require.Equal(t, def.DrainTimeout, opts.DrainTimeout)
	require.Equal(t, def.CompressionThreshold, opts.CompressionThreshold)
	require.Equal(t, def.SupportedCodecs, opts.SupportedCodecs)
}

func TestValidateRejectsNegativeMessageSize(t *testing.T) {
	opts := ServerOptions{MaxMessageSize: -1}
	require.Error(t, opts.Validate())
}

func TestValidateTLSConfigRequiresCertAndKey(t *testing.T) {
	opts := ServerOptions{TLSConfig: &TLSConfig{}}
	require.Error(t, opts.Validate())
}

func TestValidateTLSConfigDefaultsMinVersion(t *testing.T) {
	opts := ServerOptions{TLSConfig: &TLSConfig{
		CertChainPath:  "cert.pem",
		PrivateKeyPath: "key.pem",
	}}
	require.NoError(t, opts.Validate())
	require.Equal(t, TLSv1_2, opts.TLSConfig.MinVersion)
}

func TestValidateTLSConfigRejectsBadMinVersion(t *testing.T) {
	opts := ServerOptions{TLSConfig: &TLSConfig{
		CertChainPath:  "cert.pem",
		PrivateKeyPath: "key.pem",
		MinVersion:     "TLSv1_1",
	}}
	require.Error(t, opts.Validate())
}
