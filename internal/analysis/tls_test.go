package analysis

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Record builders
// ---------------------------------------------------------------------------

func u16be(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// buildClientHello assembles a handshake record with the given cipher
// suites and extensions. Extensions may be nil.
func buildClientHello(ciphers []uint16, extensions []byte) []byte {
	var body []byte
	body = append(body, 0x03, 0x03)          // legacy client version
	body = append(body, make([]byte, 32)...) // random
	body = append(body, 0)                   // session id length

	body = append(body, u16be(uint16(len(ciphers)*2))...)
	for _, c := range ciphers {
		body = append(body, u16be(c)...)
	}
	body = append(body, 1, 0) // compression: length 1, null

	if extensions != nil {
		body = append(body, u16be(uint16(len(extensions)))...)
		body = append(body, extensions...)
	}

	handshake := []byte{1, byte(len(body) >> 16), byte(len(body) >> 8), byte(len(body))}
	handshake = append(handshake, body...)

	record := []byte{22, 0x03, 0x03}
	record = append(record, u16be(uint16(len(handshake)))...)
	return append(record, handshake...)
}

func buildServerHello(cipher uint16, extensions []byte) []byte {
	var body []byte
	body = append(body, 0x03, 0x03)
	body = append(body, make([]byte, 32)...)
	body = append(body, 0) // session id length
	body = append(body, u16be(cipher)...)
	body = append(body, 0) // compression method

	if extensions != nil {
		body = append(body, u16be(uint16(len(extensions)))...)
		body = append(body, extensions...)
	}

	handshake := []byte{2, byte(len(body) >> 16), byte(len(body) >> 8), byte(len(body))}
	handshake = append(handshake, body...)

	record := []byte{22, 0x03, 0x03}
	record = append(record, u16be(uint16(len(handshake)))...)
	return append(record, handshake...)
}

func sniExtension(host string) []byte {
	entry := append([]byte{0}, u16be(uint16(len(host)))...)
	entry = append(entry, host...)
	body := append(u16be(uint16(len(entry))), entry...)

	ext := u16be(tlsExtensionSNI)
	ext = append(ext, u16be(uint16(len(body)))...)
	return append(ext, body...)
}

func supportedVersionsExtension(versions ...uint16) []byte {
	body := []byte{byte(len(versions) * 2)}
	for _, v := range versions {
		body = append(body, u16be(v)...)
	}
	ext := u16be(tlsExtensionSupportedVersions)
	ext = append(ext, u16be(uint16(len(body)))...)
	return append(ext, body...)
}

// ---------------------------------------------------------------------------
// ClientHello
// ---------------------------------------------------------------------------

func TestParseClientHelloWithoutExtensions(t *testing.T) {
	rec := buildClientHello([]uint16{0xC02F}, nil)

	info := ParseTLSRecord(rec)
	require.NotNil(t, info)
	assert.True(t, info.IsClientHello)
	assert.False(t, info.IsServerHello)
	assert.Equal(t, "TLS 1.2", info.Version)
	assert.Empty(t, info.SNI)
}

func TestParseClientHelloSNI(t *testing.T) {
	rec := buildClientHello([]uint16{0xC02F}, sniExtension("example.com"))

	info := ParseTLSRecord(rec)
	require.NotNil(t, info)
	assert.Equal(t, "example.com", info.SNI)
	assert.Equal(t, "TLS 1.2", info.Version)
}

func TestParseClientHelloTLS13(t *testing.T) {
	exts := append(sniExtension("tls13.example.org"),
		supportedVersionsExtension(0x0303, tlsVersion13)...)
	rec := buildClientHello([]uint16{0x1301}, exts)

	info := ParseTLSRecord(rec)
	require.NotNil(t, info)
	assert.Equal(t, "TLS 1.3", info.Version)
	assert.Equal(t, "tls13.example.org", info.SNI)
}

// ---------------------------------------------------------------------------
// ServerHello
// ---------------------------------------------------------------------------

func TestParseServerHelloCipher(t *testing.T) {
	rec := buildServerHello(0xC02F, nil)

	info := ParseTLSRecord(rec)
	require.NotNil(t, info)
	assert.True(t, info.IsServerHello)
	assert.Equal(t, "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256", info.Cipher)
	assert.Equal(t, "TLS 1.2", info.Version)
}

func TestParseServerHelloSelectedVersion(t *testing.T) {
	// Server supported_versions carries the single negotiated version.
	ext := u16be(tlsExtensionSupportedVersions)
	ext = append(ext, u16be(2)...)
	ext = append(ext, u16be(tlsVersion13)...)

	info := ParseTLSRecord(buildServerHello(0x1302, ext))
	require.NotNil(t, info)
	assert.Equal(t, "TLS 1.3", info.Version)
	assert.Equal(t, "TLS_AES_256_GCM_SHA384", info.Cipher)
}

func TestParseServerHelloUnknownCipher(t *testing.T) {
	info := ParseTLSRecord(buildServerHello(0xFEFE, nil))
	require.NotNil(t, info)
	assert.Equal(t, "Unknown (0xFEFE)", info.Cipher)
}

// ---------------------------------------------------------------------------
// Rejection and robustness
// ---------------------------------------------------------------------------

func TestParseTLSRecordRejectsNonHandshake(t *testing.T) {
	assert.Nil(t, ParseTLSRecord([]byte("GET / HTTP/1.1\r\n")))
	assert.Nil(t, ParseTLSRecord([]byte{23, 3, 3, 0, 5, 1, 2, 3, 4, 5})) // application data
	assert.Nil(t, ParseTLSRecord(nil))
	assert.Nil(t, ParseTLSRecord([]byte{22, 3, 3}))
}

func TestParseTLSRecordTruncationNeverPanics(t *testing.T) {
	full := buildClientHello([]uint16{0xC02F, 0x1301},
		append(sniExtension("truncate.example.com"), supportedVersionsExtension(tlsVersion13)...))

	// Every prefix must parse or bail, never panic.
	for i := 0; i <= len(full); i++ {
		ParseTLSRecord(full[:i])
	}

	srv := buildServerHello(0xC030, supportedVersionsExtension(tlsVersion13))
	for i := 0; i <= len(srv); i++ {
		ParseTLSRecord(srv[:i])
	}
}
