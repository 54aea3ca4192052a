package analysis

const (
	tlsContentTypeHandshake = 22

	tlsHandshakeClientHello = 1
	tlsHandshakeServerHello = 2

	tlsExtensionSNI               = 0x0000
	tlsExtensionSupportedVersions = 0x002B

	tlsVersion13 = 0x0304
)

// TLSInfo is the handshake metadata extracted from one TCP payload.
// Ephemeral: produced per frame, folded into the summary and discarded.
type TLSInfo struct {
	IsClientHello bool
	IsServerHello bool
	Version       string
	SNI           string
	Cipher        string
}

// ParseTLSRecord extracts handshake metadata from a raw TCP payload without
// a full TLS stack. Any out-of-bounds read aborts parsing and returns nil;
// the parser never panics on malformed or truncated input.
func ParseTLSRecord(payload []byte) *TLSInfo {
	if len(payload) < 6 || payload[0] != tlsContentTypeHandshake {
		return nil
	}

	c := newCursor(payload)
	c.skip(1) // content type, already checked

	recordVersion, ok := c.u16()
	if !ok {
		return nil
	}
	if !c.skip(2) { // record length, informational only
		return nil
	}

	handshakeType, ok := c.u8()
	if !ok {
		return nil
	}

	switch handshakeType {
	case tlsHandshakeClientHello:
		return parseClientHello(c, recordVersion)
	case tlsHandshakeServerHello:
		return parseServerHello(c, recordVersion)
	}
	return nil
}

// parseClientHello walks the fixed-size ClientHello fields to reach the
// extensions block and extracts SNI and supported_versions. The cursor is
// positioned just past the handshake type byte.
func parseClientHello(c *byteCursor, recordVersion uint16) *TLSInfo {
	info := &TLSInfo{
		IsClientHello: true,
		Version:       tlsVersionName(recordVersion),
	}

	if _, ok := c.u24(); !ok { // handshake length
		return nil
	}
	if _, ok := c.u16(); !ok { // legacy client version
		return nil
	}
	if !c.skip(32) { // random
		return nil
	}

	sessionLen, ok := c.u8()
	if !ok || !c.skip(int(sessionLen)) {
		return nil
	}

	cipherLen, ok := c.u16()
	if !ok || !c.skip(int(cipherLen)) {
		return nil
	}

	compLen, ok := c.u8()
	if !ok || !c.skip(int(compLen)) {
		return nil
	}

	// Extensions are optional; a ClientHello ending here is still valid.
	if c.remaining() == 0 {
		return info
	}

	extTotal, ok := c.u16()
	if !ok {
		return nil
	}
	ext, ok := c.bytes(int(extTotal))
	if !ok {
		// Truncated extensions block: keep what we have so far.
		return info
	}

	ec := newCursor(ext)
	for ec.remaining() >= 4 {
		extType, _ := ec.u16()
		extLen, _ := ec.u16()
		body, ok := ec.bytes(int(extLen))
		if !ok {
			break
		}
		switch extType {
		case tlsExtensionSNI:
			if host, ok := parseSNI(body); ok {
				info.SNI = host
			}
		case tlsExtensionSupportedVersions:
			if supportsTLS13Client(body) {
				info.Version = tlsVersionName(tlsVersion13)
			}
		}
	}

	return info
}

// parseServerHello reads the selected cipher suite and refines the version
// from the supported_versions extension when present.
func parseServerHello(c *byteCursor, recordVersion uint16) *TLSInfo {
	info := &TLSInfo{
		IsServerHello: true,
		Version:       tlsVersionName(recordVersion),
	}

	if _, ok := c.u24(); !ok { // handshake length
		return nil
	}
	if _, ok := c.u16(); !ok { // legacy server version
		return nil
	}
	if !c.skip(32) { // random
		return nil
	}

	sessionLen, ok := c.u8()
	if !ok || !c.skip(int(sessionLen)) {
		return nil
	}

	cipher, ok := c.u16()
	if !ok {
		return nil
	}
	info.Cipher = tlsCipherName(cipher)

	if _, ok := c.u8(); !ok { // compression method
		return info
	}

	if c.remaining() == 0 {
		return info
	}
	extTotal, ok := c.u16()
	if !ok {
		return info
	}
	ext, ok := c.bytes(int(extTotal))
	if !ok {
		return info
	}

	ec := newCursor(ext)
	for ec.remaining() >= 4 {
		extType, _ := ec.u16()
		extLen, _ := ec.u16()
		body, ok := ec.bytes(int(extLen))
		if !ok {
			break
		}
		// Server supported_versions carries the single selected version.
		if extType == tlsExtensionSupportedVersions && len(body) == 2 {
			selected := uint16(body[0])<<8 | uint16(body[1])
			info.Version = tlsVersionName(selected)
		}
	}

	return info
}

// parseSNI extracts the first hostname entry from a server_name extension.
func parseSNI(body []byte) (string, bool) {
	c := newCursor(body)
	listLen, ok := c.u16()
	if !ok {
		return "", false
	}
	entries, ok := c.bytes(int(listLen))
	if !ok {
		return "", false
	}

	ec := newCursor(entries)
	nameType, ok := ec.u8()
	if !ok || nameType != 0 { // host_name
		return "", false
	}
	nameLen, ok := ec.u16()
	if !ok {
		return "", false
	}
	name, ok := ec.bytes(int(nameLen))
	if !ok || len(name) == 0 {
		return "", false
	}
	return string(name), true
}

// supportsTLS13Client reports whether a ClientHello supported_versions
// extension body contains 0x0304.
func supportsTLS13Client(body []byte) bool {
	c := newCursor(body)
	listLen, ok := c.u8()
	if !ok {
		return false
	}
	list, ok := c.bytes(int(listLen))
	if !ok {
		return false
	}
	for i := 0; i+1 < len(list); i += 2 {
		if uint16(list[i])<<8|uint16(list[i+1]) == tlsVersion13 {
			return true
		}
	}
	return false
}
