// Package payment verifies payment-provider notification signatures. The
// provider signs the raw request body concatenated with a shared second
// key, MD5-hashed, and sends the hex digest in the OpenPayU-Signature
// header.
package payment

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// SignatureHeader is the header carrying the provider's signature.
const SignatureHeader = "OpenPayU-Signature"

// ParseSignatureHeader extracts the signature value from the header's
// semicolon-separated key=value list.
func ParseSignatureHeader(header string) (string, error) {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "signature=") {
			sig := strings.TrimPrefix(part, "signature=")
			if sig == "" {
				return "", fmt.Errorf("empty signature value")
			}
			return sig, nil
		}
	}
	return "", fmt.Errorf("no signature field in header")
}

// VerifyNotification checks the notification body against the signature
// header using the shared second key. The expected digest is
// MD5(body + secondKey) in lowercase hex.
func VerifyNotification(body []byte, header, secondKey string) error {
	if header == "" {
		return fmt.Errorf("missing %s header", SignatureHeader)
	}

	signature, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	sum := md5.Sum(append(append([]byte{}, body...), secondKey...))
	expected := hex.EncodeToString(sum[:])

	if subtle.ConstantTimeCompare([]byte(strings.ToLower(signature)), []byte(expected)) != 1 {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
