package payment

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signFor(body []byte, secondKey string) string {
	sum := md5.Sum(append(append([]byte{}, body...), secondKey...))
	return hex.EncodeToString(sum[:])
}

func TestParseSignatureHeader(t *testing.T) {
	t.Run("full provider header", func(t *testing.T) {
		sig, err := ParseSignatureHeader("sender=checkout;signature=abc123;algorithm=MD5;content=DOCUMENT")
		require.NoError(t, err)
		assert.Equal(t, "abc123", sig)
	})

	t.Run("signature only", func(t *testing.T) {
		sig, err := ParseSignatureHeader("signature=deadbeef")
		require.NoError(t, err)
		assert.Equal(t, "deadbeef", sig)
	})

	t.Run("whitespace around fields", func(t *testing.T) {
		sig, err := ParseSignatureHeader("sender=checkout; signature=abc123 ;algorithm=MD5")
		require.NoError(t, err)
		assert.Equal(t, "abc123", sig)
	})

	t.Run("missing signature field", func(t *testing.T) {
		_, err := ParseSignatureHeader("sender=checkout;algorithm=MD5")
		assert.Error(t, err)
	})

	t.Run("empty signature value", func(t *testing.T) {
		_, err := ParseSignatureHeader("signature=")
		assert.Error(t, err)
	})
}

func TestVerifyNotification(t *testing.T) {
	body := []byte(`{"order":{"status":"COMPLETED"}}`)
	const secondKey = "sekrit"

	t.Run("valid signature", func(t *testing.T) {
		header := fmt.Sprintf("sender=checkout;signature=%s;algorithm=MD5", signFor(body, secondKey))
		assert.NoError(t, VerifyNotification(body, header, secondKey))
	})

	t.Run("uppercase hex is accepted", func(t *testing.T) {
		// Some providers send the digest uppercased.
		upper := fmt.Sprintf("signature=%X", md5.Sum(append(append([]byte{}, body...), secondKey...)))
		assert.NoError(t, VerifyNotification(body, upper, secondKey))
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Error(t, VerifyNotification(body, "", secondKey))
	})

	t.Run("tampered body", func(t *testing.T) {
		header := fmt.Sprintf("signature=%s", signFor(body, secondKey))
		tampered := []byte(`{"order":{"status":"CANCELED"}}`)
		assert.Error(t, VerifyNotification(tampered, header, secondKey))
	})

	t.Run("wrong key", func(t *testing.T) {
		header := fmt.Sprintf("signature=%s", signFor(body, "other-key"))
		assert.Error(t, VerifyNotification(body, header, secondKey))
	})
}
