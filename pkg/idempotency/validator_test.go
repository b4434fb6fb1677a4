package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("put_A1-0001", DefaultMaxKeyLength))
	assert.ErrorIs(t, ValidateKey("", DefaultMaxKeyLength), ErrKeyRequired)
	assert.ErrorIs(t, ValidateKey("a/b", DefaultMaxKeyLength), ErrKeyInvalid)
	assert.ErrorIs(t, ValidateKey(strings.Repeat("a", 11), 10), ErrKeyTooLong)
}

func TestComputeFingerprintCoversMethodPathAndBody(t *testing.T) {
	base := ComputeFingerprint("POST", "/api/v1/putwalls", []byte(`{}`))

	assert.Equal(t, base, ComputeFingerprint("POST", "/api/v1/putwalls", []byte(`{}`)))
	assert.NotEqual(t, base, ComputeFingerprint("DELETE", "/api/v1/putwalls", []byte(`{}`)))
	assert.NotEqual(t, base, ComputeFingerprint("POST", "/api/v1/putwalls/PW-1/scan", []byte(`{}`)))
	assert.NotEqual(t, base, ComputeFingerprint("POST", "/api/v1/putwalls", []byte(`{"a":1}`)))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "abc", NormalizeKey("  abc\t"))
}
