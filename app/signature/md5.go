// Package signature computes the chained MD5 digest used by the legacy
// redirect protocol: MD5(key2 + MD5(key1 + payload)), lowercase hex.
package signature

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrInputMissing = errors.New("signature input missing")

type Field struct {
	Key   string
	Value string
}

// Payload renders fields as k1=v1&k2=v2 in the given order. Values are not escaped.
func Payload(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}

func Sign(fields []Field, key1, key2 string) (string, error) {
	if key1 == "" || key2 == "" || len(fields) == 0 {
		return "", ErrInputMissing
	}
	for _, f := range fields {
		if f.Key == "" || f.Value == "" {
			return "", ErrInputMissing
		}
	}

	inner := md5Hex(key1 + Payload(fields))
	return md5Hex(key2 + inner), nil
}

// Verify reports whether received matches the digest of fields. Any signing
// failure is a mismatch.
func Verify(fields []Field, received, key1, key2 string) bool {
	expected, err := Sign(fields, key1, key2)
	if err != nil {
		return false
	}
	received = strings.ToLower(strings.TrimSpace(received))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
