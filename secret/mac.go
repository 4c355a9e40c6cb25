package secret

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// MAC is a keyed hash. It must accept any key and message length.
type MAC func(key, msg []byte) []byte

// HMACSHA256 is the default MAC.
func HMACSHA256(key, msg []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(msg)
	return m.Sum(nil)
}

// BLAKE2b256 is keyed BLAKE2b with a 32-byte tag. Keys longer than 64 bytes
// are not valid BLAKE2b keys and fall back to HMACSHA256.
func BLAKE2b256(key, msg []byte) []byte {
	h, err := blake2b.New256(key)
	if err != nil {
		return HMACSHA256(key, msg)
	}
	h.Write(msg)
	return h.Sum(nil)
}

// MACByName maps a configuration value to a MAC.
func MACByName(name string) (MAC, error) {
	switch name {
	case "", "hmac-sha256":
		return HMACSHA256, nil
	case "blake2b":
		return BLAKE2b256, nil
	default:
		return nil, fmt.Errorf("unknown mac %q (allowed: hmac-sha256, blake2b)", name)
	}
}
