package id

import (
	"crypto/rand"
	"sync"
	"time"
)

// ulidEncoding is Crockford's base32 alphabet (no I, L, O, U).
const ulidEncoding = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const ulidLen = 26

var (
	mu      sync.Mutex
	lastMs  int64
	counter uint16
	now     = time.Now
)

// ULID returns a new time-sortable identifier.
// IDs created within the same millisecond are disambiguated by a counter
// mixed into the random component.
func ULID() string {
	mu.Lock()
	ms := now().UnixMilli()
	if ms == lastMs {
		counter++
	} else {
		lastMs = ms
		counter = 0
	}
	c := counter
	mu.Unlock()

	var entropy [10]byte
	_, _ = rand.Read(entropy[:])
	entropy[0] ^= byte(c >> 8)
	entropy[1] ^= byte(c)

	return encode(ms, entropy)
}

// encode packs 48 timestamp bits and 80 entropy bits into 26 characters,
// five bits per character, most significant first.
func encode(ms int64, entropy [10]byte) string {
	out := make([]byte, ulidLen)
	for i := 9; i >= 0; i-- {
		out[i] = ulidEncoding[ms&0x1F]
		ms >>= 5
	}

	// 80 bits of entropy = 16 characters; walk the bytes as a bit stream.
	var acc uint32
	bits := 0
	pos := 10
	for _, b := range entropy {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = ulidEncoding[(acc>>uint(bits))&0x1F]
			pos++
		}
	}
	return string(out)
}

// Generation returns an identifier for one reload attempt.
func Generation() string {
	return ULID()
}

// IsValidULID reports whether s is a well-formed ULID.
func IsValidULID(s string) bool {
	if len(s) != ulidLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if decodeChar(s[i]) < 0 {
			return false
		}
	}
	return true
}

func decodeChar(c byte) int {
	for i := 0; i < len(ulidEncoding); i++ {
		if ulidEncoding[i] == c {
			return i
		}
	}
	return -1
}
