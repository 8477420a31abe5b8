// Package slug derives public identifiers from internal ones.
package slug

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ForPoll returns the short share slug of a poll. The same id and salt always
// produce the same slug.
func ForPoll(pollID, salt string) string {
	sum := mac(pollID, salt)
	return base62(sum[:8])
}

// HashIP returns a salted one-way hash of a client address, used as the rate
// limit identity so raw addresses never reach Redis.
func HashIP(ip, salt string) string {
	sum := mac(ip, salt)
	return hex.EncodeToString(sum[:8])
}

func mac(value, salt string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(value))
	return h.Sum(nil)
}

// base62 encodes up to 8 bytes as an alphanumeric string
func base62(data []byte) string {
	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}
	if num == 0 {
		return "0"
	}

	out := make([]byte, 0, 11)
	for num > 0 {
		out = append(out, base62Chars[num%62])
		num /= 62
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
