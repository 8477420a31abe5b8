package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var alphanumeric = regexp.MustCompile(`^[0-9a-zA-Z]+$`)

func TestForPoll(t *testing.T) {
	a := ForPoll("poll-1", "salt")

	assert.Equal(t, a, ForPoll("poll-1", "salt"))
	assert.NotEqual(t, a, ForPoll("poll-2", "salt"))
	assert.NotEqual(t, a, ForPoll("poll-1", "pepper"))
	assert.Regexp(t, alphanumeric, a)
	assert.LessOrEqual(t, len(a), 11)
}

func TestHashIP(t *testing.T) {
	h := HashIP("203.0.113.7", "salt")

	assert.Len(t, h, 16)
	assert.Equal(t, h, HashIP("203.0.113.7", "salt"))
	assert.NotEqual(t, h, HashIP("203.0.113.8", "salt"))
}

func TestBase62(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{in: []byte{0}, want: "0"},
		{in: []byte{61}, want: "Z"},
		{in: []byte{62}, want: "10"},
		{in: []byte{1, 0}, want: "48"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, base62(tt.in))
	}
}
