package ring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendWithinCap(t *testing.T) {
	r := New()
	r.Append([]byte("hello"))
	r.Append([]byte(" world"))
	assert.Equal(t, "hello world", r.Read())
}

func TestAppendTruncatesFromFront(t *testing.T) {
	r := New()
	// One chunk larger than the cap: only the trailing maxBytes survive.
	big := strings.Repeat("a", maxBytes) + "TAIL"
	r.Append([]byte(big))
	got := r.Read()
	assert.Len(t, got, maxBytes)
	assert.True(t, strings.HasSuffix(got, "TAIL"))
}

func TestAppendAcrossMultipleCallsTruncates(t *testing.T) {
	r := New()
	r.Append([]byte(strings.Repeat("x", maxBytes-3)))
	r.Append([]byte("abcdef"))
	got := r.Read()
	assert.Len(t, got, maxBytes)
	assert.True(t, strings.HasSuffix(got, "abcdef"))
}

func TestClear(t *testing.T) {
	r := New()
	r.Append([]byte("data"))
	r.Clear()
	assert.Equal(t, "", r.Read())
	assert.Equal(t, 0, r.Len())
}

func TestReadIsACopy(t *testing.T) {
	r := New()
	r.Append([]byte("abc"))
	first := r.Read()
	r.Append([]byte("def"))
	assert.Equal(t, "abc", first)
	assert.Equal(t, "abcdef", r.Read())
}
