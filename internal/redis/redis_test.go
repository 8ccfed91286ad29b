package redis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Nixie-Tech-LLC/signance/internal/notify"
)

var _ notify.PlaylistInvalidator = (*PlaylistCache)(nil)

func TestKeys(t *testing.T) {
	assert.Equal(t, "signance:playlist:42", PlaylistKey(42))
	assert.Equal(t, "signance:playlist-version:42", VersionKey(42))
	// InvalidateAll scans keyPrefix+"*" and must not sweep counters away
	assert.False(t, strings.HasPrefix(VersionKey(42), keyPrefix))
	assert.False(t, strings.HasPrefix(generationKey, keyPrefix))
}

func TestToken(t *testing.T) {
	assert.Equal(t, "0:0", Token("", ""))
	assert.Equal(t, "3:0", Token("3", ""))
	assert.Equal(t, "3:7", Token("3", "7"))
	assert.NotEqual(t, Token("1", "2"), Token("1", "3"))
}

func TestNewClientOptions(t *testing.T) {
	rdb := NewClient("localhost:6390", "svc", "pw")
	defer rdb.Close()

	opts := rdb.Options()
	assert.Equal(t, "localhost:6390", opts.Addr)
	assert.Equal(t, "svc", opts.Username)
	assert.Equal(t, 0, opts.DB)

	c := NewPlaylistCache(rdb, time.Minute)
	assert.Equal(t, time.Minute, c.ttl)
}
