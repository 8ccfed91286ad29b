package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix     = "signance:playlist:"
	versionPrefix = "signance:playlist-version:"
	generationKey = "signance:playlist-generation"
)

func NewClient(address, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

// PlaylistCache stores rendered playlist expansions with their ETag so the
// player endpoint can answer conditional requests without recomputing.
//
// Every playlist has a version token made of a global generation and a
// per-playlist counter. Invalidate and InvalidateAll bump them; Set only
// writes when the token the reader saw before resolving is still current,
// so a render computed before a mutation is never cached after it.
type PlaylistCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPlaylistCache(rdb *redis.Client, ttl time.Duration) *PlaylistCache {
	return &PlaylistCache{rdb: rdb, ttl: ttl}
}

func PlaylistKey(playlistID int) string {
	return keyPrefix + strconv.Itoa(playlistID)
}

func VersionKey(playlistID int) string {
	return versionPrefix + strconv.Itoa(playlistID)
}

// KEYS: body, generation, version. ARGV: token, etag, body, ttl ms.
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
local ver = redis.call('GET', KEYS[3]) or '0'
if gen .. ':' .. ver ~= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], 'etag', ARGV[2], 'body', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// Token joins the generation and playlist counter the way setIfCurrent does.
func Token(generation, version string) string {
	if generation == "" {
		generation = "0"
	}
	if version == "" {
		version = "0"
	}
	return generation + ":" + version
}

// Version returns the token a later Set must present.
func (c *PlaylistCache) Version(ctx context.Context, playlistID int) (string, error) {
	vals, err := c.rdb.MGet(ctx, generationKey, VersionKey(playlistID)).Result()
	if err != nil {
		return "", fmt.Errorf("read playlist %d version: %w", playlistID, err)
	}
	gen, _ := vals[0].(string)
	ver, _ := vals[1].(string)
	return Token(gen, ver), nil
}

// Get returns the cached ETag and body; ok is false on a miss.
func (c *PlaylistCache) Get(ctx context.Context, playlistID int) (etag string, body []byte, ok bool, err error) {
	vals, err := c.rdb.HMGet(ctx, PlaylistKey(playlistID), "etag", "body").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil, false, nil
		}
		return "", nil, false, err
	}
	e, okE := vals[0].(string)
	b, okB := vals[1].(string)
	if !okE || !okB {
		return "", nil, false, nil
	}
	return e, []byte(b), true, nil
}

// Set stores the rendering when version is still current. stored is false
// when an invalidation happened since version was read.
func (c *PlaylistCache) Set(ctx context.Context, playlistID int, version, etag string, body []byte) (stored bool, err error) {
	keys := []string{PlaylistKey(playlistID), generationKey, VersionKey(playlistID)}
	n, err := setIfCurrent.Run(ctx, c.rdb, keys, version, etag, body, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("cache playlist %d: %w", playlistID, err)
	}
	return n == 1, nil
}

func (c *PlaylistCache) Invalidate(ctx context.Context, playlistID int) error {
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, VersionKey(playlistID))
	pipe.Del(ctx, PlaylistKey(playlistID))
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateAll drops every cached playlist. Used when a media change may
// affect playlists we cannot enumerate cheaply.
func (c *PlaylistCache) InvalidateAll(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	log.Debug().Int("keys", len(keys)).Msg("playlist cache flushed")
	return nil
}
