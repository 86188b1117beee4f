package cache

import (
	"strconv"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/fxamacker/cbor/v2"

	"github.com/fr0stylo/cashwidget/internal/app/ports"
)

type cachedBody struct {
	Body      []byte `cbor:"1,keyasint"`
	Signature string `cbor:"2,keyasint"`
}

// BodyCache memoizes signed config bodies per (public key, version).
type BodyCache struct {
	cache *fastcache.Cache
}

func NewBodyCache(cache *fastcache.Cache) *BodyCache {
	if cache == nil {
		cache = fastcache.New(8 * 1024 * 1024)
	}
	return &BodyCache{cache: cache}
}

func (c *BodyCache) Get(publicKey string, version int64) (ports.SignedBody, bool) {
	raw := c.cache.GetBig(nil, bodyKey(publicKey, version))
	if len(raw) == 0 {
		return ports.SignedBody{}, false
	}
	var entry cachedBody
	if err := cbor.Unmarshal(raw, &entry); err != nil || entry.Signature == "" {
		return ports.SignedBody{}, false
	}
	return ports.SignedBody{Body: entry.Body, Signature: entry.Signature}, true
}

func (c *BodyCache) Set(publicKey string, version int64, entry ports.SignedBody) {
	raw, err := cbor.Marshal(cachedBody{Body: entry.Body, Signature: entry.Signature})
	if err != nil {
		return
	}
	c.cache.SetBig(bodyKey(publicKey, version), raw)
}

func bodyKey(publicKey string, version int64) []byte {
	return []byte("body|" + publicKey + "|" + strconv.FormatInt(version, 10))
}

var _ ports.SignedBodyCache = (*BodyCache)(nil)
