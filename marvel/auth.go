package marvel

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strconv"
)

// Credentials holds the API key pair issued by the Marvel developer
// portal. Loaded once at startup and never mutated afterwards.
type Credentials struct {
	PublicKey  string
	PrivateKey string
}

// authParams builds the query parameters for an authenticated API call:
// ts (current time in seconds since epoch), hash (lowercase hex MD5 of
// ts+privateKey+publicKey) and apikey, merged with the caller's
// endpoint-specific parameters. Caller values win on key collision. The
// hash is only valid for the exact ts it was computed with, so a fresh
// set must be built for every request.
func (c *Client) authParams(params url.Values) url.Values {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	digest := md5.Sum([]byte(ts + c.creds.PrivateKey + c.creds.PublicKey))

	out := url.Values{}
	out.Set("ts", ts)
	out.Set("hash", hex.EncodeToString(digest[:]))
	out.Set("apikey", c.creds.PublicKey)
	for key, values := range params {
		out[key] = values
	}
	return out
}
