package formats

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ytget/sigsolver/errs"
)

// SignatureCipher is the decoded signatureCipher field of a streaming
// format: the stream URL, the encrypted signature and the query field the
// decrypted signature belongs in.
type SignatureCipher struct {
	URL string
	S   string
	// SP is empty when the bundle does not name a field.
	SP string
}

// ParseSignatureCipher decodes an "s=..&sp=..&url=.." bundle.
func ParseSignatureCipher(raw string) (SignatureCipher, error) {
	parsed, err := url.ParseQuery(strings.TrimSpace(raw))
	if err != nil {
		return SignatureCipher{}, fmt.Errorf("%w: parse signatureCipher: %v", errs.ErrInvalidURL, err)
	}
	sc := SignatureCipher{
		URL: parsed.Get("url"),
		S:   parsed.Get("s"),
		SP:  parsed.Get("sp"),
	}
	if sc.URL == "" || sc.S == "" {
		return SignatureCipher{}, fmt.Errorf("%w: signatureCipher missing signature or url", errs.ErrInvalidURL)
	}
	return sc, nil
}

// StreamURL is a parsed stream URL whose query can be rewritten.
type StreamURL struct {
	u *url.URL
	q url.Values
}

// ParseStreamURL parses an absolute stream URL.
func ParseStreamURL(raw string) (*StreamURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse stream url: %v", errs.ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: stream url %q is not absolute", errs.ErrInvalidURL, raw)
	}
	return &StreamURL{u: u, q: u.Query()}, nil
}

// Get returns the first value of the query field key.
func (s *StreamURL) Get(key string) string { return s.q.Get(key) }

// Set replaces the query field key.
func (s *StreamURL) Set(key, value string) { s.q.Set(key, value) }

// Del removes the query field key.
func (s *StreamURL) Del(key string) { s.q.Del(key) }

// String renders the URL with the rewritten query.
func (s *StreamURL) String() string {
	u := *s.u
	u.RawQuery = s.q.Encode()
	return u.String()
}
