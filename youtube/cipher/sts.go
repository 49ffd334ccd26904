package cipher

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ytget/sigsolver/errs"
	"github.com/ytget/sigsolver/internal/logger"
	"github.com/ytget/sigsolver/types"
)

var stsRe = regexp.MustCompile(`(signatureTimestamp|sts):(\d+)`)

// FindSts returns the first signature timestamp token in src.
func FindSts(src string) (string, bool) {
	m := stsRe.FindStringSubmatch(src)
	if len(m) < 3 {
		return "", false
	}
	return m[2], true
}

// GetSts returns the player's signature timestamp. CacheHit reports
// whether it came from the sts tier. A player without a timestamp is not
// cached.
func (p *Pipeline) GetSts(ctx context.Context, req types.StsRequest) (types.StsResponse, error) {
	key, err := NormalizePlayerURL(req.PlayerURL, p.base)
	if err != nil {
		return types.StsResponse{}, wrap(err, map[string]any{"player_url": req.PlayerURL})
	}
	details := map[string]any{"player_url": key}

	if sts, ok := p.caches.Sts.Get(key); ok {
		logger.WithComponent(logger.ComponentCache).Trace("sts cache hit", details)
		return types.StsResponse{Sts: sts, CacheHit: true}, nil
	}

	src, err := p.fetcher.Fetch(ctx, key)
	if err != nil {
		return types.StsResponse{}, wrap(err, details)
	}
	sts, ok := FindSts(src)
	if !ok {
		return types.StsResponse{}, wrap(fmt.Errorf("%w: timestamp not found in player script", errs.ErrStsNotFound), details)
	}
	p.caches.Sts.Set(key, sts)
	return types.StsResponse{Sts: sts}, nil
}
