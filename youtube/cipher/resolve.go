package cipher

import (
	"context"
	"fmt"
	"strings"

	"github.com/ytget/sigsolver/errs"
	"github.com/ytget/sigsolver/types"
	"github.com/ytget/sigsolver/youtube/formats"
)

// DefaultSignatureKey is the query field a decrypted signature is written
// to when the request names none.
const DefaultSignatureKey = "sig"

// legacySignatureKey carries the still-encrypted signature on stream URLs.
const legacySignatureKey = "s"

// Resolve rewrites a stream URL with the decrypted signature and n value.
//
// A signatureCipher bundle fills stream_url, encrypted_signature and
// signature_key where the request leaves them empty.
func (p *Pipeline) Resolve(ctx context.Context, req types.ResolveRequest) (types.ResolveResponse, error) {
	details := map[string]any{"player_url": req.PlayerURL}
	if strings.TrimSpace(req.SignatureCipher) != "" {
		sc, err := formats.ParseSignatureCipher(req.SignatureCipher)
		if err != nil {
			return types.ResolveResponse{}, wrap(err, details)
		}
		if req.StreamURL == "" {
			req.StreamURL = sc.URL
		}
		if req.EncryptedSignature == "" {
			req.EncryptedSignature = sc.S
		}
		if req.SignatureKey == "" {
			req.SignatureKey = sc.SP
		}
	}
	if strings.TrimSpace(req.StreamURL) == "" {
		return types.ResolveResponse{}, wrap(fmt.Errorf("%w: stream_url", errs.ErrMissingParameter), details)
	}

	pair, err := p.Solvers(ctx, req.PlayerURL)
	if err != nil {
		return types.ResolveResponse{}, err
	}
	stream, err := formats.ParseStreamURL(req.StreamURL)
	if err != nil {
		return types.ResolveResponse{}, wrap(err, details)
	}

	if req.EncryptedSignature != "" {
		if pair.Sig == nil {
			return types.ResolveResponse{}, wrap(fmt.Errorf("%w: no signature solver for this player", errs.ErrMissingSolver), details)
		}
		sig, err := pair.Sig(req.EncryptedSignature)
		if err != nil {
			return types.ResolveResponse{}, wrap(err, details)
		}
		key := req.SignatureKey
		if key == "" {
			key = DefaultSignatureKey
		}
		stream.Set(key, sig)
		stream.Del(legacySignatureKey)
	}

	if pair.N != nil {
		n := req.NParam
		if n == "" {
			n = stream.Get("n")
		}
		if n == "" {
			return types.ResolveResponse{}, wrap(fmt.Errorf("%w: n_param not found in request or stream_url", errs.ErrMissingParameter), details)
		}
		out, err := pair.N(n)
		if err != nil {
			return types.ResolveResponse{}, wrap(err, details)
		}
		stream.Set("n", out)
	}

	return types.ResolveResponse{ResolvedURL: stream.String()}, nil
}
