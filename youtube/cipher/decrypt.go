package cipher

import (
	"context"

	"github.com/ytget/sigsolver/types"
)

// Decrypt runs the player's transforms over the request's inputs. An
// output stays empty when its input is absent or the player has no
// transform of that family.
func (p *Pipeline) Decrypt(ctx context.Context, req types.DecryptRequest) (types.DecryptResponse, error) {
	var resp types.DecryptResponse
	pair, err := p.Solvers(ctx, req.PlayerURL)
	if err != nil {
		return resp, err
	}
	details := map[string]any{"player_url": req.PlayerURL}

	if req.EncryptedSignature != "" && pair.Sig != nil {
		if resp.DecryptedSignature, err = pair.Sig(req.EncryptedSignature); err != nil {
			return types.DecryptResponse{}, wrap(err, details)
		}
	}
	if req.NParam != "" && pair.N != nil {
		if resp.DecryptedNSig, err = pair.N(req.NParam); err != nil {
			return types.DecryptResponse{}, wrap(err, details)
		}
	}
	return resp, nil
}
