// Package sigsolver derives YouTube signature and n transforms from player
// scripts and applies them to stream URLs.
//
// Features:
//   - Structural matching of the transforms, independent of identifier renaming
//   - Sandboxed evaluation with goja or otto
//   - Per-URL caching of scripts, synthesized modules and solvers
//   - One download per player URL however many requests arrive at once
//
// Usage:
//
//	svc := sigsolver.New().WithEngine("goja", 0)
//	resp, err := svc.Resolve(ctx, types.ResolveRequest{
//		StreamURL:          streamURL,
//		PlayerURL:          "/s/player/0123abcd/player_ias.vflset/en_US/base.js",
//		EncryptedSignature: s,
//	})
package sigsolver
