/*
Package cipher turns a YouTube player script into signature and n solvers.

# Pipeline

A Pipeline resolves a player URL to a sandbox.Pair in these steps:

 1. Fetch the script through the raw script tier. Concurrent cache misses
    for one URL share a single download.
 2. Parse it and locate the wrapper's core block (internal/jsast).
 3. Match every core statement against the signature and n templates
    (youtube/cipher/extract).
 4. Synthesize a module that exposes the matched transforms on a carrier
    object (youtube/cipher/synth).
 5. Evaluate the module in a fresh sandbox (internal/sandbox).

Each tier visited on a miss is filled on success. Failures are never
cached, so the next request retries from the first missing tier.

# Operations

	p := cipher.New(cipher.Options{})
	resp, err := p.Decrypt(ctx, types.DecryptRequest{
		PlayerURL:          "https://www.youtube.com/s/player/0123abcd/base.js",
		EncryptedSignature: "AOq0QJ8wRAIg...",
		NParam:             "Qj1ABcd",
	})

Resolve rewrites a stream URL in place of the caller. GetSts scans the raw
script for its signature timestamp without parsing it.

# Error Codes

Errors returned by a Pipeline are *Error values whose cause is one of the
errs sentinels:

  - PLAYER_DOWNLOAD_FAILED: transport failure or non-2xx status
  - PLAYER_PARSE_FAILED: the script is not valid JavaScript
  - PLAYER_STRUCTURE_UNEXPECTED: the wrapper has an unknown shape
  - FUNCTION_AMBIGUOUS: more than one distinct transform of a family
  - JS_EXECUTION_FAILED: the module or a transform threw
  - SOLVER_MISSING: a signature was given but the player has no transform
  - PARAMETER_MISSING: a required request value is absent
  - STS_NOT_FOUND: the script carries no signature timestamp
  - URL_INVALID: a player or stream URL cannot be used
  - REQUEST_CANCELLED: the caller's context ended first
  - INTERNAL_ERROR: anything outside the list above

The Is* helpers classify them.
*/
package cipher
