// Package types holds the request and response bodies exchanged with the
// transport layer.
package types

// DecryptRequest asks for one or both transforms of a player.
type DecryptRequest struct {
	EncryptedSignature string `json:"encrypted_signature,omitempty"`
	NParam             string `json:"n_param,omitempty"`
	PlayerURL          string `json:"player_url"`
}

// DecryptResponse carries the decoded values. A field is empty when its
// input was absent or the player has no transform of that family.
type DecryptResponse struct {
	DecryptedSignature string `json:"decrypted_signature"`
	DecryptedNSig      string `json:"decrypted_n_sig"`
}

// ResolveRequest asks for a stream URL with its signature and n parameter
// decoded in place.
type ResolveRequest struct {
	StreamURL          string `json:"stream_url"`
	PlayerURL          string `json:"player_url"`
	EncryptedSignature string `json:"encrypted_signature,omitempty"`
	// SignatureKey names the query field receiving the signature; "sig"
	// when empty.
	SignatureKey string `json:"signature_key,omitempty"`
	NParam       string `json:"n_param,omitempty"`
	// SignatureCipher is the platform's s=..&sp=..&url=.. bundle. It fills
	// StreamURL, EncryptedSignature and SignatureKey when they are empty.
	SignatureCipher string `json:"signature_cipher,omitempty"`
}

// ResolveResponse carries the rewritten stream URL.
type ResolveResponse struct {
	ResolvedURL string `json:"resolved_url"`
}

// StsRequest asks for a player's signature timestamp.
type StsRequest struct {
	PlayerURL string `json:"player_url"`
}

// StsResponse carries the signature timestamp. CacheHit is metadata for
// the transport layer and is not serialized.
type StsResponse struct {
	Sts      string `json:"sts"`
	CacheHit bool   `json:"-"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
