package cipher

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ytget/sigsolver/errs"
	"github.com/ytget/sigsolver/types"
)

func TestDecrypt(t *testing.T) {
	tests := []struct {
		name string
		src  string
		req  types.DecryptRequest
		want types.DecryptResponse
	}{
		{
			name: "both inputs",
			src:  solvablePlayer(),
			req:  types.DecryptRequest{EncryptedSignature: "xyabc", NParam: "abc"},
			want: types.DecryptResponse{DecryptedSignature: "abc", DecryptedNSig: "cba"},
		},
		{
			name: "signature only",
			src:  solvablePlayer(),
			req:  types.DecryptRequest{EncryptedSignature: "xyabc"},
			want: types.DecryptResponse{DecryptedSignature: "abc"},
		},
		{
			name: "n only",
			src:  solvablePlayer(),
			req:  types.DecryptRequest{NParam: "abc"},
			want: types.DecryptResponse{DecryptedNSig: "cba"},
		},
		{
			name: "player without transforms",
			src:  player(`var a=1;`, `b=function(x){return x};`),
			req:  types.DecryptRequest{EncryptedSignature: "xyabc", NParam: "abc"},
			want: types.DecryptResponse{},
		},
		{
			name: "player without signature transform",
			src:  nOnlyPlayer(),
			req:  types.DecryptRequest{EncryptedSignature: "xyabc", NParam: "abc"},
			want: types.DecryptResponse{DecryptedNSig: "abc!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, newFakeDownloader(map[string]string{playerURL: tt.src}), nil)
			tt.req.PlayerURL = playerURL
			got, err := p.Decrypt(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Decrypt() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decrypt() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecrypt_TransformThrows(t *testing.T) {
	src := player(`var nz;`, `var Nx=[nz];`, `nz=function(a){throw new Error("nope")};`)
	p := newTestPipeline(t, newFakeDownloader(map[string]string{playerURL: src}), nil)
	_, err := p.Decrypt(context.Background(), types.DecryptRequest{PlayerURL: playerURL, NParam: "abc"})
	if !errors.Is(err, errs.ErrEvaluation) || !IsJSError(err) {
		t.Fatalf("err = %v, want a JS evaluation error", err)
	}
}

func TestResolve(t *testing.T) {
	stream := "https://rr1.googlevideo.com/videoplayback?itag=18&s=xyabc&n=abc"
	tests := []struct {
		name string
		src  string
		req  types.ResolveRequest
		want url.Values
	}{
		{
			name: "signature and n from url",
			src:  solvablePlayer(),
			req:  types.ResolveRequest{StreamURL: stream, EncryptedSignature: "xyabc"},
			want: url.Values{"itag": {"18"}, "sig": {"abc"}, "n": {"cba"}},
		},
		{
			name: "custom signature key and n from request",
			src:  solvablePlayer(),
			req:  types.ResolveRequest{StreamURL: stream, EncryptedSignature: "xyabc", SignatureKey: "signature", NParam: "hello"},
			want: url.Values{"itag": {"18"}, "signature": {"abc"}, "n": {"olleh"}},
		},
		{
			name: "no signature keeps s",
			src:  solvablePlayer(),
			req:  types.ResolveRequest{StreamURL: stream},
			want: url.Values{"itag": {"18"}, "s": {"xyabc"}, "n": {"cba"}},
		},
		{
			name: "signatureCipher bundle",
			src:  solvablePlayer(),
			req: types.ResolveRequest{SignatureCipher: "s=xyabc&sp=sig&url=" +
				url.QueryEscape("https://rr1.googlevideo.com/videoplayback?itag=22&n=abc")},
			want: url.Values{"itag": {"22"}, "sig": {"abc"}, "n": {"cba"}},
		},
		{
			name: "player without n transform leaves n",
			src:  player(`function Sj(a,b,c){a&&(b=Rk(2,decodeURIComponent(b)),c.set(b));return c}`, `Rk=function(k,a){return a.slice(k)};`),
			req:  types.ResolveRequest{StreamURL: "https://rr1.googlevideo.com/videoplayback?n=abc", EncryptedSignature: "xyabc"},
			want: url.Values{"sig": {"abc"}, "n": {"abc"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, newFakeDownloader(map[string]string{playerURL: tt.src}), nil)
			tt.req.PlayerURL = playerURL
			got, err := p.Resolve(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			u, err := url.Parse(got.ResolvedURL)
			if err != nil {
				t.Fatalf("resolved url %q: %v", got.ResolvedURL, err)
			}
			if u.Host != "rr1.googlevideo.com" || u.Path != "/videoplayback" {
				t.Errorf("resolved url = %s", got.ResolvedURL)
			}
			if diff := cmp.Diff(tt.want, u.Query()); diff != "" {
				t.Errorf("query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		req      types.ResolveRequest
		sentinel error
		code     string
	}{
		{
			name:     "signature without solver",
			src:      nOnlyPlayer(),
			req:      types.ResolveRequest{StreamURL: "https://r.googlevideo.com/v?n=abc", EncryptedSignature: "xyabc"},
			sentinel: errs.ErrMissingSolver,
			code:     ErrCodeMissingSolver,
		},
		{
			name:     "n solver without n value",
			src:      solvablePlayer(),
			req:      types.ResolveRequest{StreamURL: "https://r.googlevideo.com/v?itag=18"},
			sentinel: errs.ErrMissingParameter,
			code:     ErrCodeMissingParameter,
		},
		{
			name:     "missing stream url",
			src:      solvablePlayer(),
			req:      types.ResolveRequest{EncryptedSignature: "xyabc"},
			sentinel: errs.ErrMissingParameter,
			code:     ErrCodeMissingParameter,
		},
		{
			name:     "relative stream url",
			src:      solvablePlayer(),
			req:      types.ResolveRequest{StreamURL: "/videoplayback?n=abc"},
			sentinel: errs.ErrInvalidURL,
			code:     ErrCodeInvalidURL,
		},
		{
			name:     "broken signatureCipher",
			src:      solvablePlayer(),
			req:      types.ResolveRequest{SignatureCipher: "sp=sig"},
			sentinel: errs.ErrInvalidURL,
			code:     ErrCodeInvalidURL,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, newFakeDownloader(map[string]string{playerURL: tt.src}), nil)
			tt.req.PlayerURL = playerURL
			_, err := p.Resolve(context.Background(), tt.req)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("err = %v, want %v", err, tt.sentinel)
			}
			var e *Error
			if !errors.As(err, &e) || e.Code != tt.code {
				t.Fatalf("err = %#v, want code %s", err, tt.code)
			}
			if !IsClientError(err) {
				t.Error("caller-facing errors should be client errors")
			}
		})
	}
}

func TestGetSts(t *testing.T) {
	dl := newFakeDownloader(map[string]string{playerURL: solvablePlayer()})
	p := newTestPipeline(t, dl, nil)
	ctx := context.Background()

	first, err := p.GetSts(ctx, types.StsRequest{PlayerURL: playerURL})
	if err != nil {
		t.Fatalf("GetSts() error: %v", err)
	}
	second, err := p.GetSts(ctx, types.StsRequest{PlayerURL: playerURL})
	if err != nil {
		t.Fatalf("GetSts() error: %v", err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Errorf("cache hits = %v, %v; want false, true", first.CacheHit, second.CacheHit)
	}
	if first.Sts != "20073" || second.Sts != first.Sts {
		t.Errorf("sts = %q, %q; want 20073 twice", first.Sts, second.Sts)
	}
	if n := dl.calls.Load(); n != 1 {
		t.Errorf("downloads = %d, want 1", n)
	}
}

func TestGetSts_SharesScriptWithSolvers(t *testing.T) {
	dl := newFakeDownloader(map[string]string{playerURL: solvablePlayer()})
	p := newTestPipeline(t, dl, nil)
	ctx := context.Background()

	if _, err := p.Solvers(ctx, playerURL); err != nil {
		t.Fatal(err)
	}
	if _, err := p.GetSts(ctx, types.StsRequest{PlayerURL: playerURL}); err != nil {
		t.Fatal(err)
	}
	if n := dl.calls.Load(); n != 1 {
		t.Errorf("downloads = %d, want 1", n)
	}
}

func TestGetSts_NotFound(t *testing.T) {
	p := newTestPipeline(t, newFakeDownloader(map[string]string{playerURL: player(`var a=1;`)}), nil)
	for i := 0; i < 2; i++ {
		_, err := p.GetSts(context.Background(), types.StsRequest{PlayerURL: playerURL})
		if !IsNotFound(err) {
			t.Fatalf("attempt %d: err = %v, want sts not found", i, err)
		}
	}
	if p.Caches().Sts.Len() != 0 {
		t.Error("a missing timestamp must not be cached")
	}
}

func TestFindSts(t *testing.T) {
	tests := []struct {
		src  string
		want string
		ok   bool
	}{
		{`{signatureTimestamp:19876,x:1}`, "19876", true},
		{`a={sts:20001}`, "20001", true},
		{`sts:1,signatureTimestamp:2`, "1", true},
		{`signatureTimestamp: 123`, "", false},
		{`sts:"123"`, "", false},
		{``, "", false},
	}
	for _, tt := range tests {
		got, ok := FindSts(tt.src)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FindSts(%q) = %q, %v; want %q, %v", tt.src, got, ok, tt.want, tt.ok)
		}
	}
}
