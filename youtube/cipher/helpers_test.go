package cipher

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ytget/sigsolver/internal/sandbox"
)

const playerURL = "https://www.youtube.com/s/player/0123abcd/player_ias.vflset/en_US/base.js"

// player wraps statements the way the platform's bundle does.
func player(stmts ...string) string {
	return "var _yt_player={};(function(g){var window=this;" + strings.Join(stmts, "\n") + "})(_yt_player);"
}

// solvablePlayer reverses n and drops the first two signature characters.
func solvablePlayer() string {
	return player(
		`var nz,Rk;`,
		`var Nx=[nz];`,
		`nz=function(a){return a.split("").reverse().join("")};`,
		`Rk=function(k,a){return a.slice(k)};`,
		`function Sj(a,b,c){a&&(b=Rk(2,decodeURIComponent(b)),c.set(b));return c}`,
		`var cfg={signatureTimestamp:20073,sts:1};`,
	)
}

// nOnlyPlayer has an n transform and no signature transform.
func nOnlyPlayer() string {
	return player(
		`var nz;`,
		`var Nx=[nz];`,
		`nz=function(a){return a+"!"};`,
		`var cfg={sts:19999};`,
	)
}

type fakeDownloader struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls atomic.Int64
	// gate blocks every download until closed.
	gate chan struct{}
}

func newFakeDownloader(pages map[string]string) *fakeDownloader {
	return &fakeDownloader{pages: pages, errs: map[string]error{}}
}

func (f *fakeDownloader) Text(ctx context.Context, rawURL string) (string, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[rawURL]; err != nil {
		return "", err
	}
	return f.pages[rawURL], nil
}

func (f *fakeDownloader) setError(rawURL string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[rawURL] = err
}

func newTestPipeline(t *testing.T, dl Downloader, ev sandbox.Evaluator) *Pipeline {
	t.Helper()
	return New(Options{
		Downloader: dl,
		Caches:     NewCaches(CacheConfig{}),
		Evaluator:  ev,
	})
}

func evaluators() map[string]sandbox.Evaluator {
	return map[string]sandbox.Evaluator{
		sandbox.EngineGoja: &sandbox.Goja{},
		sandbox.EngineOtto: &sandbox.Otto{},
	}
}
