package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VideoDigest/internal/failure"
)

const timedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0" dur="1.5">Hello   there,</text>
<text start="1.5" dur="2">it&amp;#39;s a
 test</text>
<text start="3.5" dur="1"></text>
</transcript>`

func noSleep(context.Context, time.Duration) error { return nil }

type captionServer struct {
	*httptest.Server
	captionCalls atomic.Int32
}

// newCaptionServer serves watch pages listing tracksJSON, where {base} is
// replaced with the server URL. The first emptyCaptions caption fetches
// return an empty body.
func newCaptionServer(t *testing.T, tracksJSON string, emptyCaptions int32) *captionServer {
	t.Helper()
	cs := &captionServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("v") {
		case "gone":
			w.WriteHeader(http.StatusNotFound)
		case "nocaptions":
			_, _ = w.Write([]byte(`<html><script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"}};</script></html>`))
		default:
			listed := strings.ReplaceAll(tracksJSON, "{base}", "http://"+r.Host)
			page := fmt.Sprintf(`<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":%s,"audioTracks":[]}}};</script></html>`, listed)
			_, _ = w.Write([]byte(page))
		}
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		n := cs.captionCalls.Add(1)
		if n <= emptyCaptions {
			return
		}
		_, _ = w.Write([]byte(timedText + "<!-- " + r.URL.Query().Get("lang") + " -->"))
	})
	cs.Server = httptest.NewServer(mux)
	t.Cleanup(cs.Close)
	return cs
}

func (cs *captionServer) provider(attempts int) *Provider {
	return NewProvider(Options{
		WatchURL:   cs.URL + "/watch",
		Languages:  []string{"en", "en-US"},
		Attempts:   attempts,
		RetryDelay: time.Second,
		Sleep:      noSleep,
	}, cs.Client(), nil)
}

const englishTracks = `[
	{"baseUrl":"{base}/timedtext?lang=de","languageCode":"de","name":{"runs":[{"text":"German"}]}},
	{"baseUrl":"{base}/timedtext?lang=en-asr","languageCode":"en","kind":"asr"},
	{"baseUrl":"{base}/timedtext?lang=en-US","languageCode":"en-US"}
]`

func TestTranscriptJoinsCaptionText(t *testing.T) {
	t.Parallel()

	cs := newCaptionServer(t, englishTracks, 0)

	text, err := cs.provider(3).Transcript(context.Background(), "vid1")

	require.NoError(t, err)
	assert.Equal(t, "Hello there, it's a test", text)
}

func TestTranscriptRetriesUntilCaptionsAreReady(t *testing.T) {
	t.Parallel()

	cs := newCaptionServer(t, englishTracks, 2)

	text, err := cs.provider(3).Transcript(context.Background(), "vid1")

	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Equal(t, int32(3), cs.captionCalls.Load())
}

func TestTranscriptNeverReadyIsUnavailable(t *testing.T) {
	t.Parallel()

	cs := newCaptionServer(t, englishTracks, 10)

	_, err := cs.provider(2).Transcript(context.Background(), "vid1")

	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrUnavailable)
	assert.Equal(t, int32(2), cs.captionCalls.Load())
}

func TestTranscriptInterruptedWhileWaitingIsTransient(t *testing.T) {
	t.Parallel()

	cs := newCaptionServer(t, englishTracks, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewProvider(Options{
		WatchURL:   cs.URL + "/watch",
		Languages:  []string{"en"},
		Attempts:   3,
		RetryDelay: time.Second,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}, cs.Client(), nil)

	_, err := p.Transcript(ctx, "vid1")

	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrTransient)
	assert.NotErrorIs(t, err, failure.ErrUnavailable)
	assert.Equal(t, int32(1), cs.captionCalls.Load())
}

func TestTranscriptUnavailableCases(t *testing.T) {
	t.Parallel()

	cs := newCaptionServer(t, `[{"baseUrl":"{base}/timedtext","languageCode":"fr"}]`, 0)

	for _, id := range []string{"nocaptions", "gone", "french-only"} {
		_, err := cs.provider(1).Transcript(context.Background(), id)
		assert.ErrorIs(t, err, failure.ErrUnavailable, id)
	}
}

func TestPickTrackPrefersManualCaptions(t *testing.T) {
	t.Parallel()

	all := []captionTrack{
		{BaseURL: "asr-en", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "manual-gb", LanguageCode: "en-GB"},
	}

	track, ok := pickTrack(all, []string{"en", "en-US", "en-GB"})
	require.True(t, ok)
	assert.Equal(t, "manual-gb", track.BaseURL)

	track, ok = pickTrack(all[:1], []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "asr-en", track.BaseURL)

	_, ok = pickTrack(all, []string{"de"})
	assert.False(t, ok)
}

func TestParseTimedTextRejectsNonCaptionBodies(t *testing.T) {
	t.Parallel()

	_, err := ParseTimedText("<html>consent required</html>")
	assert.ErrorIs(t, err, failure.ErrMalformedResponse)

	_, err = ParseTimedText(`<transcript><text start="0"> </text></transcript>`)
	assert.ErrorIs(t, err, failure.ErrMalformedResponse)
}
