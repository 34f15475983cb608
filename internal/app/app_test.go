package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ESDMMonitor/internal/config"
	"ESDMMonitor/internal/logging"
)

type site struct {
	mu     sync.Mutex
	alerts []string
}

func (s *site) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.alerts...)
}

func (s *site) handler(origin *string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/id/media-center/siaran-pers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
<a href="/id/media-center/arsip-berita/1">Kebijakan NIKEL Baru Diterbitkan</a>
<a href="%s/id/media-center/arsip-berita/1">Kebijakan NIKEL Baru Diterbitkan</a>
<a href="/id/media-center/arsip-berita/2">Menteri Resmikan PLTS Terapung</a>
<a href="/id/beranda">Beranda situs kementerian</a>
</body></html>`, *origin)
	})
	mux.HandleFunc("/id/media-center/arsip-berita/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>Tanggal : 19 Desember 2024\n</p><p>isi</p></body></html>")
	})
	mux.HandleFunc("/id/media-center/arsip-berita/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta property="og:description" content="Tanggal: 20 Desember 2024"></head><body>tenaga surya</body></html>`)
	})
	mux.HandleFunc("/robot/send", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.alerts = append(s.alerts, r.URL.RawQuery)
		s.mu.Unlock()
		fmt.Fprint(w, `{"errcode":0,"errmsg":"ok"}`)
	})
	return mux
}

func testConfig(t *testing.T, origin string) config.Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	raw := fmt.Sprintf(`{
  "db_file": %q,
  "target_url": "%s/id/media-center/siaran-pers",
  "site_origin": %q,
  "keywords": ["RKAB", "nikel", "kobalt"],
  "dingtalk": {"webhook_url": "%s/robot/send?access_token=t", "secret": "SECabc"},
  "llm": {"model": "deepseek-chat"}
}`, filepath.Join(dir, "news.db"), origin, origin, origin)
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := config.Load(path)
	cfg.DingTalk.WebhookURL = origin + "/robot/send?access_token=t"
	cfg.DingTalk.Secret = "SECabc"
	cfg.LLM.APIKey = ""
	cfg.Fetcher.MinDelay = 0
	cfg.Fetcher.MaxDelay = 0
	cfg.Fetcher.ErrorPause = 0
	return cfg
}

func TestApplicationRunOnceEndToEnd(t *testing.T) {
	var origin string
	s := &site{}
	server := httptest.NewServer(s.handler(&origin))
	defer server.Close()
	origin = server.URL

	ctx := context.Background()
	application, err := New(ctx, testConfig(t, origin), logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	report, err := application.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Discovered, "relative and absolute links collapse into one candidate")
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Unmatched)

	alerts := s.received()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "sign=")
	assert.Contains(t, alerts[0], "timestamp=")

	rec, ok, err := application.store.Lookup(ctx, origin+"/id/media-center/arsip-berita/2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "20 Desember 2024", rec.PublishedDate)

	report, err = application.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Len(t, s.received(), 1, "second run sends nothing")

	n, err := application.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.TargetURL = ""

	_, err := New(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
}
