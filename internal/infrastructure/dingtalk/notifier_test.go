package dingtalk

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ESDMMonitor/internal/config"
	"ESDMMonitor/internal/domain"
	"ESDMMonitor/internal/logging"
	"ESDMMonitor/internal/ports"
)

var testAlert = domain.Alert{
	TitleTranslated: "新镍政策",
	TitleOriginal:   "Kebijakan Nikel Baru",
	Keywords:        []string{"nikel", "rkab"},
	Date:            "19 Desember 2024",
	URL:             "https://www.esdm.go.id/id/media-center/arsip-berita/1",
}

type captured struct {
	query url.Values
	msg   Message
}

func robotServer(t *testing.T, reply string, got *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.query = r.URL.Query()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got.msg))
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNotifySignsWithSECSecret(t *testing.T) {
	t.Parallel()

	var got captured
	server := robotServer(t, `{"errcode":0,"errmsg":"ok"}`, &got)

	n := NewNotifier(config.DingTalkConfig{
		WebhookURL: server.URL + "/robot/send?access_token=abc",
		Secret:     "SECxxxx",
	}, logging.Discard())
	now := time.UnixMilli(1734567890123)
	n.now = func() time.Time { return now }

	require.NoError(t, n.Notify(context.Background(), testAlert))

	assert.Equal(t, "abc", got.query.Get("access_token"))
	assert.Equal(t, "1734567890123", got.query.Get("timestamp"))

	mac := hmac.New(sha256.New, []byte("SECxxxx"))
	mac.Write([]byte("1734567890123\nSECxxxx"))
	assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), got.query.Get("sign"))

	assert.NotContains(t, got.msg.Markdown.Text, "Keyword:")
}

func TestNotifyAppendsPlainSecretAsKeyword(t *testing.T) {
	t.Parallel()

	var got captured
	server := robotServer(t, `{"errcode":0,"errmsg":"ok"}`, &got)

	n := NewNotifier(config.DingTalkConfig{
		WebhookURL: server.URL + "/robot/send?access_token=abc",
		Secret:     "projectX",
	}, logging.Discard())

	require.NoError(t, n.Notify(context.Background(), testAlert))

	assert.Empty(t, got.query.Get("sign"))
	assert.Empty(t, got.query.Get("timestamp"))
	assert.Contains(t, got.msg.Markdown.Text, "(Keyword: projectX)")
}

func TestNotifyMessageLayout(t *testing.T) {
	t.Parallel()

	var got captured
	server := robotServer(t, `{"errcode":0}`, &got)

	n := NewNotifier(config.DingTalkConfig{WebhookURL: server.URL}, logging.Discard())
	require.NoError(t, n.Notify(context.Background(), testAlert))

	assert.Equal(t, "markdown", got.msg.MsgType)
	assert.Equal(t, "🇮🇩 ESDM: 新镍政策", got.msg.Markdown.Title)
	assert.Contains(t, got.msg.Markdown.Text, "Kebijakan Nikel Baru")
	assert.Contains(t, got.msg.Markdown.Text, "nikel, rkab")
	assert.Contains(t, got.msg.Markdown.Text, "19 Desember 2024")
	assert.Contains(t, got.msg.Markdown.Text, "(https://www.esdm.go.id/id/media-center/arsip-berita/1)")
}

func TestNotifyRejectedByRobot(t *testing.T) {
	t.Parallel()

	var got captured
	server := robotServer(t, `{"errcode":310000,"errmsg":"keywords not in content"}`, &got)

	n := NewNotifier(config.DingTalkConfig{WebhookURL: server.URL}, logging.Discard())
	err := n.Notify(context.Background(), testAlert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "310000")
}

func TestNotifyWithoutWebhook(t *testing.T) {
	t.Parallel()

	n := NewNotifier(config.DingTalkConfig{}, logging.Discard())
	err := n.Notify(context.Background(), testAlert)
	assert.True(t, errors.Is(err, ports.ErrNotConfigured))
}

func TestIsSigningSecret(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSigningSecret("SECabc"))
	assert.False(t, IsSigningSecret("projectX"))
	assert.False(t, IsSigningSecret("sec-lowercase"))
}
