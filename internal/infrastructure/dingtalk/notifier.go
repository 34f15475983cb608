package dingtalk

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ESDMMonitor/internal/config"
	"ESDMMonitor/internal/domain"
	"ESDMMonitor/internal/ports"
)

// signingPrefix marks a robot secret used for HMAC signing rather than as a
// required keyword.
const signingPrefix = "SEC"

// Notifier posts markdown alerts to a DingTalk robot webhook.
type Notifier struct {
	webhookURL string
	secret     string
	client     *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook and optional secret.
func NewNotifier(cfg config.DingTalkConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		secret:     cfg.Secret,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

type response struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Notify sends alert. The caller only logs the returned error.
func (n *Notifier) Notify(ctx context.Context, alert domain.Alert) error {
	if n.webhookURL == "" || n.client == nil {
		return fmt.Errorf("dingtalk webhook: %w", ports.ErrNotConfigured)
	}

	endpoint := n.webhookURL
	requiredKeyword := ""
	if n.secret != "" {
		if IsSigningSecret(n.secret) {
			signed, err := SignURL(n.webhookURL, n.secret, n.now())
			if err != nil {
				return err
			}
			endpoint = signed
		} else {
			requiredKeyword = n.secret
		}
	}

	payload, err := json.Marshal(BuildMessage(alert, requiredKeyword))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	n.debug("send notification", "url", alert.URL)
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dingtalk error %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("dingtalk errcode %d: %s", result.ErrCode, result.ErrMsg)
	}
	return nil
}

// IsSigningSecret reports whether secret is a robot signing key.
func IsSigningSecret(secret string) bool {
	return strings.HasPrefix(secret, signingPrefix)
}

// Sign returns the base64 HMAC-SHA256 of "{timestamp}\n{secret}" keyed by secret.
func Sign(secret string, timestampMillis int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestampMillis, 10) + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignURL appends the timestamp and sign query parameters to webhook.
func SignURL(webhook, secret string, now time.Time) (string, error) {
	u, err := url.Parse(webhook)
	if err != nil {
		return "", fmt.Errorf("parse webhook: %w", err)
	}

	ts := now.UnixMilli()
	q := u.Query()
	q.Set("timestamp", strconv.FormatInt(ts, 10))
	q.Set("sign", Sign(secret, ts))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Message is the DingTalk markdown message body.
type Message struct {
	MsgType  string   `json:"msgtype"`
	Markdown Markdown `json:"markdown"`
}

// Markdown carries the card title and text.
type Markdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// BuildMessage formats alert. A non-empty requiredKeyword is appended as
// visible text so robots with keyword security accept the message.
func BuildMessage(alert domain.Alert, requiredKeyword string) Message {
	var b strings.Builder
	b.WriteString("**【印尼能矿部政策预警】**\n")
	fmt.Fprintf(&b, "- **中文标题**: %s\n", alert.TitleTranslated)
	fmt.Fprintf(&b, "- **原文标题**: %s\n", alert.TitleOriginal)
	fmt.Fprintf(&b, "- **关键词**: %s\n", strings.Join(alert.Keywords, ", "))
	fmt.Fprintf(&b, "- **发布时间**: %s\n", alert.Date)
	fmt.Fprintf(&b, "- **详情链接**: [点击跳转](%s)\n", alert.URL)
	if requiredKeyword != "" {
		fmt.Fprintf(&b, "\n\n(Keyword: %s)\n", requiredKeyword)
	}

	return Message{
		MsgType: "markdown",
		Markdown: Markdown{
			Title: "🇮🇩 ESDM: " + alert.TitleTranslated,
			Text:  b.String(),
		},
	}
}

func (n *Notifier) debug(msg string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
