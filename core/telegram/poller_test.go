package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/cnybot/core/config"
)

func TestBuildPoller(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = coreconfig.RunModeWebhook
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 10000
	cfg.Webhook.URL = "https://cny.example.com/webhook/123:abc"

	wh, ok := BuildPoller(cfg).(*tele.Webhook)
	require.True(t, ok)
	require.Equal(t, "0.0.0.0:10000", wh.Listen)
	require.Equal(t, "https://cny.example.com/webhook/123:abc", wh.Endpoint.PublicURL)

	cfg.Telegram.RunMode = coreconfig.RunModeLongpoll
	lp, ok := BuildPoller(cfg).(*tele.LongPoller)
	require.True(t, ok)
	require.Equal(t, 10*time.Second, lp.Timeout)

	cfg.Telegram.LongPollTimeoutSeconds = 25
	require.Equal(t, 25*time.Second, BuildPoller(cfg).(*tele.LongPoller).Timeout)
}
