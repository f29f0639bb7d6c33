package notification

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/notification"
)

const telegramAPIURL = "https://api.telegram.org"

// telegramMaxMessage is Telegram's limit on message text length, in characters.
const telegramMaxMessage = 4096

type TelegramNotifier struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
	logger   *zap.Logger
}

// Verify that TelegramNotifier implements Notifier interface
var _ notification.Notifier = (*TelegramNotifier)(nil)

func NewTelegramNotifier(botToken, chatID string, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		apiURL:   telegramAPIURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

func (n *TelegramNotifier) Name() string { return "telegram" }

func (n *TelegramNotifier) SendNotification(ctx context.Context, msg notification.Message) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)

	text := truncate(msg.Subject+"\n\n"+msg.Body, telegramMaxMessage)

	form := url.Values{
		"chat_id": {n.chatID},
		"text":    {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned non-OK status: %d", resp.StatusCode)
	}

	n.logger.Info("Successfully sent telegram notification",
		zap.String("chat_id", n.chatID))

	return nil
}

// truncate shortens text to at most limit characters, ending in "...". It
// never splits a multi-byte character.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return string(r[:limit-3]) + "..."
}
