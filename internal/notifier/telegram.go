package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

const telegramTimeout = 10 * time.Second

var apiBaseURL = "https://api.telegram.org/bot"

// TelegramNotifier sends reminders through the Telegram Bot API
type TelegramNotifier struct {
	botToken   string
	chatID     string
	httpClient *http.Client
	now        func() time.Time
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		httpClient: &http.Client{
			Timeout: telegramTimeout,
		},
		now: time.Now,
	}, nil
}

// Notify sends one message per collection
func (n *TelegramNotifier) Notify(ctx context.Context, collections []waste.Collection) error {
	today := n.now()
	for _, col := range collections {
		if err := n.SendMessage(ctx, formatTelegramReminder(col, today)); err != nil {
			return fmt.Errorf("sending reminder for %s: %w", waste.FormatDate(col.Date), err)
		}
	}
	return nil
}

// SendMessage sends an HTML message to the configured chat
func (n *TelegramNotifier) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	url := fmt.Sprintf("%s%s/sendMessage", apiBaseURL, n.botToken)

	payload := map[string]interface{}{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	return nil
}

// formatTelegramReminder formats a collection as an HTML Telegram message
func formatTelegramReminder(col waste.Collection, today time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗑️ <b>%s %s</b>\n\n", waste.CollectionSummary, relativeDay(col.DaysFrom(today)))
	fmt.Fprintf(&b, "📅 %s\n", FormatDate(col.Date))
	for _, name := range col.Names() {
		fmt.Fprintf(&b, "♻️ %s\n", html.EscapeString(name))
	}
	return b.String()
}
