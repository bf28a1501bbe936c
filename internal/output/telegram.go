package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rsilvagit/joblist/internal/httpclient"
	"github.com/rsilvagit/joblist/internal/i18n"
	"github.com/rsilvagit/joblist/internal/listing"
	"github.com/rsilvagit/joblist/internal/model"
)

const (
	telegramAPI   = "https://api.telegram.org"
	telegramLimit = 3800
)

// TelegramWriter shares a page to a Telegram chat via the Bot API.
type TelegramWriter struct {
	token   string
	chatID  string
	apiBase string
	client  *httpclient.Client
	tr      i18n.Translator
}

func NewTelegramWriter(token, chatID string, client *httpclient.Client, tr i18n.Translator) *TelegramWriter {
	return &TelegramWriter{
		token:   token,
		chatID:  chatID,
		apiBase: telegramAPI,
		client:  client,
		tr:      tr,
	}
}

func (tw *TelegramWriter) WritePage(ctx context.Context, view listing.View) error {
	// Telegram has a 4096 char limit per message.
	header := fmt.Sprintf("*%d/%d*\n\n", view.Params.Page, view.TotalPages)
	entries := make([]string, len(view.Jobs))
	for i, j := range view.Jobs {
		entries[i] = tw.formatJob(i+1, j)
	}

	for _, c := range chunk(header, entries, telegramLimit) {
		if err := tw.send(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (tw *TelegramWriter) formatJob(n int, j model.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\\. %s*\n", n, escapeMarkdown(j.Name))
	fmt.Fprintf(&b, "%s: %s\n", escapeMarkdown(tw.tr.T("Company Name")), escapeMarkdown(j.CompanyName))
	fmt.Fprintf(&b, "%s: %s\n", escapeMarkdown(tw.tr.T("Location")), escapeMarkdown(j.Location))
	if j.Salary != "" {
		fmt.Fprintf(&b, "%s: %s\n", escapeMarkdown(tw.tr.T("Salary")), escapeMarkdown(j.Salary))
	}
	if len(j.Tags) > 0 {
		fmt.Fprintf(&b, "%s\n", escapeMarkdown(strings.Join(j.Tags, ", ")))
	}
	b.WriteString("\n")
	return b.String()
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]",
		"(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`",
		">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
		"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}",
		".", "\\.", "!", "\\!",
	)
	return replacer.Replace(s)
}

func (tw *TelegramWriter) send(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", tw.apiBase, tw.token)

	payload := map[string]string{
		"chat_id":    tw.chatID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tw.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error %d: %v", resp.StatusCode, result["description"])
	}

	return nil
}
