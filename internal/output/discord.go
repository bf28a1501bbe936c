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

const discordLimit = 1900

// DiscordWriter shares a page to a Discord channel via Webhook.
type DiscordWriter struct {
	webhookURL string
	client     *httpclient.Client
	tr         i18n.Translator
}

func NewDiscordWriter(webhookURL string, client *httpclient.Client, tr i18n.Translator) *DiscordWriter {
	return &DiscordWriter{
		webhookURL: webhookURL,
		client:     client,
		tr:         tr,
	}
}

func (dw *DiscordWriter) WritePage(ctx context.Context, view listing.View) error {
	// Discord has a 2000 char limit per message.
	header := fmt.Sprintf("**%d/%d**\n\n", view.Params.Page, view.TotalPages)
	entries := make([]string, len(view.Jobs))
	for i, j := range view.Jobs {
		entries[i] = dw.formatJob(i+1, j)
	}

	for _, c := range chunk(header, entries, discordLimit) {
		if err := dw.send(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (dw *DiscordWriter) formatJob(n int, j model.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%d. %s**\n", n, j.Name)
	fmt.Fprintf(&b, "> %s: %s\n", dw.tr.T("Company Name"), j.CompanyName)
	fmt.Fprintf(&b, "> %s: %s\n", dw.tr.T("Location"), j.Location)
	if j.Salary != "" {
		fmt.Fprintf(&b, "> %s: %s\n", dw.tr.T("Salary"), j.Salary)
	}
	if len(j.Tags) > 0 {
		fmt.Fprintf(&b, "> %s\n", strings.Join(j.Tags, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

type discordPayload struct {
	Content string `json:"content"`
}

func (dw *DiscordWriter) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(discordPayload{Content: text})
	if err != nil {
		return fmt.Errorf("discord: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dw.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("discord: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dw.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var result map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("discord: API error %d: %v", resp.StatusCode, result["message"])
	}

	return nil
}
