package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/rsilvagit/joblist/internal/httpclient"
	"github.com/rsilvagit/joblist/internal/i18n"
	"github.com/rsilvagit/joblist/internal/listing"
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
)

func translator(t *testing.T, lang string) i18n.Translator {
	t.Helper()
	b, err := i18n.Load("en")
	require.NoError(t, err)
	return b.Match(lang, "")
}

func client(t *testing.T) *httpclient.Client {
	t.Helper()
	c, err := httpclient.New(httpclient.Options{}, arbor.NewLogger())
	require.NoError(t, err)
	return c
}

func sampleView(n int) listing.View {
	p := query.Default()
	p.Page = 2
	jobs := make([]model.Job, n)
	for i := range jobs {
		jobs[i] = model.Job{
			ID:          fmt.Sprintf("job-%02d", i+1),
			Name:        fmt.Sprintf("Go Developer %d", i+1),
			CompanyName: "Acme",
			Location:    "São Paulo",
			Salary:      "R$ 10.000",
			Tags:        []string{"go", "redis"},
		}
	}
	return listing.View{Status: listing.Loaded, Params: p, Jobs: jobs, Total: 95, TotalPages: 10}
}

func TestConsolePrinter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsolePrinter(&buf, translator(t, "en")).WritePage(context.Background(), sampleView(2)))

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "COMPANY NAME")
	assert.Contains(t, strings.ToUpper(out), "TAGS")
	assert.Contains(t, out, "Go Developer 1")
	assert.Contains(t, out, "Go Developer 2")
	assert.Contains(t, out, "go, redis")
	assert.True(t, strings.HasSuffix(out, "\n2/10\n"))
}

func TestConsolePrinter_Translated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsolePrinter(&buf, translator(t, "pt-BR")).WritePage(context.Background(), sampleView(1)))
	out := strings.ToUpper(buf.String())
	assert.Contains(t, out, "EMPRESA")
	assert.Contains(t, out, "LOCALIZAÇÃO")
}

func TestConsolePrinter_EmptyPage(t *testing.T) {
	var buf bytes.Buffer
	v := sampleView(0)
	v.Params.Page = 11
	require.NoError(t, NewConsolePrinter(&buf, translator(t, "en")).WritePage(context.Background(), v))
	assert.True(t, strings.HasSuffix(buf.String(), "11/10\n"))
}

func TestChunk(t *testing.T) {
	chunks := chunk("H\n", []string{"aaaa", "bbbb", "cccc"}, 8)
	assert.Equal(t, []string{"H\naaaa", "bbbbcccc"}, chunks)

	chunks = chunk("H\n", []string{strings.Repeat("x", 20)}, 10)
	assert.Equal(t, []string{"H\n" + strings.Repeat("x", 20)}, chunks)

	assert.Equal(t, []string{"H\n"}, chunk("H\n", nil, 10))
}

type recorded struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]string
}

func (r *recorded) handler(status int, reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(req.Body).Decode(&body)
		r.mu.Lock()
		r.paths = append(r.paths, req.URL.Path)
		r.bodies = append(r.bodies, body)
		r.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}
}

func TestTelegramWriter(t *testing.T) {
	rec := &recorded{}
	ts := httptest.NewServer(rec.handler(http.StatusOK, `{"ok":true}`))
	defer ts.Close()

	tw := NewTelegramWriter("bot-token", "42", client(t), translator(t, "en"))
	tw.apiBase = ts.URL

	require.NoError(t, tw.WritePage(context.Background(), sampleView(2)))
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, "/botbot-token/sendMessage", rec.paths[0])
	assert.Equal(t, "42", rec.bodies[0]["chat_id"])
	assert.Equal(t, "MarkdownV2", rec.bodies[0]["parse_mode"])
	assert.Contains(t, rec.bodies[0]["text"], "*2/10*")
	assert.Contains(t, rec.bodies[0]["text"], "R$ 10\\.000")
}

func TestTelegramWriter_Chunks(t *testing.T) {
	rec := &recorded{}
	ts := httptest.NewServer(rec.handler(http.StatusOK, `{"ok":true}`))
	defer ts.Close()

	tw := NewTelegramWriter("t", "42", client(t), translator(t, "en"))
	tw.apiBase = ts.URL

	require.NoError(t, tw.WritePage(context.Background(), sampleView(100)))
	assert.Greater(t, len(rec.bodies), 1)
	for _, b := range rec.bodies {
		assert.LessOrEqual(t, len(b["text"]), 4096)
	}
}

func TestTelegramWriter_APIError(t *testing.T) {
	rec := &recorded{}
	ts := httptest.NewServer(rec.handler(http.StatusBadRequest, `{"ok":false,"description":"chat not found"}`))
	defer ts.Close()

	tw := NewTelegramWriter("t", "42", client(t), translator(t, "en"))
	tw.apiBase = ts.URL

	err := tw.WritePage(context.Background(), sampleView(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestDiscordWriter(t *testing.T) {
	rec := &recorded{}
	ts := httptest.NewServer(rec.handler(http.StatusNoContent, ""))
	defer ts.Close()

	dw := NewDiscordWriter(ts.URL+"/api/webhooks/1/abc", client(t), translator(t, "pt-BR"))
	require.NoError(t, dw.WritePage(context.Background(), sampleView(1)))

	require.Len(t, rec.bodies, 1)
	assert.Equal(t, "/api/webhooks/1/abc", rec.paths[0])
	assert.Contains(t, rec.bodies[0]["content"], "**2/10**")
	assert.Contains(t, rec.bodies[0]["content"], "> Empresa: Acme")
}

func TestDiscordWriter_APIError(t *testing.T) {
	rec := &recorded{}
	ts := httptest.NewServer(rec.handler(http.StatusNotFound, `{"message":"Unknown Webhook"}`))
	defer ts.Close()

	err := NewDiscordWriter(ts.URL, client(t), translator(t, "en")).WritePage(context.Background(), sampleView(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown Webhook")
}
