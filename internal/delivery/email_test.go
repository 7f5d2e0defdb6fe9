package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/creatorpulse/server/internal/config"
)

func TestSend(t *testing.T) {
	var got sendRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(config.EmailConfig{
		Endpoint:    server.URL,
		APIKey:      "re_test",
		SenderEmail: "news@example.com",
		SenderName:  "CreatorPulse",
		Timeout:     time.Second,
	})

	err := client.Send(context.Background(), Message{
		To:      "reader@example.com",
		Subject: "Weekly Roundup",
		HTML:    "<p>hello</p>",
		Text:    "hello",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotAuth != "Bearer re_test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if got.From != "CreatorPulse <news@example.com>" {
		t.Errorf("from = %q", got.From)
	}
	if len(got.To) != 1 || got.To[0] != "reader@example.com" {
		t.Errorf("to = %v", got.To)
	}
	if got.Subject != "Weekly Roundup" {
		t.Errorf("subject = %q", got.Subject)
	}
}

func TestSend_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid recipient"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(config.EmailConfig{Endpoint: server.URL, APIKey: "re_test", SenderEmail: "news@example.com"})

	err := client.Send(context.Background(), Message{To: "bad", Subject: "x"})
	if err == nil {
		t.Fatal("Send() should fail on a 4xx response")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error should carry the status code, got %v", err)
	}
}

func TestSend_Unconfigured(t *testing.T) {
	client := NewClient(config.EmailConfig{})
	if err := client.Send(context.Background(), Message{To: "a@b.c"}); err == nil {
		t.Error("Send() without endpoint/key should fail fast")
	}
}

func TestSend_MissingRecipient(t *testing.T) {
	client := NewClient(config.EmailConfig{Endpoint: "http://localhost", APIKey: "k"})
	if err := client.Send(context.Background(), Message{}); err == nil {
		t.Error("Send() without a recipient should fail")
	}
}

func TestRenderHTML(t *testing.T) {
	body := "# Title\n\nFirst paragraph\nsame paragraph.\n\n## Section\n- one\n- two\n\nClosing <script> line."

	got := RenderHTML(body)

	for _, want := range []string{
		"<h1>Title</h1>",
		"<p>First paragraph same paragraph.</p>",
		"<h2>Section</h2>",
		"<ul><li>one</li><li>two</li></ul>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderHTML() missing %q in %q", want, got)
		}
	}

	if strings.Contains(got, "<script>") {
		t.Error("content must be HTML-escaped")
	}
}
