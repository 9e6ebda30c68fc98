package line

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	good := sign("secret", body)

	if !ValidateSignature("secret", good, body) {
		t.Fatalf("valid signature rejected")
	}
	if ValidateSignature("secret", good, []byte(`tampered`)) {
		t.Fatalf("tampered body accepted")
	}
	if ValidateSignature("othersecret", good, body) {
		t.Fatalf("wrong secret accepted")
	}
	if ValidateSignature("secret", "", body) {
		t.Fatalf("empty signature accepted")
	}
}

func TestPush_SendsBearerAndPayload(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		To       string    `json:"to"`
		Messages []Message `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/push" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("tok123")
	c.APIBase = srv.URL

	msg := TextMessage("⏰ 提醒！").WithQuickReplies(PostbackItem("知道了", "action=confirm&id=ev1"))
	if err := c.Push(context.Background(), "U1", msg); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody.To != "U1" || len(gotBody.Messages) != 1 || gotBody.Messages[0].Text != "⏰ 提醒！" {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
	if gotBody.Messages[0].QuickReply == nil || len(gotBody.Messages[0].QuickReply.Items) != 1 {
		t.Fatalf("quick replies not serialized: %+v", gotBody.Messages[0])
	}
}

func TestPush_ChannelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("tok")
	c.APIBase = srv.URL
	if err := c.Push(context.Background(), "U1", TextMessage("hi")); err == nil {
		t.Fatalf("expected channel error")
	}
}

func TestReply_PostsReplyToken(t *testing.T) {
	var gotBody struct {
		ReplyToken string `json:"replyToken"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/reply" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
	}))
	defer srv.Close()

	c := NewClient("tok")
	c.APIBase = srv.URL
	if err := c.Reply(context.Background(), "rt1", TextMessage("ok")); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if gotBody.ReplyToken != "rt1" {
		t.Fatalf("replyToken = %q", gotBody.ReplyToken)
	}
}

func TestProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profile/U1" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"displayName": "Alice", "userId": "U1"})
	}))
	defer srv.Close()

	c := NewClient("tok")
	c.APIBase = srv.URL

	name, err := c.Profile(context.Background(), "U1")
	if err != nil || name != "Alice" {
		t.Fatalf("Profile = (%q, %v)", name, err)
	}
	if _, err := c.Profile(context.Background(), "U404"); err == nil {
		t.Fatalf("expected lookup error for unknown user")
	}
}

func TestWebhookHelpers(t *testing.T) {
	msg := &EventMessage{Mention: &Mention{Mentionees: []Mentionee{
		{Type: "all"},          // @All has no user ID
		{UserID: "U9", Type: "user"},
	}}}
	if got := msg.FirstMentionedUser(); got != "U9" {
		t.Fatalf("FirstMentionedUser = %q", got)
	}
	if got := (*EventMessage)(nil).FirstMentionedUser(); got != "" {
		t.Fatalf("nil message should have no mention, got %q", got)
	}

	if got := (Source{Type: "group", GroupID: "G1", UserID: "U1"}).PushTarget(); got != "G1" {
		t.Fatalf("group PushTarget = %q", got)
	}
	if got := (Source{Type: "user", UserID: "U1"}).PushTarget(); got != "U1" {
		t.Fatalf("user PushTarget = %q", got)
	}
}
