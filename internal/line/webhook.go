package line

// Webhook wire types for the subset of events the reminder flow consumes:
// text messages (with mention metadata for group targeting) and postbacks.

// WebhookBody is the top-level webhook payload from the LINE platform.
type WebhookBody struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single webhook event.
type Event struct {
	Type       string        `json:"type"` // "message", "postback", "follow", ...
	Timestamp  int64         `json:"timestamp"`
	ReplyToken string        `json:"replyToken,omitempty"`
	Source     Source        `json:"source"`
	Message    *EventMessage `json:"message,omitempty"`
	Postback   *Postback     `json:"postback,omitempty"`
}

// Source identifies where an event originated.
type Source struct {
	Type    string `json:"type"` // "user", "group", "room"
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// EventMessage is an inbound message.
type EventMessage struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"` // "text", "sticker", ...
	Text    string   `json:"text,omitempty"`
	Mention *Mention `json:"mention,omitempty"`
}

// Mention carries @-mention metadata for group messages.
type Mention struct {
	Mentionees []Mentionee `json:"mentionees"`
}

// Mentionee is one mentioned participant. UserID is empty for special
// mentions such as @All.
type Mentionee struct {
	Index  int    `json:"index"`
	Length int    `json:"length"`
	Type   string `json:"type,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// FirstMentionedUser returns the user ID of the first resolvable mention, or
// "" when the message mentions nobody addressable (e.g. only @All).
func (m *EventMessage) FirstMentionedUser() string {
	if m == nil || m.Mention == nil {
		return ""
	}
	for _, mentionee := range m.Mention.Mentionees {
		if mentionee.UserID != "" {
			return mentionee.UserID
		}
	}
	return ""
}

// PushTarget returns the identity replies and pushes should address:
// the group or room for multi-party sources, the user otherwise.
func (s Source) PushTarget() string {
	switch s.Type {
	case "group":
		return s.GroupID
	case "room":
		return s.RoomID
	}
	return s.UserID
}

// Postback is a button press payload.
type Postback struct {
	Data string `json:"data"`
}
