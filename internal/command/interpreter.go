// Package command implements the reminder command grammar and the typed
// postback payloads exchanged through quick-reply buttons.
//
// The interpreter matches inbound chat text against the fixed grammar
//
//	提醒 WHO WHEN WHAT
//
// where WHO is the self token (我) or an arbitrary name token, WHEN is a
// date/time expression accepted by the timeparse package, and WHAT is the
// remaining free text. Instead of exception-driven "ignore this message"
// control flow, every call returns one of a closed set of outcomes so callers
// branch on exactly four cases: Ignored, HelpRequested, Rejected, or Command.
package command

import (
	"context"
	"strings"
	"time"

	"github.com/tbourn/go-reminder-backend/internal/timeparse"
)

// Keyword is the leading token that marks reminder commands. Everything not
// starting with it is silently ignored.
const Keyword = "提醒"

// selfTokens mark the creator as the reminder target.
var selfTokens = map[string]bool{"我": true, "me": true}

// FallbackSelfLabel is used when the profile lookup for the creator fails.
// Lookup failures are cosmetic and never fail the whole command.
const FallbackSelfLabel = "您"

// RejectReason is a stable machine-readable code explaining why an otherwise
// well-formed command was rejected.
type RejectReason string

// Reject reasons surfaced to the reply-building layer.
const (
	ReasonUnparseableTime RejectReason = "unparseable_time"
	ReasonTimeInPast      RejectReason = "time_in_past"
)

// Kind identifies the outcome of interpreting one inbound text.
type Kind int

const (
	// KindIgnored means the text is not a reminder command at all. No reply.
	KindIgnored Kind = iota
	// KindHelp means the keyword was present but the grammar did not match;
	// the caller should render usage instructions.
	KindHelp
	// KindRejected means the grammar matched but the WHEN expression could
	// not be accepted; Reason carries the cause.
	KindRejected
	// KindCommand means a fully resolved command is available in Command.
	KindCommand
)

// Result is the closed outcome set of Interpret.
type Result struct {
	Kind    Kind
	Reason  RejectReason // set only for KindRejected
	Command *Command     // set only for KindCommand
}

// Command is a fully resolved reminder request ready to be persisted.
type Command struct {
	CreatorID         string
	TargetID          string
	TargetDisplayName string
	Content           string
	EventAt           time.Time
}

// ProfileLookup resolves a user ID into a human-readable display name.
// Failures are tolerated; the interpreter falls back to a generic label.
type ProfileLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// ProfileLookupFunc adapts a plain function to the ProfileLookup interface.
type ProfileLookupFunc func(ctx context.Context, userID string) (string, error)

// DisplayName implements ProfileLookup.
func (f ProfileLookupFunc) DisplayName(ctx context.Context, userID string) (string, error) {
	return f(ctx, userID)
}

// Interpreter matches inbound text against the command grammar and resolves
// the WHEN expression into an instant. All collaborators are injected.
type Interpreter struct {
	// Resolver turns WHEN tokens into instants.
	Resolver *timeparse.Resolver
	// Profiles resolves display names; may be nil (fallback label is used).
	Profiles ProfileLookup
	// Now is the clock used for year/clock backfill and the past check.
	// Nil defaults to time.Now.
	Now func() time.Time
}

// Interpret parses text issued by creatorID. targetHint, when non-empty, is a
// transport-supplied recipient identity (e.g. the first mentioned user in a
// group message) used for non-self WHO tokens; without it the reminder is
// delivered to the creator, since name tokens alone cannot be resolved to a
// platform identity.
func (i *Interpreter) Interpret(ctx context.Context, text, creatorID, targetHint string) Result {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Keyword) {
		return Result{Kind: KindIgnored}
	}

	// Tokenize everything after the keyword. "提醒我 ..." and "提醒 我 ..."
	// both yield 我 as the WHO token.
	tokens := strings.Fields(strings.TrimPrefix(text, Keyword))
	if len(tokens) < 3 {
		return Result{Kind: KindHelp}
	}

	who := tokens[0]
	when, content, err := i.resolveWhen(tokens[1:])
	if err != nil {
		return Result{Kind: KindRejected, Reason: ReasonUnparseableTime}
	}
	if !when.After(i.now()) {
		return Result{Kind: KindRejected, Reason: ReasonTimeInPast}
	}

	cmd := &Command{
		CreatorID: creatorID,
		Content:   content,
		EventAt:   when,
	}
	if selfTokens[strings.ToLower(who)] {
		cmd.TargetID = creatorID
		cmd.TargetDisplayName = i.lookupSelf(ctx, creatorID)
	} else {
		cmd.TargetID = creatorID
		if targetHint != "" {
			cmd.TargetID = targetHint
		}
		cmd.TargetDisplayName = "@" + who
	}
	return Result{Kind: KindCommand, Command: cmd}
}

// resolveWhen consumes one or two leading tokens as the WHEN expression.
// The two-token form (date + time) is preferred when it leaves free text for
// WHAT and resolves cleanly; otherwise a single token is tried.
func (i *Interpreter) resolveWhen(tokens []string) (time.Time, string, error) {
	now := i.now()
	if len(tokens) >= 3 {
		if t, err := i.Resolver.Resolve(tokens[0]+" "+tokens[1], now); err == nil {
			return t, strings.Join(tokens[2:], " "), nil
		}
	}
	if len(tokens) >= 2 {
		if t, err := i.Resolver.Resolve(tokens[0], now); err == nil {
			return t, strings.Join(tokens[1:], " "), nil
		}
	}
	return time.Time{}, "", timeparse.ErrUnparseable
}

// lookupSelf fetches the creator's display name, falling back to a generic
// label on any lookup failure.
func (i *Interpreter) lookupSelf(ctx context.Context, userID string) string {
	if i.Profiles == nil {
		return FallbackSelfLabel
	}
	name, err := i.Profiles.DisplayName(ctx, userID)
	if err != nil || strings.TrimSpace(name) == "" {
		return FallbackSelfLabel
	}
	return name
}

func (i *Interpreter) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}
