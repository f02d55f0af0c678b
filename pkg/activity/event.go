// Package activity publishes one message per committed mutation to a
// RabbitMQ topic exchange and lets tools consume them.
package activity

import (
	"context"
	"time"

	sn_trace "gathering/pkg/trace"
)

type Kind string

const (
	KindSignup        Kind = "signup"
	KindLogin         Kind = "login"
	KindLogout        Kind = "logout"
	KindProfileEdited Kind = "profile_edited"
	KindPostCreated   Kind = "post_created"
	KindPostDeleted   Kind = "post_deleted"
	KindLikeToggled   Kind = "like_toggled"
	KindCommentAdded  Kind = "comment_added"
	KindSeeded        Kind = "seeded"
)

type Event struct {
	Kind      Kind  `json:"kind"`
	UserID    int64 `json:"user_id,omitempty"`
	PostID    int64 `json:"post_id,omitempty"`
	CommentID int64 `json:"comment_id,omitempty"`
	Liked     bool  `json:"liked,omitempty"`
	Timestamp int64 `json:"timestamp"`
	// tracing
	SpanContext sn_trace.SpanContext `json:"span_context"`
}

// NewEvent stamps an event of the given kind with the current time and the
// span context found in ctx.
func NewEvent(ctx context.Context, kind Kind) Event {
	return Event{
		Kind:        kind,
		Timestamp:   time.Now().UnixMilli(),
		SpanContext: sn_trace.FromContext(ctx),
	}
}

// RoutingKey is the topic an event is published under.
func (e Event) RoutingKey() string {
	return "activity." + string(e.Kind)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
