// Package social defines the capability set the Lifecycle Controller drives
// for platform engagement, plus the machine-execution-payload artifact
// every phase-change publishes (spec §4.7).
package social

import "context"

const (
	// ShortPostMaxChars bounds a short post body (spec §4.7).
	ShortPostMaxChars = 500
	// LongArticleMaxChars bounds a long article body — larger than a
	// short post but still finite, to keep platform payloads reasonable.
	LongArticleMaxChars = 20000
)

// FeedOrdering selects which ordering of the global feed to read.
type FeedOrdering string

const (
	FeedHot FeedOrdering = "hot"
	FeedNew FeedOrdering = "new"
)

// Post is a single feed, mention, or inbox item.
type Post struct {
	ID        string
	Author    string
	Body      string
	CreatedAt int64
}

// Client is the capability set the Controller's social engagement phase
// consumes (spec §4.7). Failures are non-fatal — callers treat every error
// from this interface as "skip this operation, continue the cycle."
type Client interface {
	PublishShort(ctx context.Context, body string) (postID string, err error)
	PublishLong(ctx context.Context, title, body string) (postID string, err error)
	Reply(ctx context.Context, inReplyTo, body string) (postID string, err error)
	Like(ctx context.Context, postID string) error

	ReadFeed(ctx context.Context, ordering FeedOrdering, limit int) ([]Post, error)
	ReadMentions(ctx context.Context, limit int) ([]Post, error)
	ReadInbox(ctx context.Context, limit int) ([]Post, error)
	Search(ctx context.Context, phrase string, limit int) ([]Post, error)
}
