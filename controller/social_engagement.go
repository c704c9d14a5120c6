package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/covenantfi/oracle-agent/domain/risk"
	"github.com/covenantfi/oracle-agent/social"
)

// socialFeedLimit and socialMentionLimit bound how much of the platform's
// feed/mentions the engagement phase reads per cycle (spec §5 resource
// caps).
const (
	socialFeedLimit     = 30
	socialMentionLimit  = 20
)

// SocialEngagement reads the recent feed and direct mentions, looks for
// coverage-opportunity language, and replies with a pitch — respecting the
// daily comment/post caps (counted per UTC date; no separate per-cycle cap
// is applied), the inter-comment pacing floor, and the bounded-FIFO dedup
// of posts already processed (spec §4.8 step 5, §5, §9).
func (c *Controller) SocialEngagement(ctx context.Context) error {
	if c.socialClient == nil || c.registry.IsSuspended(time.Now()) {
		return nil
	}

	posts, err := c.socialClient.ReadFeed(ctx, social.FeedHot, socialFeedLimit)
	if err != nil {
		if c.recordIfSuspension(ctx, err) {
			return nil
		}
		return fmt.Errorf("social_engagement: read feed: %w", err)
	}
	mentions, err := c.socialClient.ReadMentions(ctx, socialMentionLimit)
	if err != nil {
		if c.recordIfSuspension(ctx, err) {
			return nil
		}
		return fmt.Errorf("social_engagement: read mentions: %w", err)
	}

	for _, m := range mentions {
		posts = append(posts, m)
	}

	for _, post := range posts {
		if c.registry.SeenPostID(post.ID) {
			continue
		}
		if !c.withinDailyCaps() {
			break
		}

		product, matched := risk.MatchProduct(post.Body)
		if !matched && !looksLikeCoverageRequest(post.Body) {
			continue
		}

		reply := genericPitch()
		if matched {
			reply = productPitch(product.DisplayName, product.ID)
		}

		if _, err := c.socialClient.Reply(ctx, post.ID, reply); err != nil {
			if c.recordIfSuspension(ctx, err) {
				return nil
			}
			if c.log != nil {
				c.log.Warn(ctx, "social_engagement: reply failed", map[string]interface{}{"post_id": post.ID, "error": err.Error()})
			}
			continue
		}

		c.registry.IncrementDaily(time.Now(), 1, 0)
		time.Sleep(c.cfg.InterCommentDelay)
	}
	return nil
}

func (c *Controller) withinDailyCaps() bool {
	comments, posts := c.registry.DailyCount(time.Now())
	if c.cfg.DailyCommentCap > 0 && comments >= c.cfg.DailyCommentCap {
		return false
	}
	if c.cfg.DailyPostCap > 0 && posts >= c.cfg.DailyPostCap {
		return false
	}
	return true
}

var coverageRequestKeywords = []string{"insurance", "coverage", "hedge", "protect", "cover me", "what if"}

func looksLikeCoverageRequest(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range coverageRequestKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func genericPitch() string {
	return "We underwrite parametric coverage for exactly this kind of risk — happy to price it if you share a threshold and timeframe."
}

func productPitch(displayName, productID string) string {
	return fmt.Sprintf("We already underwrite %s (%s) — want a quote?", displayName, productID)
}
