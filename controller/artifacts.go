package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/social"
)

// publishArtifact publishes a long article carrying the fenced-JSON
// machine-execution payload, followed by a short post pitching it and
// linking the human deep-link URL (spec §4.7/§6). record is called with the
// short post's id so the caller can stamp the entry's ArtifactIDs; those ids
// are not consulted before publishing. Failures here are
// logged and swallowed — social engagement is never allowed to block
// on-chain phases (spec §4.8).
func (c *Controller) publishArtifact(ctx context.Context, entry pool.Entry, artifact social.Artifact, record func(*pool.Entry, string)) {
	if c.socialClient == nil || c.registry.IsSuspended(time.Now()) {
		return
	}

	fenced, err := artifact.MarshalFencedJSON()
	if err != nil {
		if c.log != nil {
			c.log.Warn(ctx, "controller: marshal artifact failed", map[string]interface{}{"pool_id": entry.PoolID, "error": err.Error()})
		}
		return
	}

	title := fmt.Sprintf("%s — pool #%d", entry.Description, entry.PoolID)
	articleID, err := c.socialClient.PublishLong(ctx, title, fenced)
	if err != nil {
		if c.recordIfSuspension(ctx, err) {
			return
		}
		if c.log != nil {
			c.log.Warn(ctx, "controller: publish long article failed", map[string]interface{}{"pool_id": entry.PoolID, "error": err.Error()})
		}
		return
	}

	pitch := fmt.Sprintf("%s %s", title, artifact.DeepLinkURL)
	if len(pitch) > social.ShortPostMaxChars {
		pitch = pitch[:social.ShortPostMaxChars]
	}
	postID, err := c.socialClient.PublishShort(ctx, pitch)
	if err != nil {
		if c.recordIfSuspension(ctx, err) {
			return
		}
		if c.log != nil {
			c.log.Warn(ctx, "controller: publish short post failed", map[string]interface{}{"pool_id": entry.PoolID, "article_id": articleID, "error": err.Error()})
		}
		return
	}

	c.registry.Mutate(entry.ContractVariant, entry.PoolID, func(e *pool.Entry) {
		record(e, postID)
	})
}
