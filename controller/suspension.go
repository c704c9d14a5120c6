package controller

import (
	"context"
	"errors"
	"time"

	"github.com/covenantfi/oracle-agent/social"
)

// suspensionCooldown is how long the agent waits out a detected platform
// suspension before attempting social writes again (spec §4.8 step 6).
const suspensionCooldown = 6 * time.Hour

// recordIfSuspension inspects err for a *social.SuspensionError and, if
// found, records a suspension window on the registry so subsequent cycles
// skip write-class social operations until it lapses. Returns true if a
// suspension was recorded.
func (c *Controller) recordIfSuspension(ctx context.Context, err error) bool {
	var suspErr *social.SuspensionError
	if !errors.As(err, &suspErr) {
		return false
	}
	until := time.Now().Add(suspensionCooldown)
	c.registry.SetSuspendedUntil(until)
	if c.log != nil {
		c.log.Warn(ctx, "controller: social platform suspension detected, suspending write-class social ops", map[string]interface{}{"status_code": suspErr.StatusCode, "until": until})
	}
	return true
}

// checkSuspension clears an expired suspension window so write-class social
// ops resume on the next cycle once the cooldown has lapsed.
func (c *Controller) checkSuspension() {
	now := time.Now()
	if c.registry.IsSuspended(now) {
		return
	}
	// ClearSuspension is a no-op if nothing was ever recorded; calling it
	// unconditionally each cycle is simpler than tracking whether a
	// suspension just lapsed.
	c.registry.ClearSuspension()
}
