// Package scripthost drives the per-tick entity traversal a host script
// triggers each frame and routes hook errors/panics to the active layer's
// error handler, treating forward progress as a hard requirement: a
// failing or panicking script hook is logged and the tick continues
// rather than aborting the frame.
package scripthost

import (
	"fmt"
	"log"

	"github.com/radiusengine/willow-radius/internal/entity"
)

// ErrorHandler receives a hook failure for e. A nil handler falls back to
// logging via the package-level logger.
type ErrorHandler func(e *entity.Entity, err error)

// Tick walks root and every descendant in update order, locking each
// node's children for the duration of its own subtree traversal (so a
// hook may freely reparent/add/remove siblings of the node currently
// running) and invoking its OnUpdate hook, if any. Errors and panics
// raised by a hook are routed to onErr (or logged) and do not stop the
// traversal of the rest of the tree, so one misbehaving entity never
// blocks the frame for everything else.
func Tick(root *entity.Entity, dt float64, onErr ErrorHandler) {
	invoke(root, dt, onErr)
	root.LockChildren()
	root.EachChild(func(c *entity.Entity) {
		Tick(c, dt, onErr)
	})
	root.UnlockChildren()
}

func invoke(e *entity.Entity, dt float64, onErr ErrorHandler) {
	if e.OnUpdate == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			route(e, fmt.Errorf("radius: entity update hook panicked: %v", r), onErr)
		}
	}()
	if err := e.OnUpdate(dt); err != nil {
		route(e, fmt.Errorf("radius: entity update hook: %w", err), onErr)
	}
}

func route(e *entity.Entity, err error, onErr ErrorHandler) {
	if onErr != nil {
		onErr(e, err)
		return
	}
	log.Printf("radius: unhandled entity update error: %v", err)
}
