// Package session exposes the controller that runs captures and replays
// for embedding in other programs.
package session

import internalsession "github.com/SmitUplenchwar2687/macrokit/internal/session"

// Controller runs at most one capture or replay at a time.
type Controller = internalsession.Controller

// Options configures a Controller.
type Options = internalsession.Options

// Hooks are the callbacks a front end supplies.
type Hooks = internalsession.Hooks

// Outcome reports how a session ended.
type Outcome = internalsession.Outcome

// New creates a controller.
func New(opts Options) *Controller {
	return internalsession.New(opts)
}
