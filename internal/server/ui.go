package server

import (
	"github.com/SmitUplenchwar2687/macrokit/internal/event"
	"github.com/SmitUplenchwar2687/macrokit/internal/replay"
	"github.com/SmitUplenchwar2687/macrokit/internal/session"
	"github.com/SmitUplenchwar2687/macrokit/internal/state"
	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

// UI turns controller callbacks into websocket messages. The browser is the
// user interface: it shows notices and reloads the recordings list when
// told to.
type UI struct {
	hub *Hub
}

// NewUI returns a UI that publishes on hub.
func NewUI(hub *Hub) *UI {
	return &UI{hub: hub}
}

// Hooks returns the session hooks backed by this UI.
func (u *UI) Hooks() session.Hooks {
	return session.Hooks{
		Refresh:    u.Refresh,
		Notice:     func(text string) { u.hub.Publish(KindNotice, text) },
		PromptSave: u.promptSave,
		Notify:     func(err error) { u.hub.Publish(KindError, err.Error()) },
	}
}

// Refresh tells clients the recordings list changed.
func (u *UI) Refresh() {
	u.hub.Publish(KindRecordings, nil)
}

// Finished publishes a session outcome.
func (u *UI) Finished(out session.Outcome) {
	u.hub.Publish(KindOutcome, outcomePayload{Outcome: out, Error: errString(out.Err)})
}

// State publishes a state change. It fits state.Machine.OnChange.
func (u *UI) State(snap state.Snapshot) {
	u.hub.Publish(KindState, snap)
}

// Event publishes a captured event. It fits session.Options.OnEvent.
func (u *UI) Event(e event.Event) {
	u.hub.Publish(KindEvent, e)
}

// Result publishes a replayed event. It fits session.Options.OnResult.
func (u *UI) Result(r replay.Result) {
	u.hub.Publish(KindResult, resultPayload{Result: r, Error: errString(r.Err)})
}

// promptSave accepts the name the capture was started with.
func (u *UI) promptSave(def string) (string, bool) {
	if def == "" {
		def = storage.DefaultName
	}
	return def, true
}

type outcomePayload struct {
	session.Outcome
	Error string `json:"error,omitempty"`
}

type resultPayload struct {
	replay.Result
	Error string `json:"error,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
