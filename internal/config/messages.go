package config

import "strings"

// Languages lists the supported UI languages. Options.Language indexes it.
var Languages = []string{"en", "es"}

// MessageID names a user-facing notice.
type MessageID int

const (
	MsgStopRecording MessageID = iota
	MsgStopPlaying
	MsgEmptyCapture
	MsgLoadFailed
)

// "@" is replaced with the configured key.
var messages = map[MessageID][]string{
	MsgStopRecording: {
		"Stop recording by pressing @ Key",
		"Presiona @ para detener la captura de eventos",
	},
	MsgStopPlaying: {
		"Stop playing by pressing @ Key",
		"Presiona @ para detener la reproducción",
	},
	MsgEmptyCapture: {
		"Nothing was recorded",
		"No se capturó ningún evento",
	},
	MsgLoadFailed: {
		"Could not load recording @",
		"No se pudo cargar la grabación @",
	},
}

// Message returns the text for id in the given language with "@" replaced
// by arg. Unknown languages fall back to English.
func Message(lang int, id MessageID, arg string) string {
	texts, ok := messages[id]
	if !ok {
		return ""
	}
	if lang < 0 || lang >= len(texts) {
		lang = 0
	}
	return strings.ReplaceAll(texts[lang], "@", arg)
}

// Message returns the text for id in the configured language.
func (o Options) Message(id MessageID, arg string) string {
	return Message(o.Language, id, arg)
}
