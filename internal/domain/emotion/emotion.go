// Package emotion defines the closed set of emotion labels the pipeline
// recognizes. Keeping the set closed means an unrecognized string fails at
// parse time instead of silently passing through aggregation.
package emotion

import (
	"fmt"
	"strings"
)

// Emotion is one label from the closed set below.
type Emotion string

// The full label set. NoFace is the sentinel for "a frame was sampled but no
// usable face was found"; it is a valid, persistable value so analytics can
// tell "camera off" apart from "someone present but unreadable".
const (
	Happy     Emotion = "HAPPY"
	Sad       Emotion = "SAD"
	Angry     Emotion = "ANGRY"
	Surprised Emotion = "SURPRISED"
	Confused  Emotion = "CONFUSED"
	Disgusted Emotion = "DISGUSTED"
	Calm      Emotion = "CALM"
	Fear      Emotion = "FEAR"
	NoFace    Emotion = "NO_FACE"
)

// All lists every label, NoFace last. The order is fixed and used anywhere a
// stable iteration over the set is needed (summaries, tests).
func All() []Emotion {
	return []Emotion{Happy, Sad, Angry, Surprised, Confused, Disgusted, Calm, Fear, NoFace}
}

// Valid reports whether e is a member of the closed set.
func (e Emotion) Valid() bool {
	switch e {
	case Happy, Sad, Angry, Surprised, Confused, Disgusted, Calm, Fear, NoFace:
		return true
	}
	return false
}

// String returns the canonical label.
func (e Emotion) String() string { return string(e) }

// Parse converts a label string into an Emotion. It accepts canonical labels
// case-insensitively and the legacy "NO FACE" spelling; anything else is an
// error.
func Parse(s string) (Emotion, error) {
	label := strings.ToUpper(strings.TrimSpace(s))
	if label == "NO FACE" {
		label = string(NoFace)
	}
	e := Emotion(label)
	if !e.Valid() {
		return "", fmt.Errorf("unknown emotion label: %q", s)
	}
	return e, nil
}
