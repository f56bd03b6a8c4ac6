package dialog

import (
	"context"

	"github.com/parkops/shiftbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Expect enumerates the input shapes a stage accepts.
type Expect int

const (
	// ExpectText accepts any non-empty text.
	ExpectText Expect = iota
	// ExpectDigits accepts text composed entirely of decimal digits.
	ExpectDigits
	// ExpectMoney accepts free text normalized to an exact decimal amount.
	ExpectMoney
	// ExpectPhoto accepts a photo message.
	ExpectPhoto
	// ExpectChoice accepts an inline keyboard selection.
	ExpectChoice
	// ExpectDate accepts text parseable as a calendar date.
	ExpectDate
)

// Keyboard enumerates the keyboards a stage prompt is sent with.
type Keyboard int

const (
	// KeyboardCancel shows the reply keyboard with a single cancel button.
	KeyboardCancel Keyboard = iota
	// KeyboardPlaces shows the inline location picker plus cancel.
	KeyboardPlaces
	// KeyboardYesNo shows inline yes/no plus cancel.
	KeyboardYesNo
	// KeyboardAgree shows the inline agreement button plus cancel.
	KeyboardAgree
)

// Terminal marks the end of a flow in Next / NextFor.
const Terminal = ""

// Stage describes one question of a flow.
type Stage struct {
	ID     string
	Prompt string
	// Warn is sent when the input does not match Expect; the stage is unchanged.
	Warn     string
	Expect   Expect
	Field    string
	Keyboard Keyboard
	// Options enumerates valid choice values for ExpectChoice stages.
	// Empty options on a KeyboardPlaces stage mean "any known place title".
	Options []string
	// Next names the following stage; Terminal ends the flow.
	Next string
	// NextFor overrides Next per selected choice value.
	NextFor map[string]string
	// MaxPhotos caps accumulation on ExpectPhoto stages (default 1).
	MaxPhotos int
}

// FinalizeFunc delivers and persists a completed dialog.
// It runs exactly once per completed dialog; the engine clears the
// session afterwards regardless of the returned error.
type FinalizeFunc func(ctx context.Context, c tele.Context, s *state.Session) error

// Flow is a declarative dialog definition executed by the Engine.
type Flow struct {
	Name  string
	Start string
	// DoneText is shown to the user after successful finalization.
	DoneText string
	// ErrorTag prefixes the admin notification on finalization failure.
	ErrorTag string
	Stages   []Stage
	Finalize FinalizeFunc
}

// StageByID returns the stage with the given id.
func (f *Flow) StageByID(id string) (Stage, bool) {
	for _, st := range f.Stages {
		if st.ID == id {
			return st, true
		}
	}
	return Stage{}, false
}

// Validate checks the flow table for dangling transitions and duplicate ids.
// It is meant to run at wiring time so a broken table fails fast.
func (f *Flow) Validate() error {
	seen := make(map[string]struct{}, len(f.Stages))
	for _, st := range f.Stages {
		if st.ID == "" {
			return errStage(f.Name, st.ID, "empty stage id")
		}
		if _, dup := seen[st.ID]; dup {
			return errStage(f.Name, st.ID, "duplicate stage id")
		}
		seen[st.ID] = struct{}{}
	}
	if _, ok := f.StageByID(f.Start); !ok {
		return errStage(f.Name, f.Start, "unknown start stage")
	}
	for _, st := range f.Stages {
		if st.Next != Terminal {
			if _, ok := f.StageByID(st.Next); !ok {
				return errStage(f.Name, st.ID, "unknown next stage "+st.Next)
			}
		}
		for _, next := range st.NextFor {
			if next == Terminal {
				continue
			}
			if _, ok := f.StageByID(next); !ok {
				return errStage(f.Name, st.ID, "unknown branch stage "+next)
			}
		}
	}
	return nil
}

type stageError struct {
	flow, stage, msg string
}

func (e stageError) Error() string {
	return "dialog: flow " + e.flow + " stage " + e.stage + ": " + e.msg
}

func errStage(flow, stage, msg string) error {
	return stageError{flow: flow, stage: stage, msg: msg}
}
