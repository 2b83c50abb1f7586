package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snapmix/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgCycleComplete
)

// cycleOutcome is what a finished [tasks.Pipeline.Run] hands back to the model.
type cycleOutcome struct {
	result *tasks.Result
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// cycleCompleteMsg is the constructor for [MsgCycleComplete]
func cycleCompleteMsg(result *tasks.Result, err error) Msg {
	return Msg{kind: MsgCycleComplete, data: cycleOutcome{result, err}}
}
