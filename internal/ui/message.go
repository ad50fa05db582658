package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/store"
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
	MsgBootstrapped MsgKind = iota
	MsgSession
	MsgProjectsFetched
	MsgDetailFetched
)

// projectsFetched is the payload of [MsgProjectsFetched]
type projectsFetched struct {
	projects []models.Project
	err      error
}

// detailFetched is the payload of [MsgDetailFetched]; one arrives per tab.
type detailFetched struct {
	project models.ID
	tab     Tab
	err     error
}

// bootstrappedMsg is the constructor for [MsgBootstrapped]
func bootstrappedMsg(state store.SessionState) Msg {
	return Msg{kind: MsgBootstrapped, data: state}
}

// sessionMsg is the constructor for [MsgSession], sent for every published session snapshot
func sessionMsg(state store.SessionState) Msg {
	return Msg{kind: MsgSession, data: state}
}

// projectsFetchedMsg is the constructor for [MsgProjectsFetched]
func projectsFetchedMsg(projects []models.Project, err error) Msg {
	return Msg{kind: MsgProjectsFetched, data: projectsFetched{projects, err}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(project models.ID, tab Tab, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailFetched{project, tab, err}}
}
