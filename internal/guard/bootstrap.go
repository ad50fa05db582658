package guard

import (
	"github.com/desertthunder/stemhub/internal/store"
)

// SessionSource is the part of [store.Session] the guard depends on.
type SessionSource interface {
	Snapshot() store.SessionState
	Rehydrate() store.SessionState
}

// Bootstrap loads the persisted session unless it has already been loaded.
//
// Calling it again after the session is initialized returns the current snapshot without
// touching storage.
func Bootstrap(src SessionSource) store.SessionState {
	if state := src.Snapshot(); state.Initialized {
		return state
	}
	return src.Rehydrate()
}
