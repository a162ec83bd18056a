package ui

import (
	"github.com/ngmaloney/wind-wave/internal/models"
)

// Message types for async operations

// historyLoadedMsg is sent when the ledger has been read
type historyLoadedMsg struct {
	entries []models.HistoryEntry
}

// errMsg is a message type for errors
type errMsg struct {
	err error
}
