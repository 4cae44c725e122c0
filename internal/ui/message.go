package ui

import (
	"github.com/desertthunder/tcx/internal/tonie"
)

// toniesFetchedMsg carries the household's tonies after the initial fetch.
type toniesFetchedMsg struct {
	householdID string
	tonies      []tonie.CreativeTonie
	err         error
}

// actionCompleteMsg carries the refreshed tonie after a shuffle or clear.
type actionCompleteMsg struct {
	tonie *tonie.CreativeTonie
	err   error
}
