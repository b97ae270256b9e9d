// Package ui provides the Bubble Tea editor for room boards.
package ui

import "github.com/abelbrown/roomboard/internal/board"

// leftMsg delivers the departure half of a cross-room drop.
type leftMsg struct {
	room  int
	index int
}

// enteredMsg delivers the arrival half of a cross-room drop.
type enteredMsg struct {
	room  int
	index int
}

// noticeMsg carries a settled engine record back into the event loop.
type noticeMsg board.Notice

// listenClosed is returned once the notice channel is closed or the context ends.
type listenClosed struct{}
