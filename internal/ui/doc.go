// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for managing Creative Tonies:
//  1. [TonieListView] : Browse the Creative Tonies of a household
//  2. [ChapterListView] : Preview the chapters on a tonie
//  3. [ConfirmView] : Confirm a shuffle or clear operation
//  4. [ActionView] : Wait for the operation to finish
//  5. [ResultView] : Display the updated playlist
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via typed message structs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
