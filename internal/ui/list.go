package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tcx/internal/formatter"
	"github.com/desertthunder/tcx/internal/tonie"
)

var (
	_ list.Item = tonieItem{}
	_ list.Item = chapterItem{}
)

// tonieItem wraps [tonie.CreativeTonie] to implement [list.Item].
type tonieItem struct {
	tonie tonie.CreativeTonie
}

func (i tonieItem) FilterValue() string { return i.tonie.Name }
func (i tonieItem) Title() string       { return i.tonie.Name }
func (i tonieItem) Description() string {
	return fmt.Sprintf("%d chapters • %s left", len(i.tonie.Chapters), formatter.FormatSeconds(i.tonie.SecondsRemaining))
}

// chapterItem wraps [tonie.Chapter] to implement [list.Item].
type chapterItem struct {
	chapter tonie.Chapter
}

func (i chapterItem) FilterValue() string { return i.chapter.Title }
func (i chapterItem) Title() string       { return i.chapter.Title }
func (i chapterItem) Description() string {
	desc := formatter.FormatSeconds(i.chapter.Seconds)
	if i.chapter.Transcoding {
		desc = fmt.Sprintf("%s • transcoding", desc)
	}
	return desc
}
