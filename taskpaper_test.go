package mdless

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pkt.systems/mdless/internal/sgr"
)

const taskpaperDoc = "Inbox:\n\t- one\n\t- two\n\t- three\n\t- four\n\t- five\n\t- six @done\n\tA note line"

func TestIsTaskPaper(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"outline", taskpaperDoc, true},
		{"too few tasks", "Inbox:\n- one\n- two", false},
		{"no project", "- a\n- b\n- c\n- d\n- e\n- f", false},
		{"fenced code", taskpaperDoc + "\n```\ncode\n```", false},
		{"markdown", "# Title\n\nSome text.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTaskPaper(tt.src))
		})
	}
}

func TestRenderTaskPaper(t *testing.T) {
	t.Parallel()
	theme := DefaultTheme()
	out := renderColor(t, taskpaperDoc, 80)
	assert.Contains(t, out, theme.Color("taskpaper project")+"Inbox:")
	assert.Contains(t, out, theme.Color("taskpaper note")+"A note line")
	assert.Contains(t, out, theme.Color("at_tags tag")+"@done")
	assert.Equal(t, taskpaperDoc+"\n", sgr.Strip(out))

	off := renderColor(t, taskpaperDoc, 80, WithTaskPaper(TaskPaperOff))
	assert.NotContains(t, off, theme.Color("taskpaper project"))

	forced := renderColor(t, "Project:\n- only", 80, WithTaskPaper(TaskPaperOn))
	assert.True(t, strings.Contains(forced, theme.Color("taskpaper project")+"Project:"))
}
