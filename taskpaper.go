package mdless

import (
	"regexp"
	"strings"
)

const minTaskPaperTasks = 6

var (
	taskLine    = regexp.MustCompile(`^((?:    |\t)*)-(\s+\S.*?)$`)
	projectLine = regexp.MustCompile(`^((?:    |\t)*)([^-\s]\S.*?:)((?: @\S+)*)$`)
	noteLine    = regexp.MustCompile(`^((?:    |\t)+)(\S.*)$`)
)

// isTaskPaper reports whether src looks like a TaskPaper outline: at least
// one project line and six tasks.
func isTaskPaper(src string) bool {
	projects, tasks := 0, 0
	var fences fenceTracker
	for _, line := range strings.Split(src, "\n") {
		if fences.step(line) {
			return false
		}
		switch {
		case taskLine.MatchString(line):
			tasks++
		case projectLine.MatchString(line):
			projects++
		}
	}
	return projects > 0 && tasks >= minTaskPaperTasks
}

func (c *console) useTaskPaper(src string) bool {
	switch c.cfg.taskpaper {
	case TaskPaperOn:
		return true
	case TaskPaperOff:
		return false
	default:
		return isTaskPaper(src)
	}
}

// highlightTaskPaper colors projects, tasks and notes line by line.
func (c *console) highlightTaskPaper(src string) string {
	var (
		marker  = c.color("taskpaper marker")
		task    = c.color("taskpaper task")
		project = c.color("taskpaper project")
		note    = c.color("taskpaper note")
	)
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if m := taskLine.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + marker + "- " + task + strings.TrimSpace(m[2]) + c.xc()
			continue
		}
		if m := projectLine.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + project + m[2] + m[3] + c.xc()
			continue
		}
		if m := noteLine.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + note + m[2] + c.xc()
		}
	}
	return strings.Join(lines, "\n")
}
