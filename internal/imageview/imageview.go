// Package imageview renders images inline through imgcat or chafa.
package imageview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"pkt.systems/mdless/internal/command"
	"pkt.systems/mdless/internal/logger"
)

var (
	// ErrNoViewer reports that neither imgcat nor chafa is installed.
	ErrNoViewer = errors.New("no image viewer available")
	// ErrRemoteDisabled reports a remote URL while remote images are off.
	ErrRemoteDisabled = errors.New("remote images disabled")
	// ErrNotFound reports a local image that does not exist.
	ErrNotFound = errors.New("image not found")
)

var remoteURL = regexp.MustCompile(`^https?://`)

// Viewer draws images with whichever supported program is installed.
type Viewer struct {
	Runner command.Runner
	// Remote allows fetching http(s) images with curl.
	Remote bool
	// BaseDir resolves relative paths; usually the document's directory.
	BaseDir string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Exists defaults to a stat check.
	Exists func(string) bool
}

func (v Viewer) runner() command.Runner {
	if v.Runner == nil {
		return command.Exec{}
	}
	return v.Runner
}

func (v Viewer) getenv(key string) string {
	if v.Getenv == nil {
		return os.Getenv(key)
	}
	return v.Getenv(key)
}

func (v Viewer) exists(path string) bool {
	if v.Exists != nil {
		return v.Exists(path)
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Program returns the viewer to use: imgcat, then chafa, else "".
func (v Viewer) Program() string {
	r := v.runner()
	switch {
	case r.Available("imgcat"):
		return "imgcat"
	case r.Available("chafa"):
		return "chafa"
	default:
		return ""
	}
}

// ChafaFormat picks the chafa output format from TERMINAL_PROGRAM.
func (v Viewer) ChafaFormat() string {
	term := strings.ToLower(v.getenv("TERMINAL_PROGRAM"))
	if term == "" {
		term = strings.ToLower(v.getenv("TERM_PROGRAM"))
	}
	switch {
	case strings.Contains(term, "kitty"):
		return "kitty"
	case strings.Contains(term, "iterm"):
		return "iterm"
	default:
		return "sixels"
	}
}

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	return remoteURL.MatchString(src)
}

// Resolve expands ~ and joins relative paths onto BaseDir.
func (v Viewer) Resolve(src string) string {
	switch {
	case strings.HasPrefix(src, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, src[2:])
		}
	case filepath.IsAbs(src):
		return src
	case v.BaseDir != "":
		return filepath.Join(v.BaseDir, src)
	}
	return src
}

// Render returns the terminal image data for src.
func (v Viewer) Render(ctx context.Context, src string) (string, error) {
	program := v.Program()
	if program == "" {
		return "", ErrNoViewer
	}
	logger.Info("rendering image", "viewer", program, "src", src)
	if IsRemote(src) {
		return v.renderRemote(ctx, program, src)
	}
	path := v.Resolve(src)
	if !v.exists(path) {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	res := v.runner().Run(ctx, program, v.args(program, path), nil)
	if !res.OK() {
		return "", res.Err(program)
	}
	return string(res.Output), nil
}

func (v Viewer) renderRemote(ctx context.Context, program, url string) (string, error) {
	if !v.Remote {
		return "", ErrRemoteDisabled
	}
	fetched := v.runner().Run(ctx, "curl", []string{"-sS", url}, nil)
	if !fetched.OK() {
		return "", fetched.Err("curl")
	}
	res := v.runner().Run(ctx, program, v.args(program, "-"), fetched.Output)
	if !res.OK() {
		return "", res.Err(program)
	}
	return string(res.Output), nil
}

func (v Viewer) args(program, path string) []string {
	if program == "chafa" {
		return []string{"-f", v.ChafaFormat(), path}
	}
	if path == "-" {
		return nil
	}
	return []string{path}
}
