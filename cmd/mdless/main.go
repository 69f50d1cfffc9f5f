package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/mdless"
	"pkt.systems/mdless/internal/logger"
	"pkt.systems/mdless/internal/pager"
	"pkt.systems/version"
)

const defaultWidth = 80

func init() {
	version.SetDefaultModule("pkt.systems/mdless")
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	width        int
	color        string
	links        string
	sections     []string
	images       string
	themePath    string
	usePager     bool
	noPager      bool
	inlineNotes  bool
	wikiLinks    bool
	atTags       bool
	taskpaper    string
	noSyntax     bool
	linebreaks   bool
	listHeaders  bool
	dumpTheme    bool
	logLevel     string
	osc8         string
	outPath      string
	printVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	var o options
	flags := pflag.NewFlagSet("mdless", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.IntVarP(&o.width, "width", "w", 0, "Output width override (0 uses terminal width if available)")
	flags.StringVarP(&o.color, "color", "c", "auto", "Colorize output: auto|on|off")
	flags.StringVar(&o.links, "links", "inline", "Link style: inline|reference|paragraph")
	flags.StringSliceVarP(&o.sections, "section", "s", nil, "Output only sections matching a header index or title pattern")
	flags.StringVarP(&o.images, "images", "i", "none", "Display images: local|remote|none")
	flags.StringVarP(&o.themePath, "theme", "t", "", "Theme file (YAML) or name under ~/.config/mdless")
	flags.BoolVarP(&o.usePager, "pager", "p", false, "Always page output")
	flags.BoolVarP(&o.noPager, "no-pager", "P", false, "Never page output")
	flags.BoolVar(&o.inlineNotes, "inline-footnotes", false, "Show footnotes below the line that references them")
	flags.BoolVar(&o.wikiLinks, "wiki-links", false, "Highlight [[wiki links]]")
	flags.BoolVar(&o.atTags, "at-tags", false, "Highlight @tags and @tag(values)")
	flags.StringVar(&o.taskpaper, "taskpaper", "auto", "TaskPaper rendering: auto|on|off")
	flags.BoolVar(&o.noSyntax, "no-syntax", false, "Disable syntax highlighting of code blocks")
	flags.BoolVar(&o.linebreaks, "preserve-linebreaks", false, "Keep line breaks inside paragraphs")
	flags.BoolVarP(&o.listHeaders, "list", "l", false, "List headers and exit")
	flags.BoolVar(&o.dumpTheme, "dump-theme", false, "Print the effective theme as YAML and exit")
	flags.StringVarP(&o.logLevel, "debug", "d", "", "Log level: debug|info|warn|error")
	flags.StringVarP(&o.osc8, "osc8", "8", "auto", "OSC8 hyperlinks: auto|on|off")
	flags.StringVarP(&o.outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVarP(&o.printVersion, "version", "v", false, "Print version and exit")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: mdless [flags] [files...]\n")
		fmt.Fprintln(stderr, "\nIf no file is provided, Markdown is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	return &o, flags.Args(), nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, files, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	logger.Configure(o.logLevel, stderr)

	if o.printVersion {
		fmt.Fprintln(stdout, version.Module(), version.Current())
		return 0
	}

	theme := loadTheme(o.themePath)
	if o.dumpTheme {
		if err := mdless.DumpTheme(stdout, theme); err != nil {
			fmt.Fprintf(stderr, "dump theme: %v\n", err)
			return 1
		}
		return 0
	}

	color, err := resolveColor(o.color, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "invalid --color %q: %v\n", o.color, err)
		return 2
	}
	inputs, err := openInputs(files, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return 1
	}

	if o.listHeaders {
		for _, in := range inputs {
			src, err := in.read()
			if err != nil {
				fmt.Fprintf(stderr, "read %s: %v\n", in.name, err)
				return 1
			}
			fmt.Fprint(stdout, mdless.HeaderList(string(src), theme, color))
		}
		return 0
	}

	opts, err := renderOptions(o, color)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	width := resolveWidth(o.width)

	var (
		out      bytes.Buffer
		rendered int
	)
	for _, in := range inputs {
		src, err := in.read()
		if err != nil {
			fmt.Fprintf(stderr, "read %s: %v\n", in.name, err)
			return 1
		}
		docOpts := append(append([]mdless.RenderOption(nil), opts...), mdless.WithBaseDir(in.dir))
		text, err := mdless.NewRenderer(theme, width, docOpts...).RenderBytes(ctx, src)
		switch {
		case errors.Is(err, mdless.ErrEmptyInput):
			logger.Warn("no results", "input", in.name)
			continue
		case err != nil:
			fmt.Fprintf(stderr, "render %s: %v\n", in.name, err)
			return 1
		}
		if rendered > 0 {
			out.WriteString("\n")
		}
		out.WriteString(text)
		rendered++
	}
	if rendered == 0 {
		return 1
	}

	writer, closeOut, err := resolveOutput(o.outPath, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "open output: %v\n", err)
		return 1
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}
	if shouldPage(o, writer) {
		p := pager.Pager{Stdout: writer, Stderr: stderr}
		err := p.Page(ctx, out.String())
		if err == nil {
			return 0
		}
		logger.Warn("pager failed, writing directly", "err", err)
	}
	if _, err := writer.Write(out.Bytes()); err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return 1
	}
	return 0
}

func renderOptions(o *options, color bool) ([]mdless.RenderOption, error) {
	links, err := mdless.ParseLinkStyle(o.links)
	if err != nil {
		return nil, fmt.Errorf("invalid --links: %w", err)
	}
	local, remote, err := parseImages(o.images)
	if err != nil {
		return nil, fmt.Errorf("invalid --images %q: %w", o.images, err)
	}
	taskpaper, err := parseTaskPaper(o.taskpaper)
	if err != nil {
		return nil, fmt.Errorf("invalid --taskpaper %q: %w", o.taskpaper, err)
	}
	osc8, err := resolveSwitch(o.osc8, mdless.DetectOSC8Support)
	if err != nil {
		return nil, fmt.Errorf("invalid --osc8 %q: %w", o.osc8, err)
	}
	return []mdless.RenderOption{
		mdless.WithColor(color),
		mdless.WithOSC8(osc8 && color),
		mdless.WithITermMarks(color && mdless.DetectITermMarks()),
		mdless.WithLinkStyle(links),
		mdless.WithSections(o.sections...),
		mdless.WithImages(local, remote),
		mdless.WithInlineFootnotes(o.inlineNotes),
		mdless.WithWikiLinks(o.wikiLinks),
		mdless.WithAtTags(o.atTags),
		mdless.WithTaskPaper(taskpaper),
		mdless.WithSyntaxHighlight(!o.noSyntax),
		mdless.WithPreserveLinebreaks(o.linebreaks),
	}, nil
}

func loadTheme(name string) *mdless.Theme {
	path := themePath(name)
	if path == "" {
		return mdless.DefaultTheme()
	}
	f, err := os.Open(path)
	if err != nil {
		if name != "" {
			logger.Warn("theme not found, using defaults", "theme", name, "err", err)
		}
		return mdless.DefaultTheme()
	}
	defer func() { _ = f.Close() }()
	theme, err := mdless.LoadTheme(f)
	if err != nil {
		logger.Error("theme not loaded, using defaults", "path", path, "err", err)
	}
	return theme
}

// themePath maps a theme argument to a file. A bare name is looked up as
// ~/.config/mdless/<name>.theme; no argument means the default theme file.
func themePath(name string) string {
	name = strings.TrimSpace(name)
	if strings.ContainsRune(name, filepath.Separator) || strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return normalizePath(name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	if name == "" {
		name = "mdless"
	}
	return filepath.Join(home, ".config", "mdless", name+".theme")
}

func resolveColor(mode string, w io.Writer) (bool, error) {
	return resolveSwitch(mode, func() bool {
		if termenv.EnvNoColor() {
			return false
		}
		f, ok := w.(*os.File)
		if !ok {
			return false
		}
		return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
	})
}

func resolveSwitch(mode string, detect func() bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return detect(), nil
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected auto|on|off")
	}
}

func parseImages(mode string) (local, remote bool, err error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "none", "off":
		return false, false, nil
	case "local":
		return true, false, nil
	case "remote", "all", "both":
		return true, true, nil
	default:
		return false, false, fmt.Errorf("expected local|remote|none")
	}
}

func parseTaskPaper(mode string) (mdless.TaskPaperMode, error) {
	on, err := resolveSwitch(mode, func() bool { return false })
	switch {
	case err != nil:
		return mdless.TaskPaperAuto, err
	case strings.EqualFold(strings.TrimSpace(mode), "auto") || strings.TrimSpace(mode) == "":
		return mdless.TaskPaperAuto, nil
	case on:
		return mdless.TaskPaperOn, nil
	default:
		return mdless.TaskPaperOff, nil
	}
}

func shouldPage(o *options, w io.Writer) bool {
	if o.noPager {
		return false
	}
	if o.usePager {
		return true
	}
	return isTerminal(w)
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	return terminalWidth(defaultWidth)
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

// input is one document to render.
type input struct {
	name string
	dir  string
	read func() ([]byte, error)
}

func openInputs(args []string, stdin io.Reader) ([]input, error) {
	if len(args) == 0 {
		wd, _ := os.Getwd()
		return []input{{name: "stdin", dir: wd, read: func() ([]byte, error) {
			return io.ReadAll(stdin)
		}}}, nil
	}
	inputs := make([]input, 0, len(args))
	for _, raw := range args {
		in, err := makeInput(raw)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func makeInput(raw string) (input, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return input{}, fmt.Errorf("empty input argument")
	}
	path := raw
	if u, err := url.Parse(raw); err == nil && strings.EqualFold(u.Scheme, "file") {
		path = u.Path
		if path == "" {
			path = u.Host
		}
		if unescaped, err := url.PathUnescape(path); err == nil {
			path = unescaped
		}
	}
	clean := normalizePath(path)
	info, err := os.Stat(clean)
	if err != nil {
		return input{}, err
	}
	if info.IsDir() {
		return input{}, fmt.Errorf("%s: is a directory", clean)
	}
	return input{name: clean, dir: filepath.Dir(clean), read: func() ([]byte, error) {
		return os.ReadFile(clean)
	}}, nil
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
