package mdless

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"pkt.systems/mdless/internal/logger"
	"pkt.systems/mdless/internal/sgr"
)

var (
	// ErrConfiguration reports a theme that could not be parsed.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrLookup reports a theme key that does not exist.
	ErrLookup = errors.New("unknown theme key")
)

var keySeparators = regexp.MustCompile(`[ ,>]+`)

// HeaderStyle styles one heading level. Pad and PadChar only apply to h1/h2.
type HeaderStyle struct {
	Color   string `yaml:"color"`
	Pad     string `yaml:"pad,omitempty"`
	PadChar string `yaml:"pad_char,omitempty"`
}

type MetadataStyle struct {
	Border string `yaml:"border"`
	Marker string `yaml:"marker"`
	Color  string `yaml:"color"`
}

type EmphasisStyle struct {
	Bold            string `yaml:"bold"`
	Italic          string `yaml:"italic"`
	BoldItalic      string `yaml:"bold-italic"`
	BoldCharacter   string `yaml:"bold_character"`
	ItalicCharacter string `yaml:"italic_character"`
}

type LinkTheme struct {
	Brackets string `yaml:"brackets"`
	Text     string `yaml:"text"`
	URL      string `yaml:"url"`
}

type ImageStyle struct {
	Bang     string `yaml:"bang"`
	Brackets string `yaml:"brackets"`
	Title    string `yaml:"title"`
	URL      string `yaml:"url"`
}

type ListStyle struct {
	Bullet string `yaml:"bullet"`
	Number string `yaml:"number"`
	Color  string `yaml:"color"`
}

type FootnoteStyle struct {
	Brackets string `yaml:"brackets"`
	Caret    string `yaml:"caret"`
	Title    string `yaml:"title"`
	Note     string `yaml:"note"`
}

type CodeSpanStyle struct {
	Marker    string `yaml:"marker"`
	Color     string `yaml:"color"`
	Character string `yaml:"character"`
}

type CodeBlockStyle struct {
	Marker        string `yaml:"marker"`
	BG            string `yaml:"bg"`
	Color         string `yaml:"color"`
	Border        string `yaml:"border"`
	Title         string `yaml:"title"`
	EOL           string `yaml:"eol"`
	PygmentsTheme string `yaml:"pygments_theme"`
	// Lexers maps a fence language to a highlighter style name.
	Lexers map[string]string `yaml:"lexers,omitempty"`
}

type BlockquoteMarker struct {
	Character string `yaml:"character"`
	Color     string `yaml:"color"`
}

type BlockquoteStyle struct {
	Marker BlockquoteMarker `yaml:"marker"`
	Color  string           `yaml:"color"`
}

type DefinitionStyle struct {
	Term   string `yaml:"term"`
	Marker string `yaml:"marker"`
	Color  string `yaml:"color"`
}

type TableStyle struct {
	Border  string `yaml:"border"`
	Header  string `yaml:"header"`
	Divider string `yaml:"divider"`
	Color   string `yaml:"color"`
}

type HTMLStyle struct {
	Brackets string `yaml:"brackets"`
	Color    string `yaml:"color"`
}

type AtTagsStyle struct {
	Tag   string `yaml:"tag"`
	Value string `yaml:"value"`
}

type TaskPaperStyle struct {
	Marker  string `yaml:"marker"`
	Project string `yaml:"project"`
	Task    string `yaml:"task"`
	Note    string `yaml:"note"`
}

type ColorStyle struct {
	Color string `yaml:"color"`
}

// Theme maps semantic keys such as "h1 color" to style token strings.
// Loading a theme file decodes over DefaultTheme, so a file only needs the
// keys it changes.
type Theme struct {
	Metadata      MetadataStyle   `yaml:"metadata"`
	Emphasis      EmphasisStyle   `yaml:"emphasis"`
	H1            HeaderStyle     `yaml:"h1"`
	H2            HeaderStyle     `yaml:"h2"`
	H3            HeaderStyle     `yaml:"h3"`
	H4            HeaderStyle     `yaml:"h4"`
	H5            HeaderStyle     `yaml:"h5"`
	H6            HeaderStyle     `yaml:"h6"`
	Link          LinkTheme       `yaml:"link"`
	Image         ImageStyle      `yaml:"image"`
	List          ListStyle       `yaml:"list"`
	Footnote      FootnoteStyle   `yaml:"footnote"`
	CodeSpan      CodeSpanStyle   `yaml:"code_span"`
	CodeBlock     CodeBlockStyle  `yaml:"code_block"`
	Blockquote    BlockquoteStyle `yaml:"blockquote"`
	DD            DefinitionStyle `yaml:"dd"`
	HR            ColorStyle      `yaml:"hr"`
	Table         TableStyle      `yaml:"table"`
	HTML          HTMLStyle       `yaml:"html"`
	AtTags        AtTagsStyle     `yaml:"at_tags"`
	TaskPaper     TaskPaperStyle  `yaml:"taskpaper"`
	Text          string          `yaml:"text"`
	Strikethrough string          `yaml:"strikethrough"`
	Super         string          `yaml:"super"`
	Highlight     string          `yaml:"highlight"`
}

// DefaultTheme returns a fresh copy of the built-in theme.
func DefaultTheme() *Theme {
	return &Theme{
		Metadata: MetadataStyle{
			Border: "d blue on_black",
			Marker: "d black on_black",
			Color:  "d white on_black",
		},
		Emphasis: EmphasisStyle{
			Bold:       "b",
			Italic:     "u i",
			BoldItalic: "b u i",
		},
		H1: HeaderStyle{Color: "b intense_black on_white", Pad: "d black on_white", PadChar: "="},
		H2: HeaderStyle{Color: "b white on_intense_black", Pad: "d white on_intense_black", PadChar: "-"},
		H3: HeaderStyle{Color: "u b yellow"},
		H4: HeaderStyle{Color: "u yellow"},
		H5: HeaderStyle{Color: "b white"},
		H6: HeaderStyle{Color: "b white"},
		Link: LinkTheme{
			Brackets: "b black",
			Text:     "u b blue",
			URL:      "cyan",
		},
		Image: ImageStyle{
			Bang:     "red",
			Brackets: "b black",
			Title:    "cyan",
			URL:      "u yellow",
		},
		List: ListStyle{
			Bullet: "b intense_red",
			Number: "b intense_blue",
			Color:  "intense_white",
		},
		Footnote: FootnoteStyle{
			Brackets: "b black on_black",
			Caret:    "b yellow on_black",
			Title:    "x yellow on_black",
			Note:     "u white on_black",
		},
		CodeSpan: CodeSpanStyle{
			Marker:    "b white",
			Color:     "b black on_intense_blue",
			Character: "`",
		},
		CodeBlock: CodeBlockStyle{
			Marker:        "intense_black",
			BG:            "on_black",
			Color:         "white on_black",
			Border:        "blue",
			Title:         "magenta",
			EOL:           "intense_black on_black",
			PygmentsTheme: "monokai",
			Lexers:        map[string]string{},
		},
		Blockquote: BlockquoteStyle{
			Marker: BlockquoteMarker{Character: ">", Color: "d red"},
			Color:  "i white",
		},
		DD: DefinitionStyle{
			Term:   "b",
			Marker: "d red",
			Color:  "b white",
		},
		HR: ColorStyle{Color: "d white"},
		Table: TableStyle{
			Border:  "d black",
			Header:  "yellow",
			Divider: "b black",
			Color:   "white",
		},
		HTML: HTMLStyle{
			Brackets: "d yellow on_black",
			Color:    "yellow on_black",
		},
		AtTags: AtTagsStyle{
			Tag:   "magenta",
			Value: "b white",
		},
		TaskPaper: TaskPaperStyle{
			Marker:  "b white",
			Project: "b green",
			Task:    "white",
			Note:    "i white",
		},
		Text:          "x white",
		Strikethrough: "x strikethrough",
		Super:         "x intense_white",
		Highlight:     "b black on_yellow",
	}
}

// LoadTheme decodes YAML over the defaults. A malformed document yields the
// defaults together with an ErrConfiguration error.
func LoadTheme(r io.Reader) (*Theme, error) {
	t := DefaultTheme()
	if r == nil {
		return t, nil
	}
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(t); err != nil {
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		return DefaultTheme(), fmt.Errorf("%w: theme: %v", ErrConfiguration, err)
	}
	if t.CodeBlock.Lexers == nil {
		t.CodeBlock.Lexers = map[string]string{}
	}
	return t, nil
}

// DumpTheme writes t as YAML.
func DumpTheme(w io.Writer, t *Theme) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode theme: %w", err)
	}
	return enc.Close()
}

func normalizeKey(key string) string {
	return strings.Join(keySeparators.Split(strings.TrimSpace(key), -1), " ")
}

func (t *Theme) entries() map[string]*string {
	return map[string]*string{
		"metadata border":             &t.Metadata.Border,
		"metadata marker":             &t.Metadata.Marker,
		"metadata color":              &t.Metadata.Color,
		"emphasis bold":               &t.Emphasis.Bold,
		"emphasis italic":             &t.Emphasis.Italic,
		"emphasis bold-italic":        &t.Emphasis.BoldItalic,
		"emphasis bold_character":     &t.Emphasis.BoldCharacter,
		"emphasis italic_character":   &t.Emphasis.ItalicCharacter,
		"h1 color":                    &t.H1.Color,
		"h1 pad":                      &t.H1.Pad,
		"h1 pad_char":                 &t.H1.PadChar,
		"h2 color":                    &t.H2.Color,
		"h2 pad":                      &t.H2.Pad,
		"h2 pad_char":                 &t.H2.PadChar,
		"h3 color":                    &t.H3.Color,
		"h4 color":                    &t.H4.Color,
		"h5 color":                    &t.H5.Color,
		"h6 color":                    &t.H6.Color,
		"link brackets":               &t.Link.Brackets,
		"link text":                   &t.Link.Text,
		"link url":                    &t.Link.URL,
		"image bang":                  &t.Image.Bang,
		"image brackets":              &t.Image.Brackets,
		"image title":                 &t.Image.Title,
		"image url":                   &t.Image.URL,
		"list bullet":                 &t.List.Bullet,
		"list number":                 &t.List.Number,
		"list color":                  &t.List.Color,
		"footnote brackets":           &t.Footnote.Brackets,
		"footnote caret":              &t.Footnote.Caret,
		"footnote title":              &t.Footnote.Title,
		"footnote note":               &t.Footnote.Note,
		"code_span marker":            &t.CodeSpan.Marker,
		"code_span color":             &t.CodeSpan.Color,
		"code_span character":         &t.CodeSpan.Character,
		"code_block marker":           &t.CodeBlock.Marker,
		"code_block bg":               &t.CodeBlock.BG,
		"code_block color":            &t.CodeBlock.Color,
		"code_block border":           &t.CodeBlock.Border,
		"code_block title":            &t.CodeBlock.Title,
		"code_block eol":              &t.CodeBlock.EOL,
		"code_block pygments_theme":   &t.CodeBlock.PygmentsTheme,
		"blockquote marker character": &t.Blockquote.Marker.Character,
		"blockquote marker color":     &t.Blockquote.Marker.Color,
		"blockquote color":            &t.Blockquote.Color,
		"dd term":                     &t.DD.Term,
		"dd marker":                   &t.DD.Marker,
		"dd color":                    &t.DD.Color,
		"hr color":                    &t.HR.Color,
		"table border":                &t.Table.Border,
		"table header":                &t.Table.Header,
		"table divider":               &t.Table.Divider,
		"table color":                 &t.Table.Color,
		"html brackets":               &t.HTML.Brackets,
		"html color":                  &t.HTML.Color,
		"at_tags tag":                 &t.AtTags.Tag,
		"at_tags value":               &t.AtTags.Value,
		"taskpaper marker":            &t.TaskPaper.Marker,
		"taskpaper project":           &t.TaskPaper.Project,
		"taskpaper task":              &t.TaskPaper.Task,
		"taskpaper note":              &t.TaskPaper.Note,
		"text":                        &t.Text,
		"strikethrough":               &t.Strikethrough,
		"super":                       &t.Super,
		"highlight":                   &t.Highlight,
	}
}

// Keys lists every known theme key.
func (t *Theme) Keys() []string {
	entries := t.entries()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the raw token string for key. Separators may be spaces,
// commas or '>'.
func (t *Theme) Lookup(key string) (string, error) {
	if p, ok := t.entries()[normalizeKey(key)]; ok {
		return *p, nil
	}
	return "", fmt.Errorf("%q: %w", key, ErrLookup)
}

// Color resolves key to an escape sequence. Every color starts with a reset.
// Unknown keys are logged and yield a bare reset.
func (t *Theme) Color(key string) string {
	tokens, err := t.Lookup(key)
	if err != nil {
		logger.Error("invalid theme key", "key", key, "err", err)
		return sgr.Reset
	}
	return sgr.EncodeSpec("x " + tokens)
}

// Resolve looks up an open-ended style name under the code block lexer
// table, returning fallback when it is not set.
func (t *Theme) Resolve(lang, fallback string) string {
	if style, ok := t.CodeBlock.Lexers[strings.ToLower(strings.TrimSpace(lang))]; ok && style != "" {
		return style
	}
	return fallback
}

// HighlightStyle is the highlighter style for a fenced block in lang.
func (t *Theme) HighlightStyle(lang string) string {
	return t.Resolve(lang, t.CodeBlock.PygmentsTheme)
}

func (t *Theme) header(level int) HeaderStyle {
	switch level {
	case 1:
		return t.H1
	case 2:
		return t.H2
	case 3:
		return t.H3
	case 4:
		return t.H4
	case 5:
		return t.H5
	default:
		return t.H6
	}
}
