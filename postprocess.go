package mdless

import (
	"regexp"
	"strconv"
	"strings"

	"pkt.systems/mdless/internal/imageview"
	"pkt.systems/mdless/internal/logger"
	"pkt.systems/mdless/internal/sgr"
)

var (
	wikiLink = regexp.MustCompile(`\[\[([^\[\]\n\x{E000}-\x{E003}]+)\]\]`)
	atTag    = regexp.MustCompile(`(?m)(^|\s|\x1b\[[0-9;]*m)(@[^ \].?!,("'\s\x{E000}-\x{E003}]+)(?:\(([^)\n\x{E000}-\x{E003}]*)\))?`)
)

// postprocess runs the passes that need the whole rendered document. Color
// restoration runs last so it sees every span the other passes add.
func (c *console) postprocess(text string, taskpaper bool) (string, error) {
	if c.cfg.wikiLinks {
		text = c.wikiLinks(text)
	}
	text = c.insertFootnotes(text)
	if c.cfg.links != LinkInline {
		text = c.referenceLinks(text)
	}
	text, err := c.fixLists(text)
	if err != nil {
		return "", err
	}
	if c.cfg.localImages {
		text = c.renderImages(text)
	}
	if c.cfg.atTags || taskpaper {
		text = c.highlightTags(text)
	}
	return c.fixColors(text)
}

func (c *console) wikiLinks(text string) string {
	return wikiLink.ReplaceAllStringFunc(text, func(m string) string {
		target := wikiLink.FindStringSubmatch(m)[1]
		brackets := c.color("link brackets")
		return c.session.span(brackets + "[[" + c.color("link text") + target + brackets + "]]" + c.xc())
	})
}

func (c *console) footnoteDef(label string) string {
	text, _ := c.session.footnotes.Get(label)
	note := strings.TrimSpace(sgr.Strip(stripMarkers(text)))
	return c.footnoteTag(label) + c.color("footnote brackets") + ":" + c.color("footnote note") + " " + note + c.xc()
}

// insertFootnotes lists footnote definitions either after every line that
// references them or all together at the end.
func (c *console) insertFootnotes(text string) string {
	notes := c.session.Footnotes()
	if notes.Len() == 0 {
		return text
	}
	var tail []string
	if c.cfg.inlineFootnotes {
		used := make(map[string]bool)
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			var defs []string
			for _, n := range c.session.openedNodes(line) {
				if n.Kind != KindFootnoteRef {
					continue
				}
				if _, ok := notes.Get(n.Label); !ok {
					continue
				}
				used[n.Label] = true
				defs = append(defs, c.footnoteDef(n.Label))
			}
			if len(defs) > 0 {
				lines[i] = line + "\n\n" + strings.Join(defs, "\n") + "\n"
			}
		}
		text = strings.Join(lines, "\n")
		for _, label := range notes.Labels() {
			if !used[label] {
				tail = append(tail, c.footnoteDef(label))
			}
		}
	} else {
		for _, label := range notes.Labels() {
			tail = append(tail, c.footnoteDef(label))
		}
	}
	if len(tail) == 0 {
		return text
	}
	return strings.TrimRight(text, "\n") + "\n\n" + strings.Join(tail, "\n") + "\n"
}

func (c *console) linkReference(link *Node, n int) string {
	content := link.Content
	if c.cfg.osc8 {
		content = hyperlink(link.URL, content)
	}
	brackets := c.color("link brackets")
	return brackets + "[" + c.color("link text") + content + brackets + "][" + c.color("link url") + strconv.Itoa(n) + brackets + "]" + c.xc()
}

func (c *console) referenceDef(url, title string, n int) string {
	label := strconv.Itoa(n)
	url = fitURL(url, c.width-len(label)-4)
	if title != "" {
		url += " \"" + title + "\""
	}
	brackets := c.color("link brackets")
	return brackets + "[" + c.color("link text") + label + brackets + "]:" + c.color("text") + " " + c.color("link url") + url + c.xc()
}

// referenceLinks numbers every link and moves its target to the end of its
// paragraph or of the document.
func (c *console) referenceLinks(text string) string {
	grafs := strings.Split(text, "\n\n")
	counter := 1
	var footer []string
	for i, graf := range grafs {
		var defs []string
		for _, n := range c.session.openedNodes(graf) {
			if n.Kind != KindLink {
				continue
			}
			replaced, ok := replaceInner(graf, n.ID, c.linkReference(n, counter))
			if !ok {
				continue
			}
			graf = replaced
			def := c.referenceDef(n.URL, n.Title, counter)
			if c.cfg.links == LinkParagraph {
				defs = append(defs, def)
			} else {
				footer = append(footer, def)
			}
			counter++
		}
		if len(defs) > 0 {
			graf += "\n\n" + strings.Join(defs, "\n")
		}
		grafs[i] = graf
	}
	text = strings.Join(grafs, "\n\n")
	if len(footer) > 0 {
		text = strings.TrimRight(text, "\n") + "\n\n" + strings.Join(footer, "\n") + "\n"
	}
	return text
}

func (c *console) viewer() imageview.Viewer {
	return imageview.Viewer{
		Runner:  c.cfg.commandRunner(),
		Remote:  c.cfg.remoteImages,
		BaseDir: c.cfg.baseDir,
	}
}

// renderImages replaces image tags with the image itself when a viewer can
// draw it. Tags that cannot be drawn stay as they are.
func (c *console) renderImages(text string) string {
	v := c.viewer()
	for _, n := range c.session.Images() {
		if !strings.Contains(text, openMarker(n.ID)) {
			continue
		}
		img, err := v.Render(c.ctx, n.URL)
		if err != nil {
			logger.Warn("image not rendered", "src", n.URL, "err", err)
			continue
		}
		var b strings.Builder
		if n.Content != "" {
			b.WriteString("    " + c.color("image brackets") + "[" + c.color("image title") + strings.TrimSpace(n.Content) + c.color("image brackets") + "]" + c.xc() + "\n")
		}
		b.WriteString(strings.TrimRight(img, "\n"))
		if n.Title != "" {
			b.WriteString("\n    " + c.color("image url") + "-- " + n.Title + " --" + c.xc())
		}
		text, _ = replaceInner(text, n.ID, b.String()+c.xc())
	}
	return text
}

// highlightTags colors @tag and @tag(value) occurrences.
func (c *console) highlightTags(text string) string {
	tagColor := c.color("at_tags tag")
	valueColor := c.color("at_tags value")
	return atTag.ReplaceAllStringFunc(text, func(m string) string {
		sub := atTag.FindStringSubmatch(m)
		pre, tag := sub[1], sub[2]
		var b strings.Builder
		b.WriteString(tagColor + tag)
		if len(m) > len(pre)+len(tag) {
			b.WriteString("(" + valueColor + sub[3] + tagColor + ")")
		}
		b.WriteString(c.xc())
		return pre + c.session.span(b.String())
	})
}
