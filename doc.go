// Package mdless renders Markdown to ANSI for reading in a terminal pager.
//
// A document goes through four stages. Preprocessing lifts front matter or a
// MultiMarkdown header into a metadata block, normalizes setext headings and
// optionally keeps only selected sections. Rendering walks the goldmark tree
// bottom-up through Callbacks; spans whose final form depends on later
// context (lists, links, images, footnote references, styled inline text)
// are wrapped in numbered placeholder markers and recorded in a Session.
// Postprocessing resolves those markers: footnotes and reference links are
// placed, list nesting and numbering are rebuilt, and the style in effect
// before each inline span is restored after it. Finally every line is
// wrapped to the target width with escape sequences counted as zero width.
//
// Example:
//
//	err := mdless.Render(mdless.RenderRequest{
//		Reader: strings.NewReader("# Hello\n\nMarkdown in, ANSI out.\n"),
//		Writer: os.Stdout,
//		Width:  80,
//		Theme:  mdless.DefaultTheme(),
//		Options: []mdless.RenderOption{
//			mdless.WithLinkStyle(mdless.LinkReference),
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
package mdless
