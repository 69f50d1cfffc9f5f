package mdless

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetextToATX(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"both levels", "Title\n=====\n\nSub\n---\n", "# Title\n\n## Sub\n"},
		{"list line is not a heading", "- item\n---", "- item\n---"},
		{"fenced", "```\nx\n===\n```", "```\nx\n===\n```"},
		{"table row", "a | b\n---", "a | b\n---"},
		{"rule after blank", "text\n\n---", "text\n\n---"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, setextToATX(tt.src))
		})
	}
}

func TestHeaders(t *testing.T) {
	t.Parallel()
	src := "# A #\n\n```\n# not a heading\n```\n\nB\n---\n\n###### Deep"
	assert.Equal(t, []Header{{1, "A"}, {2, "B"}, {6, "Deep"}}, Headers(src))
}

func TestHeaderList(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "nested",
			src:  "# A\n\n## B\n\n### C\n\n# D",
			want: "1: A\n2: ..- B\n3: ....+ C\n4: D\n",
		},
		{
			name: "shallowest is top and jumps are clamped",
			src:  "## A\n\n#### C\n\n### D",
			want: "1: A\n2: ..- C\n3: ..- D\n",
		},
		{name: "none", src: "text only", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HeaderList(tt.src, DefaultTheme(), false))
		})
	}
}

func TestFilterSections(t *testing.T) {
	t.Parallel()
	src := "# One\ntext1\n## Sub\nsub\n# Two\ntext2"
	tests := []struct {
		name  string
		specs []string
		want  string
	}{
		{"none", nil, src},
		{"by title", []string{"one"}, "# One\ntext1\n## Sub\nsub"},
		{"by index", []string{"3"}, "# Two\ntext2"},
		{"subsection", []string{"Sub"}, "## Sub\nsub"},
		{"pattern", []string{"^t.o$"}, "# Two\ntext2"},
		{"several in request order", []string{"Two", "One"}, "# Two\ntext2\n# One\ntext1\n## Sub\nsub"},
		{"bad pattern is literal", []string{"[bad"}, ""},
		{"index out of range", []string{"9"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterSections(src, tt.specs))
		})
	}
}

func TestRenderSections(t *testing.T) {
	t.Parallel()
	out := renderPlain(t, "# One\n\nfirst\n\n# Two\n\nsecond", 20, WithSections("two"))
	assert.Equal(t, "Two ================\n\nsecond\n", out)
}
