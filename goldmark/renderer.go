// Package goldmark renders assistant markdown to ANSI-styled terminal
// output using goldmark for parsing and lipgloss for styling. Links are
// numbered and listed under a trailing sources section so search-backed
// answers keep their citations readable.
package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatstream"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const defaultWidth = 80

// Renderer renders markdown for one theme. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	styles styles
}

type styles struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	code      lipgloss.Style
	accent    lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

// New creates a Renderer with strikethrough and bare-URL linking enabled.
func New(theme chatstream.Theme) *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify)),
		styles: styles{
			bold:      lipgloss.NewStyle().Bold(true),
			italic:    lipgloss.NewStyle().Italic(true),
			strike:    lipgloss.NewStyle().Strikethrough(true),
			code:      lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)),
			accent:    lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
			muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
			underline: lipgloss.NewStyle().Underline(true),
		},
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// Render parses markdown source and returns styled output. Paragraphs, list
// items and quotes are word-wrapped to width; code blocks are not reflowed.
// A width of zero or less means 80 columns.
func (r *Renderer) Render(source string, width int) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	src := []byte(source)
	doc := r.md.Parser().Parse(text.NewReader(src))

	w := &writer{st: &r.styles, source: src, refs: make(map[string]int)}
	var buf bytes.Buffer
	w.blocks(doc, width, &buf)
	out := strings.TrimRight(buf.String(), "\n")
	if len(w.links) > 0 {
		out += "\n\n" + w.sources()
	}
	return out
}

// writer holds the state of a single Render call.
type writer struct {
	st     *styles
	source []byte
	links  []string
	refs   map[string]int
}

func (w *writer) ref(url string) int {
	if n, ok := w.refs[url]; ok {
		return n
	}
	w.links = append(w.links, url)
	n := len(w.links)
	w.refs[url] = n
	return n
}

func (w *writer) sources() string {
	lines := make([]string, 0, len(w.links)+1)
	lines = append(lines, w.st.muted.Render("Sources"))
	for i, url := range w.links {
		lines = append(lines, w.st.muted.Render(fmt.Sprintf("[%d] %s", i+1, url)))
	}
	return strings.Join(lines, "\n")
}

func (w *writer) blocks(node ast.Node, width int, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.block(c, width, buf)
	}
}

func (w *writer) block(node ast.Node, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(w.inline(n)))
		buf.WriteString("\n")

	case *ast.Heading:
		styled := w.st.accent.Render(w.inline(n))
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(styled))
		buf.WriteString("\n")

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.source)); lang != "" {
			buf.WriteString(w.st.muted.Render(lang))
			buf.WriteString("\n")
		}
		w.codeLines(n, buf)

	case *ast.CodeBlock:
		w.codeLines(n, buf)

	case *ast.Blockquote:
		var inner bytes.Buffer
		w.blocks(n, max(width-2, 10), &inner)
		gutter := w.st.muted.Render("│") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(gutter + line + "\n")
		}

	case *ast.List:
		w.list(n, width, buf, 0)

	case *ast.ThematicBreak:
		buf.WriteString(w.st.muted.Render(strings.Repeat("─", min(width, 40))))
		buf.WriteString("\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(w.source))
		}
		return

	default:
		w.blocks(node, width, buf)
		return
	}
	if node.NextSibling() != nil {
		buf.WriteString("\n")
	}
}

func (w *writer) codeLines(n ast.Node, buf *bytes.Buffer) {
	gutter := w.st.muted.Render("│") + " "
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.WriteString(gutter + strings.TrimRight(string(line.Value(w.source)), "\n") + "\n")
	}
}

func (w *writer) list(node *ast.List, width int, buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		var content bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				content.WriteString(w.inline(in))
			case *ast.List:
				if content.Len() > 0 {
					w.listItem(buf, indent, marker, content.String(), width)
					content.Reset()
				}
				w.list(in, width, buf, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				w.block(ic, width, &content)
			}
		}
		if content.Len() > 0 {
			w.listItem(buf, indent, marker, content.String(), width)
		}
	}
}

// listItem writes one item with continuation lines aligned under its text.
func (w *writer) listItem(buf *bytes.Buffer, indent, marker, content string, width int) {
	prefix := indent + marker
	wrapped := lipgloss.NewStyle().Width(max(width-len(prefix), 10)).Render(content)
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
		} else {
			buf.WriteString(continuation + line + "\n")
		}
	}
}

func (w *writer) inline(node ast.Node) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &buf)
	}
	return buf.String()
}

func (w *writer) span(node ast.Node, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(w.source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		// Level 2 is strong; ***x*** nests two Emphasis nodes.
		if n.Level == 1 {
			buf.WriteString(w.st.italic.Render(w.inline(n)))
		} else {
			buf.WriteString(w.st.bold.Render(w.inline(n)))
		}

	case *east.Strikethrough:
		buf.WriteString(w.st.strike.Render(w.inline(n)))

	case *ast.CodeSpan:
		buf.WriteString(w.st.code.Render(w.inline(n)))

	case *ast.Link:
		buf.WriteString(w.st.underline.Render(w.inline(n)))
		buf.WriteString(w.st.muted.Render(fmt.Sprintf("[%d]", w.ref(string(n.Destination)))))

	case *ast.Image:
		buf.WriteString(w.st.underline.Render(w.inline(n)))
		buf.WriteString(w.st.muted.Render(fmt.Sprintf("[%d]", w.ref(string(n.Destination)))))

	case *ast.AutoLink:
		buf.WriteString(w.st.underline.Render(string(n.URL(w.source))))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(w.source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, buf)
		}
	}
}
