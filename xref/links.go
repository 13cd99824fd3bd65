package xref

import (
	"html"
	"strings"
)

// Linker builds the anchors embedded in rendered text. Prefix is prepended
// to every href, e.g. "/source/s?".
type Linker struct {
	Prefix string
}

// Path links v as a file path.
func (l Linker) Path(v string) string {
	return l.anchor("", "path", v)
}

// Ref links v as a reference to a definition.
func (l Linker) Ref(v string) string {
	return l.anchor("", "defs", v)
}

// Def tags v as a definition site.
func (l Linker) Def(v string) string {
	return l.anchor(v, "defs", v)
}

func (l Linker) anchor(name, query, v string) string {
	ev := html.EscapeString(v)
	var sb strings.Builder
	sb.WriteString(`<a `)
	if name != "" {
		sb.WriteString(`class="d" name="`)
		sb.WriteString(ev)
		sb.WriteString(`" `)
	}
	sb.WriteString(`href="`)
	sb.WriteString(html.EscapeString(l.Prefix))
	sb.WriteString(query)
	sb.WriteString("=")
	sb.WriteString(ev)
	sb.WriteString(`">`)
	sb.WriteString(ev)
	sb.WriteString("</a>")
	return sb.String()
}
