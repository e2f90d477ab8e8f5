package extractor

import (
	"bytes"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skippedElements = map[atom.Atom]bool{
	atom.Nav: true, atom.Header: true, atom.Footer: true,
	atom.Script: true, atom.Style: true, atom.Noscript: true,
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true, atom.Main: true,
	atom.Br: true, atom.Li: true, atom.Tr: true, atom.Table: true, atom.Ul: true, atom.Ol: true,
	atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// extractHTML renders the main content of a page as text, one block per
// line. The <main>, <article> or <body> element is used, in that order.
func extractHTML(data []byte, meta map[string]string) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if title := findFirst(doc, atom.Title); title != nil {
		if t := strings.TrimSpace(textOf(title)); t != "" {
			meta["title"] = t
		}
	}

	root := doc
	for _, a := range []atom.Atom{atom.Main, atom.Article, atom.Body} {
		if n := findFirst(doc, a); n != nil {
			root = n
			break
		}
	}

	var b strings.Builder
	render(&b, root)
	return b.String(), nil
}

func render(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		words := strings.Fields(n.Data)
		if len(words) == 0 {
			b.WriteString(" ")
			return
		}
		if unicode.IsSpace(rune(n.Data[0])) {
			b.WriteString(" ")
		}
		b.WriteString(strings.Join(words, " "))
		if unicode.IsSpace(rune(n.Data[len(n.Data)-1])) {
			b.WriteString(" ")
		}
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] || n.DataAtom == atom.Title || n.DataAtom == atom.Head {
			return
		}
	}
	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(b, c)
	}
	if block {
		b.WriteString("\n")
	}
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
