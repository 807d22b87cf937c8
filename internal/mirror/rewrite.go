package mirror

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Prefix is the path segment the mirror re-hosts upstream pages under.
const Prefix = "/m"

// RewriteLinks prefixes every root-relative anchor href with Prefix so navigation
// stays inside the mirror. Absolute and relative hrefs are left alone.
//
// The rewrite is not idempotent: a second pass prefixes again ("/m/m/..."), so it
// must run exactly once per fetched page. Input that contains an <html> element is
// rendered back as a full document, anything else as a fragment. Unparseable input
// is returned unchanged.
func RewriteLinks(source string) string {
	if isDocument(source) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
		if err != nil {
			return source
		}
		rewriteAnchors(doc.Selection)

		out, err := doc.Html()
		if err != nil {
			return source
		}
		return out
	}

	return rewriteFragment(source)
}

func rewriteFragment(source string) string {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(source), body)
	if err != nil {
		return source
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, node := range nodes {
		root.AppendChild(node)
	}
	rewriteAnchors(goquery.NewDocumentFromNode(root).Selection)

	var builder strings.Builder
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&builder, child); err != nil {
			return source
		}
	}
	return builder.String()
}

func rewriteAnchors(sel *goquery.Selection) {
	sel.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		if strings.HasPrefix(href, "/") {
			anchor.SetAttr("href", Prefix+href)
		}
	})
}

func isDocument(source string) bool {
	lower := strings.ToLower(source)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}
