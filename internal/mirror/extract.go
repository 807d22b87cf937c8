package mirror

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContentSelector identifies the wiki body inside an upstream page.
const ContentSelector = "#wiki-wrapper"

// extract returns the page title and the rewritten outer HTML of the wiki content
// container. Links outside the container are not touched. Missing elements yield
// empty strings.
func extract(raw string) (title string, content string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", ""
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	container := doc.Find(ContentSelector).First()
	if container.Length() == 0 {
		return title, ""
	}

	rewriteAnchors(container)

	content, err = goquery.OuterHtml(container)
	if err != nil {
		return title, ""
	}
	return title, content
}
