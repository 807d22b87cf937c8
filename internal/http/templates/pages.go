package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// HomePage renders the landing page.
func HomePage() templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.write(`<h1>` + siteName + `</h1>`)
		ew.write(`<p>Browse GitHub wikis without the GitHub UI. Replace <code>github.com</code> with this site's `)
		ew.write(`<code>/m</code> path, e.g. <a href="/m/nelsonjchen/github-wiki-test/wiki">/m/nelsonjchen/github-wiki-test/wiki</a>.</p>`)
		return ew.err
	})
	return layout(siteName, true, body)
}

// MirrorPage renders a mirrored wiki page with an attribution link to the original.
func MirrorPage(data MirrorPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.write(`<p class="original">Mirrored from <a rel="nofollow" href="` + templ.EscapeString(data.OriginalURL) + `">`)
		ew.write(templ.EscapeString(data.OriginalURL) + `</a></p>`)
		if data.SidebarHTML != "" {
			ew.write(`<aside class="sidebar">` + data.SidebarHTML + `</aside>`)
		}
		ew.write(`<article>` + data.ContentHTML + `</article>`)
		return ew.err
	})

	title := data.OriginalTitle
	if title == "" {
		title = siteName
	}
	return layout(title, data.Indexable, body)
}

// IndexPage renders the list of mirrored pages for one wiki.
func IndexPage(data IndexPageData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.write(`<h1>` + templ.EscapeString(data.Account+"/"+data.Repository) + ` wiki index</h1>`)
		ew.write(`<p><a href="` + templ.EscapeString(data.WikiURL) + `">Wiki home</a></p>`)
		if len(data.Pages) == 0 {
			ew.write(`<p>No pages of this wiki have been mirrored yet.</p>`)
			return ew.err
		}
		ew.write(`<ul>`)
		for _, page := range data.Pages {
			ew.write(`<li><a href="` + templ.EscapeString(page.URL) + `">` + templ.EscapeString(page.Title) + `</a></li>`)
		}
		ew.write(`</ul>`)
		return ew.err
	})
	return layout(data.Account+"/"+data.Repository+" wiki index", false, body)
}

// ErrorPage renders an error view.
func ErrorPage(data ErrorPageData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.write(`<h1>` + templ.EscapeString(data.StatusLabel) + `</h1>`)
		ew.write(`<p>` + templ.EscapeString(data.Message) + `</p>`)
		return ew.err
	})
	return layout(data.StatusLabel+" • "+siteName, false, body)
}
