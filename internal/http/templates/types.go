package templates

// DefaultFooterNote is shown in the shared layout.
const DefaultFooterNote = "Content is mirrored from GitHub wikis and belongs to its respective authors."

// MirrorPageData contains the values for a mirrored wiki page.
type MirrorPageData struct {
	OriginalTitle string
	OriginalURL   string
	ContentHTML   string
	SidebarHTML   string
	Indexable     bool
}

// IndexEntry is one page link on a wiki index.
type IndexEntry struct {
	Title string
	URL   string
}

// IndexPageData lists the known pages of one wiki.
type IndexPageData struct {
	Account    string
	Repository string
	WikiURL    string
	Pages      []IndexEntry
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	StatusLabel string
	Message     string
}
