// Package markdown turns GitHub wiki text assets (sidebars, footers) into plain
// markdown and renders them to HTML.
package markdown

import (
	"regexp"
	"strings"
)

// RawAssetHost serves files committed to a repository's wiki, including images
// referenced with root-relative paths.
const RawAssetHost = "https://raw.githubusercontent.com"

// GitHub wikis accept a subset of mediawiki bracket syntax next to markdown.
// Images must be resolved before links: every image form is also a valid link form.
var (
	imagePattern = regexp.MustCompile(`\[\[([^\[\]|]*?\.(?i:jpg|jpeg|png|gif))\|(?:alt=)?(.*?)\]\]`)
	linkPattern  = regexp.MustCompile(`\[\[([^\[\]|]*?)\| *(.*?) *\]\]`)
)

// Convert rewrites bracket image and link forms into standard markdown scoped to
// the given repository's wiki, with images served from RawAssetHost. Text that
// matches neither form is left untouched.
func Convert(md, account, repository string) string {
	return ConvertWithHost(md, RawAssetHost, account, repository)
}

// ConvertWithHost is Convert with images served from rawHost instead of
// RawAssetHost. An empty rawHost falls back to RawAssetHost.
func ConvertWithHost(md, rawHost, account, repository string) string {
	if !strings.Contains(md, "[[") {
		return md
	}

	rawHost = strings.TrimRight(strings.TrimSpace(rawHost), "/")
	if rawHost == "" {
		rawHost = RawAssetHost
	}

	imageBase := rawHost + "/wiki/" + account + "/" + repository
	converted := imagePattern.ReplaceAllStringFunc(md, func(match string) string {
		groups := imagePattern.FindStringSubmatch(match)
		return "![" + groups[2] + "](" + imageBase + groups[1] + ")"
	})

	pageBase := "/" + account + "/" + repository + "/wiki/"
	return linkPattern.ReplaceAllStringFunc(converted, func(match string) string {
		groups := linkPattern.FindStringSubmatch(match)
		return "[" + groups[1] + "](" + pageBase + groups[2] + ")"
	})
}
