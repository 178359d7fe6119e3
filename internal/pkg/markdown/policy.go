package markdown

import "github.com/microcosm-cc/bluemonday"

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// newContentPolicy 文章正文白名单，白名单外的元素去壳留文本，script/style 等整体丢弃
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowStandardURLs()
	p.AllowURLSchemes("http", "https", "mailto")

	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowAttrs("title").OnElements(append([]string{"abbr", "acronym"}, headingTags...)...)

	p.AllowElements(
		"b", "blockquote", "code", "em", "i", "li", "ol", "pre", "strong", "ul",
		"p", "hr", "br", "del", "s", "sup", "sub", "span", "div", "dl", "dt", "dd",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowElements(headingTags...)

	return p
}

// newCommentPolicy 评论只保留纯文本
func newCommentPolicy() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}
