package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// AnchorPrefix 所有标题锚点的固定前缀
const AnchorPrefix = "header-"

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonSlugRegex    = regexp.MustCompile(`[^\p{L}\p{N}_\-]`)
	stripPolicy     = bluemonday.StrictPolicy()
)

// Anchor 由标题文本得到锚点 ID，同一文本总是得到同一结果
func Anchor(text string) string {
	return AnchorPrefix + Slugify(text)
}

// Slugify 去标签、转小写、空白折叠为连字符、去除非单词字符
// 纯标点的文本得到空串
func Slugify(text string) string {
	s := strings.ToLower(StripTags(text))
	s = whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), "-")
	return nonSlugRegex.ReplaceAllString(s, "")
}

// StripTags 去除 HTML 标签并还原实体
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return html.UnescapeString(stripPolicy.Sanitize(s))
}
