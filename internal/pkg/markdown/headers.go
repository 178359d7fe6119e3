package markdown

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var headingSelector = strings.Join(headingTags, ",")

// UpdateHeaders 按标题文本重写所有 h1-h6 的 id。
// 对已处理过的 HTML 再次执行结果不变
func UpdateHeaders(content string) string {
	if strings.TrimSpace(content) == "" {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	headings := doc.Find(headingSelector)
	if headings.Length() == 0 {
		return content
	}
	headings.Each(func(_ int, sel *goquery.Selection) {
		sel.SetAttr("id", Anchor(sel.Text()))
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return content
	}
	return out
}

// PlainText 提取 HTML 中的纯文本，空白折叠为单个空格
func PlainText(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Excerpt 截取前 n 个字符作为摘要
func Excerpt(content string, n int) string {
	text := []rune(PlainText(content))
	if n <= 0 || len(text) <= n {
		return string(text)
	}
	return strings.TrimSpace(string(text[:n])) + "…"
}
