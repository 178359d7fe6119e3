package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_BasicDocument(t *testing.T) {
	res := Render("# Title\n## Sub\nSome **bold** text\n<script>alert(1)</script>")

	assert.Contains(t, res.HTML, `<h1 id="header-title">Title</h1>`)
	assert.Contains(t, res.HTML, `<h2 id="header-sub">Sub</h2>`)
	assert.Contains(t, res.HTML, "<strong>bold</strong>")
	assert.NotContains(t, res.HTML, "<script")
	assert.NotContains(t, res.HTML, "alert(1)")

	require.Len(t, res.TOC, 2)
	assert.Equal(t, 1, res.TOC[0].Level)
	assert.Equal(t, "Title", res.TOC[0].Text)
	assert.Equal(t, "header-title", res.TOC[0].AnchorID)
	assert.Equal(t, 2, res.TOC[1].Level)
	assert.Equal(t, "Sub", res.TOC[1].Text)
	assert.Equal(t, []*TocEntry{res.TOC[1]}, res.TOC[0].Children)
}

func TestRender_EmptyInput(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\n"} {
		res := Render(src)
		assert.Equal(t, "", res.HTML)
		assert.NotNil(t, res.TOC)
		assert.Empty(t, res.TOC)
	}
}

func TestRender_StripsUnsafeMarkup(t *testing.T) {
	res := Render("[x](javascript:alert(1))\n\n<img src=x onerror=alert(1)>\n\n<iframe src=\"https://evil\"></iframe>")
	assert.NotContains(t, res.HTML, "javascript:")
	assert.NotContains(t, res.HTML, "onerror")
	assert.NotContains(t, res.HTML, "<iframe")
}

func TestRender_TablesAndWikilinks(t *testing.T) {
	res := Render("| a | b |\n|---|---|\n| 1 | 2 |\n\nSee [[Go Tips]]")
	assert.Contains(t, res.HTML, "<table>")
	assert.Contains(t, res.HTML, `href="/Go_Tips/"`)
}

func TestBuildTOC_Nesting(t *testing.T) {
	src := strings.Join([]string{
		"# A",
		"## A.1",
		"#### deep",
		"### A.1.a",
		"## A.2 ##",
		"# B",
		"### B.x",
	}, "\n")

	toc := BuildTOC(src)
	require.Len(t, toc, 6)

	texts := make([]string, 0, len(toc))
	for _, e := range toc {
		texts = append(texts, e.Text)
	}
	assert.Equal(t, []string{"A", "A.1", "A.1.a", "A.2", "B", "B.x"}, texts)

	a, a1, a1a, a2, b, bx := toc[0], toc[1], toc[2], toc[3], toc[4], toc[5]
	assert.Equal(t, []*TocEntry{a1, a2}, a.Children)
	assert.Equal(t, []*TocEntry{a1a}, a1.Children)
	assert.Empty(t, a2.Children)
	assert.Equal(t, []*TocEntry{bx}, b.Children)
}

func TestRender_TocAnchorsMatchHeadingIDs(t *testing.T) {
	sources := []string{
		"# See [docs](https://x.io)",
		"# my_var is _cool_",
		"# A -- B",
		"# It's **bold** `code`\n\n## 1. First step\n\n### [[Wiki Page]] link ###\n\nbody",
	}
	for _, src := range sources {
		res := Render(src)
		require.NotEmpty(t, res.TOC, src)
		for _, e := range res.TOC {
			assert.Contains(t, res.HTML, `id="`+e.AnchorID+`"`, src)
		}
	}

	res := Render("# See [docs](https://x.io)")
	assert.Equal(t, "See docs", res.TOC[0].Text)
	assert.Equal(t, "header-see-docs", res.TOC[0].AnchorID)
}

func TestBuildTOC_HeadingNeedsSpace(t *testing.T) {
	toc := BuildTOC("#hashtag\n#\tTabbed\r\n##  Spaced  ")
	require.Len(t, toc, 2)
	assert.Equal(t, "Tabbed", toc[0].Text)
	assert.Equal(t, "Spaced", toc[1].Text)
	assert.Equal(t, "header-spaced", toc[1].AnchorID)
}

func TestAnchor(t *testing.T) {
	cases := map[string]string{
		"Hello World":           "header-hello-world",
		"  Multiple   Spaces ":  "header-multiple-spaces",
		"<em>Tagged</em> Title": "header-tagged-title",
		"C++ & Go!":             "header-c--go",
		"中文 标题":                 "header-中文-标题",
		"!!!":                   "header-",
		"snake_case-ok":         "header-snake_case-ok",
	}
	for in, want := range cases {
		assert.Equal(t, want, Anchor(in), in)
	}
}

func TestRender_PunctuationHeading(t *testing.T) {
	res := Render("# !!!\n\n# ???")
	require.Len(t, res.TOC, 2)
	assert.Equal(t, "header-", res.TOC[0].AnchorID)
	assert.Equal(t, "header-", res.TOC[1].AnchorID)
	assert.Contains(t, res.HTML, `id="header-"`)
}

func TestUpdateHeaders_Idempotent(t *testing.T) {
	html := `<h2 id="x">First Part</h2><p>body</p><h3>Second</h3>`
	once := UpdateHeaders(html)
	assert.Contains(t, once, `<h2 id="header-first-part">First Part</h2>`)
	assert.Contains(t, once, `<h3 id="header-second">Second</h3>`)
	assert.Equal(t, once, UpdateHeaders(once))

	assert.Equal(t, "<p>no headings</p>", UpdateHeaders("<p>no headings</p>"))
	assert.Equal(t, "", UpdateHeaders(""))
}

func TestSanitizeComment(t *testing.T) {
	assert.Equal(t, "hi there", SanitizeComment("  <b>hi</b> there<script>x()</script> "))
	assert.Equal(t, "a < b", SanitizeComment("a < b"))
	assert.Equal(t, `Tom & Jerry's "show"`, SanitizeComment(`Tom &amp; Jerry's "show"`))
	assert.Equal(t, "O'Brien", SanitizeComment("O'Brien<img src=x onerror=alert(1)>"))
}

func TestPlainTextAndExcerpt(t *testing.T) {
	html := "<h1>Title</h1>\n<p>Hello   <b>world</b></p>"
	assert.Equal(t, "Title Hello world", PlainText(html))
	assert.Equal(t, "Title…", Excerpt(html, 5))
	assert.Equal(t, "Title Hello world", Excerpt(html, 100))
	assert.Equal(t, "", PlainText("  "))
}
