// Package markdown 把文章 Markdown 渲染为净化后的 HTML，并从原文生成目录
package markdown

import (
	"bytes"
	"fmt"
	"html"
	log "log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.xyz/goldmark/wikilink"
)

// Version 渲染规则变化时递增，低于该版本的缓存会被重建
const Version = 2

// Result 渲染结果
type Result struct {
	HTML string      `json:"html"`
	TOC  []*TocEntry `json:"toc"`
}

// Renderer goldmark 与 bluemonday 实例均可并发复用
type Renderer struct {
	md      goldmark.Markdown
	policy  *bluemonday.Policy
	comment *bluemonday.Policy
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
				extension.DefinitionList,
				extension.Footnote,
				extension.Typographer,
				&wikilink.Extender{Resolver: wikiResolver{}},
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			// 原始 HTML 交给 sanitizer 统一处理
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
		policy:  newContentPolicy(),
		comment: newCommentPolicy(),
	}
}

var defaultRenderer = NewRenderer()

// Render 使用默认 Renderer
func Render(source string) Result {
	return defaultRenderer.Render(source)
}

// SanitizeComment 使用默认 Renderer
func SanitizeComment(s string) string {
	return defaultRenderer.SanitizeComment(s)
}

// Render 两遍处理：goldmark 解析 + 白名单净化得到 HTML；正则扫描原文得到目录。
// 不会 panic，也不返回错误
func (r *Renderer) Render(source string) Result {
	if strings.TrimSpace(source) == "" {
		return Result{HTML: "", TOC: make([]*TocEntry, 0)}
	}
	return Result{
		HTML: r.renderHTML(source),
		TOC:  r.BuildTOC(source),
	}
}

// SanitizeComment 去除全部标签，返回未转义的纯文本，输出到页面时再转义
func (r *Renderer) SanitizeComment(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.comment.Sanitize(s)))
}

func (r *Renderer) renderHTML(source string) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("markdown render panic, fallback to plain text", "panic", fmt.Sprint(rec))
			out = r.policy.Sanitize(plainParagraph(source))
		}
	}()

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		log.Warn("markdown convert failed, fallback to plain text", "err", err)
		return r.policy.Sanitize(plainParagraph(source))
	}

	sanitized := r.policy.SanitizeBytes(buf.Bytes())
	if len(bytes.TrimSpace(sanitized)) == 0 {
		return ""
	}
	return UpdateHeaders(string(sanitized))
}

func plainParagraph(source string) string {
	return "<p>" + html.EscapeString(source) + "</p>"
}

// wikiResolver [[Page Name]] -> /Page_Name/
type wikiResolver struct{}

func (wikiResolver) ResolveWikilink(n *wikilink.Node) ([]byte, error) {
	target := strings.TrimSpace(string(n.Target))
	fragment := strings.TrimSpace(string(n.Fragment))
	if target == "" && fragment == "" {
		return nil, nil
	}

	var dest strings.Builder
	if target != "" {
		dest.WriteString("/")
		dest.WriteString(strings.ReplaceAll(target, " ", "_"))
		dest.WriteString("/")
	}
	if fragment != "" {
		dest.WriteString("#")
		dest.WriteString(fragment)
	}
	return []byte(dest.String()), nil
}
