package markdown

import (
	"bytes"
	"regexp"
	"strings"
)

// MaxTocLevel 目录只收录 h1-h3
const MaxTocLevel = 3

var (
	headingRegex     = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+)$`)
	closingHashRegex = regexp.MustCompile(`[ \t]+#+$`)
)

// TocEntry 目录项，Children 为下一层级的直接子标题
type TocEntry struct {
	Level    int         `json:"level"`
	Text     string      `json:"text"`
	AnchorID string      `json:"anchor_id"`
	Children []*TocEntry `json:"children,omitempty"`
}

// BuildTOC 使用默认 Renderer
func BuildTOC(source string) []*TocEntry {
	return defaultRenderer.BuildTOC(source)
}

// BuildTOC 直接扫描 Markdown 原文，不依赖 HTML 解析结果
// 返回按文档顺序排列的 h1-h3 平铺列表，层级关系挂在 Children 上；
// h4-h6 参与层级判断但不进入结果
func (r *Renderer) BuildTOC(source string) []*TocEntry {
	toc := make([]*TocEntry, 0)
	if source == "" {
		return toc
	}

	type frame struct {
		level int
		entry *TocEntry
	}
	stack := make([]frame, 0, 6)

	for _, m := range headingRegex.FindAllStringSubmatch(normalizeNewlines(source), -1) {
		level := len(m[1])

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		if level > MaxTocLevel {
			stack = append(stack, frame{level: level})
			continue
		}

		text := r.headingText(m[2])
		entry := &TocEntry{
			Level:    level,
			Text:     text,
			AnchorID: Anchor(text),
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1].entry
			parent.Children = append(parent.Children, entry)
		}
		stack = append(stack, frame{level: level, entry: entry})
		toc = append(toc, entry)
	}
	return toc
}

// headingText 按正文相同的规则渲染标题行再取纯文本，
// 目录锚点与 HTML 中标题的 id 由同一段文本生成
func (r *Renderer) headingText(raw string) (text string) {
	raw = strings.TrimSpace(raw)
	raw = closingHashRegex.ReplaceAllString(raw, "")
	fallback := strings.TrimSpace(StripTags(raw))

	defer func() {
		if rec := recover(); rec != nil {
			text = fallback
		}
	}()

	// 带上 "# " 前缀，避免 "1. xx"、"- xx" 之类被当成列表解析
	var buf bytes.Buffer
	if err := r.md.Convert([]byte("# "+raw), &buf); err != nil {
		return fallback
	}
	return PlainText(string(r.policy.SanitizeBytes(buf.Bytes())))
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
