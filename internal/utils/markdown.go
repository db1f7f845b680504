package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy      = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()

	// 渲染结果只取决于输入，按内容哈希缓存
	renderCache *TTLCache[template.HTML]
)

func init() {
	policy.AllowImages()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	c, err := NewTTLCache[template.HTML](1000, 30*time.Minute)
	if err != nil {
		slog.Error("failed to create render cache", "error", err)
		return
	}
	renderCache = c
}

// RenderMarkdown converts user markdown into sanitized HTML.
func RenderMarkdown(source string) template.HTML {
	if source == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(source))
	key := hex.EncodeToString(sum[:])
	if renderCache != nil {
		if out, ok := renderCache.Get(key); ok {
			return out
		}
	}

	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}

	sanitized := policy.SanitizeBytes(buf.Bytes())
	out := EnhanceHTMLContent(string(sanitized))

	if renderCache != nil {
		renderCache.Set(key, out)
	}
	return out
}

// StripHTML removes every tag, leaving plain text.
func StripHTML(s string) string {
	return stripPolicy.Sanitize(s)
}
