package utils

import (
	"strings"
	"testing"
)

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("**bold** <script>alert(1)</script>"))
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("expected bold markup, got %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("script tag survived sanitizing: %q", out)
	}
}

func TestRenderMarkdownHardensLinksAndImages(t *testing.T) {
	out := string(RenderMarkdown("[site](https://example.com) ![x](https://example.com/a.png)"))
	if !strings.Contains(out, `rel="nofollow noopener noreferrer"`) {
		t.Errorf("expected rel attribute on external link, got %q", out)
	}
	if !strings.Contains(out, `loading="lazy"`) {
		t.Errorf("expected lazy image, got %q", out)
	}
}

func TestRenderMarkdownIsMemoized(t *testing.T) {
	first := RenderMarkdown("memo *me*")
	second := RenderMarkdown("memo *me*")
	if first != second {
		t.Errorf("renders differ: %q vs %q", first, second)
	}
}

func TestStripHTML(t *testing.T) {
	if got := StripHTML("<p>Hello <b>world</b></p>"); got != "Hello world" {
		t.Errorf("StripHTML() = %q", got)
	}
}
