package content

import (
	"strings"
	"testing"
)

func TestRenderConvertsMarkdown(t *testing.T) {
	renderer := NewRenderer()

	html := renderer.Render("**Heavy** cotton hoodie")
	if !strings.Contains(html, "<strong>Heavy</strong>") {
		t.Fatalf("expected bold markup, got %q", html)
	}
}

func TestRenderStripsScriptTags(t *testing.T) {
	renderer := NewRenderer()

	html := renderer.Render(`Nice <script>alert("x")</script> hoodie`)
	if strings.Contains(html, "<script>") || strings.Contains(html, "alert") {
		t.Fatalf("script content must be stripped, got %q", html)
	}
	if !strings.Contains(html, "hoodie") {
		t.Fatalf("text content must survive, got %q", html)
	}
}

func TestRenderEmptyDescription(t *testing.T) {
	renderer := NewRenderer()
	if got := strings.TrimSpace(renderer.Render("")); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
