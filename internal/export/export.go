// Package export renders the evidence packet into shareable formats: the
// markdown itself, a styled HTML document, or a printed PDF.
package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const packetCSS = `body{font-family:Georgia,'Times New Roman',serif;color:#1c1917;max-width:820px;margin:0 auto;padding:1.2rem;line-height:1.45;}
h1{font-size:1.5rem;border-bottom:2px solid #1c1917;padding-bottom:0.3rem;}
h2{font-size:1.1rem;margin-top:1.6rem;}
table{width:100%;border-collapse:collapse;font-size:0.85rem;margin:0.6rem 0;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
ul.contains-task-list{list-style:none;padding-left:0.4rem;}
@media print{@page{size:auto;margin:14mm;} body{padding:0;}}`

// HTML converts the packet markdown into a standalone HTML document.
func HTML(markdown, title string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM, extension.TaskList))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + packetCSS + "</style></head><body>" +
		content.String() +
		"</body></html>", nil
}
