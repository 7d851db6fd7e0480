// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// alwaysSkipped elements never contribute text.
var alwaysSkipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// chromeElements hold site navigation rather than article content.
var chromeElements = map[string]bool{
	"nav":    true,
	"header": true,
	"footer": true,
	"aside":  true,
	"form":   true,
	"button": true,
	"svg":    true,
}

// appendText walks n depth-first and appends each non-empty text node,
// whitespace-collapsed. Elements for which skip returns true are pruned.
func appendText(parts []string, n *html.Node, skip func(*html.Node) bool) []string {
	switch n.Type {
	case html.TextNode:
		if t := collapseSpace(n.Data); t != "" {
			parts = append(parts, t)
		}
		return parts
	case html.ElementNode:
		if alwaysSkipped[n.Data] || (skip != nil && skip(n)) {
			return parts
		}
	case html.CommentNode:
		return parts
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = appendText(parts, c, skip)
	}
	return parts
}

// visibleText returns the readable text of an HTML page with navigation
// chrome removed.
func visibleText(body []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	skip := func(n *html.Node) bool { return chromeElements[n.Data] || n.Data == "head" }
	return strings.Join(appendText(nil, root, skip), " "), nil
}

// flattenMarkup strips tags from a markup fragment such as a JATS abstract
// and drops its section titles.
func flattenMarkup(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return collapseSpace(html.UnescapeString(fragment))
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type: html.ElementNode,
		Data: "div",
	})
	if err != nil {
		return collapseSpace(fragment)
	}
	skip := func(n *html.Node) bool {
		return n.Data == "jats:title" || n.Data == "title"
	}
	var parts []string
	for _, n := range nodes {
		parts = appendText(parts, n, skip)
	}
	return strings.Join(parts, " ")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func looksLikeHTML(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
		return true
	}
	if strings.Contains(ct, "json") {
		return false
	}
	head := bytes.TrimSpace(body)
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.HasPrefix(head, []byte("<"))
}
