// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"
)

// NoAbstractSentinel is the exact reply the prompt asks the model to give
// when the page holds no abstract. Matching is case-sensitive.
const NoAbstractSentinel = "NO_ABSTRACT_FOUND"

// abstractPromptTmpl is the fixed instruction sent with each page.
var abstractPromptTmpl = template.Must(template.New("abstract").Parse(`You are given the text of a web page or metadata record for a scholarly work.
{{- if .Identifier}} The work's identifier is {{.Identifier}}.{{end}}

Find the abstract of the work and reply with the abstract text only, exactly as written on the page. Do not summarize, translate, or add commentary, headings, or quotation marks.

If the text does not contain an abstract, reply with exactly {{.Sentinel}} and nothing else.

Page text:
{{.Content}}
`))

type promptData struct {
	Identifier string
	Sentinel   string
	Content    string
}

// renderPrompt executes the abstract prompt template.
func renderPrompt(identifier, content string) (string, error) {
	var buf bytes.Buffer
	err := abstractPromptTmpl.Execute(&buf, promptData{
		Identifier: identifier,
		Sentinel:   NoAbstractSentinel,
		Content:    content,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
