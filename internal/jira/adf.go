package jira

import (
	"encoding/json"
	"strings"
)

// Issue descriptions arrive either as a plain string or as an Atlassian
// Document Format tree; both flatten to text here.

type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

type adfDocument struct {
	Content []adfNode `json:"content"`
}

func descriptionText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var doc adfDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}

	var b strings.Builder
	for _, node := range doc.Content {
		extractText(&b, node)
	}
	return strings.TrimSpace(b.String())
}

func extractText(b *strings.Builder, node adfNode) {
	b.WriteString(node.Text)
	for _, child := range node.Content {
		extractText(b, child)
	}
	// paragraph and heading nodes terminate a line
	if node.Type == "paragraph" || node.Type == "heading" {
		b.WriteByte('\n')
	}
}
