package jira

import "strings"

// Atlassian Document Format markers.
const (
	docType       = "doc"
	docVersion    = 1
	paragraphType = "paragraph"
	textType      = "text"
)

// ContentItem is one inline item inside a paragraph.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Paragraph is a single block of the description document.
type Paragraph struct {
	Type    string        `json:"type"`
	Content []ContentItem `json:"content"`
}

// Document is the rich-text description sent to the issue-creation endpoint.
type Document struct {
	Type    string      `json:"type"`
	Version int         `json:"version"`
	Content []Paragraph `json:"content"`
}

// DocumentFromText converts a plain-text description into a Document: one
// paragraph per line, each holding a single text item with the trimmed line.
// An empty description yields a document with no paragraphs.
func DocumentFromText(text string) Document {
	doc := Document{Type: docType, Version: docVersion, Content: []Paragraph{}}
	if text == "" {
		return doc
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		doc.Content = append(doc.Content, Paragraph{
			Type: paragraphType,
			Content: []ContentItem{
				{Type: textType, Text: strings.TrimSpace(line)},
			},
		})
	}
	return doc
}
