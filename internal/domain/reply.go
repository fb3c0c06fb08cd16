package domain

import "strings"

type SegmentType string

const (
	SegmentText  SegmentType = "text"
	SegmentImage SegmentType = "image"
)

type Segment struct {
	Type SegmentType `json:"type"`
	Text string      `json:"text,omitempty"`
	URL  string      `json:"url,omitempty"`
}

// Reply is an ordered message chain, rendered by each transport.
type Reply struct {
	Segments []Segment `json:"segments"`
}

func TextReply(text string) Reply {
	return Reply{Segments: []Segment{{Type: SegmentText, Text: text}}}
}

func (r Reply) IsEmpty() bool {
	return len(r.Segments) == 0
}

// PlainText flattens the chain into a single line for text-only chats; line
// breaks become spaces and images become their URL.
func (r Reply) PlainText() string {
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		switch seg.Type {
		case SegmentText:
			for _, line := range strings.FieldsFunc(seg.Text, isLineBreak) {
				if t := strings.TrimSpace(line); t != "" {
					parts = append(parts, t)
				}
			}
		case SegmentImage:
			if seg.URL != "" {
				parts = append(parts, seg.URL)
			}
		}
	}
	return strings.Join(parts, " ")
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}
