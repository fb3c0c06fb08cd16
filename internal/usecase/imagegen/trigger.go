package imagegen

import "strings"

var drawKeywords = []string{
	"画", "绘画", "画个", "画张", "画一个", "画一张", "生图", "画画", "img", "painting",
}

// MatchesKeyword reports whether text contains any drawing keyword (case-sensitive).
func MatchesKeyword(text string) bool {
	for _, kw := range drawKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func Keywords() []string {
	return append([]string(nil), drawKeywords...)
}
