package imagegen

import (
	"fmt"
	"strings"

	"aimgBot/internal/domain"
)

const (
	msgConfigMissing    = "请先在配置文件中设置智谱AI的API密钥"
	msgEmptyPrompt      = "请提供绘画内容的描述!"
	msgGenerationFailed = "生成图片失败"
)

func commandUsage(prefix, name string) string {
	return fmt.Sprintf("请提供绘画内容的描述! 用法: %s%s <提示词> [尺寸]", prefix, name)
}

func invalidSizeMessage(size string) string {
	return fmt.Sprintf("无效的尺寸 %q，可选尺寸: %s", size, strings.Join(validSizes, ", "))
}

func successReply(prompt, size, url string) domain.Reply {
	return domain.Reply{Segments: []domain.Segment{
		{Type: domain.SegmentText, Text: fmt.Sprintf("提示词：%s\n大小：%s\n", prompt, size)},
		{Type: domain.SegmentImage, URL: url},
	}}
}

// ErrorReply renders any failure as a single plain-text segment.
func ErrorReply(err error) domain.Reply {
	if err == nil {
		return domain.Reply{}
	}
	return domain.TextReply(err.Error())
}
