// Package intent classifies short conversational signals: small talk,
// confirmation, denial, and the wish to abandon the current task. All
// checks are bounded keyword lexicons; no completion-service call is
// needed for these.
package intent

import "strings"

var casualKeywords = []string{
	"你好", "您好", "谢谢", "感谢", "再见", "拜拜", "天气",
	"名字", "你是谁", "帮助", "哈哈", "呵呵", "吗？", "吗?",
}

// taskKeywords veto the casual-chat classification: a greeting that also
// mentions traffic analysis is a task turn.
var taskKeywords = []string{
	"流量", "查询", "分析", "统计", "IP", "ip", "网段", "端口",
	"客户", "账号", "地市", "省", "流出", "流入", "剔除",
}

var confirmKeywords = []string{
	"是", "确认", "对的", "正确", "ok", "yes", "没问题", "是的",
}

var denyKeywords = []string{
	"不是", "不对", "错误", "修改", "no", "重新", "换一个", "不正确",
}

var newTaskKeywords = []string{
	"重新", "新问题", "另一个", "不同", "不是这个", "换一个",
}

// IsCasualChat reports whether text is small talk with no task content.
func IsCasualChat(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, w := range taskKeywords {
		if strings.Contains(text, w) {
			return false
		}
	}
	for _, w := range casualKeywords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// IsConfirmation reports whether text affirms the presented question.
// Denial keywords win over confirmation keywords: "不是" contains "是".
func IsConfirmation(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	for _, w := range denyKeywords {
		if strings.Contains(text, strings.ToLower(w)) {
			return false
		}
	}
	for _, w := range confirmKeywords {
		if strings.Contains(text, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// IsDenial reports whether text rejects the presented question.
func IsDenial(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, w := range denyKeywords {
		if strings.Contains(text, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// IsNewTask reports whether text signals abandoning the current task.
func IsNewTask(text string) bool {
	for _, w := range newTaskKeywords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
