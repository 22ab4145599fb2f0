package formatter

import (
	"fmt"
	"sort"
	"strings"
)

// Locale holds every user-facing string the renderers and page controllers
// produce. Fields ending in Fmt are fmt verbs.
type Locale struct {
	Tag string

	ItemsFmt      string // collapsed array summary, %d = element count
	PropertiesFmt string // collapsed object summary, %d = member count
	ApproxFmt     string // size indicator, %s = FormatSize result

	Loading        string
	Copy           string
	SelectAll      string
	ScrollTop      string
	ScrollBottom   string
	ExpandAll      string
	CollapseAll    string
	CollapseLevel  string // %d = level
	EnableFolding  string
	LargeNotice    string // %s = size indicator
	OversizeNotice string // %s = size indicator

	FormatNow string
	Clear     string
	Minify    string

	WaitingForInput   string
	TooLargeFmt       string // %d = characters
	NotJSONShape      string
	ParseFailedFmt    string // %s = parser diagnostic
	NoInput           string
	InputLengthFmt    string // %d = characters
	OutputLengthFmt   string // %d = characters
	MinifiedSuffix    string
	SizeLimitExceeded string
	InvalidJSON       string
	NoOutput          string
	Copied            string
	CopyFailed        string
	MinifyFailed      string
}

// English is the default locale.
var English = Locale{
	Tag:            "en",
	ItemsFmt:       "... %d items",
	PropertiesFmt:  "... %d properties",
	ApproxFmt:      "approx. %s",
	Loading:        "Formatting JSON",
	Copy:           "Copy",
	SelectAll:      "Select all",
	ScrollTop:      "Top",
	ScrollBottom:   "Bottom",
	ExpandAll:      "Expand all",
	CollapseAll:    "Collapse all",
	CollapseLevel:  "Level %d",
	EnableFolding:  "Enable folding",
	LargeNotice:    "Large document (%s): folding is off to keep the page responsive.",
	OversizeNotice: "Document too large to format (%s): showing the raw text.",

	FormatNow: "Format",
	Clear:     "Clear",
	Minify:    "Minify",

	WaitingForInput:   "Waiting for input...",
	TooLargeFmt:       "Input too large (%d characters), please reduce it",
	NotJSONShape:      "Not valid JSON (must start with { or [ and end with } or ])",
	ParseFailedFmt:    "Parse failed: %s",
	NoInput:           "No input",
	InputLengthFmt:    "Input length: %d characters",
	OutputLengthFmt:   "Output length: %d characters",
	MinifiedSuffix:    " (minified)",
	SizeLimitExceeded: "Size limit exceeded",
	InvalidJSON:       "Invalid JSON",
	NoOutput:          "-",
	Copied:            "Copied to clipboard",
	CopyFailed:        "Copy failed (copy manually)",
	MinifyFailed:      "Minify failed (output is not valid JSON)",
}

// Chinese matches the wording of the original browser extension.
var Chinese = Locale{
	Tag:            "zh",
	ItemsFmt:       "... %d 项",
	PropertiesFmt:  "... %d 属性",
	ApproxFmt:      "约 %s",
	Loading:        "正在格式化 JSON",
	Copy:           "复制",
	SelectAll:      "全选",
	ScrollTop:      "顶部",
	ScrollBottom:   "底部",
	ExpandAll:      "全部展开",
	CollapseAll:    "全部折叠",
	CollapseLevel:  "折叠到第 %d 层",
	EnableFolding:  "启用折叠",
	LargeNotice:    "文档较大（%s），已关闭折叠以保持页面流畅。",
	OversizeNotice: "文档过大（%s），无法格式化，显示原始文本。",

	FormatNow: "格式化",
	Clear:     "清空",
	Minify:    "压缩",

	WaitingForInput:   "等待输入...",
	TooLargeFmt:       "输入过大（%d 字符），请减少内容",
	NotJSONShape:      "不是有效的 JSON（需要以 { 或 [ 开头并以 } 或 ] 结尾）",
	ParseFailedFmt:    "解析失败：%s",
	NoInput:           "未输入",
	InputLengthFmt:    "输入长度：%d 字符",
	OutputLengthFmt:   "输出长度：%d 字符",
	MinifiedSuffix:    "（已压缩）",
	SizeLimitExceeded: "超过大小限制",
	InvalidJSON:       "格式错误",
	NoOutput:          "-",
	Copied:            "已复制到剪贴板",
	CopyFailed:        "复制失败（请手动复制）",
	MinifyFailed:      "压缩失败（格式不正确）",
}

var locales = map[string]Locale{
	English.Tag: English,
	Chinese.Tag: Chinese,
}

// LookupLocale resolves a language tag such as "zh-CN" or "en_US" by its
// primary subtag.
func LookupLocale(tag string) (Locale, error) {
	primary := strings.ToLower(tag)
	if i := strings.IndexAny(primary, "-_"); i >= 0 {
		primary = primary[:i]
	}
	if primary == "" {
		return English, nil
	}
	l, ok := locales[primary]
	if !ok {
		return English, fmt.Errorf("unsupported locale %q: valid values are %s", tag, strings.Join(LocaleTags(), ", "))
	}
	return l, nil
}

// LocaleTags lists the supported primary tags.
func LocaleTags() []string {
	tags := make([]string, 0, len(locales))
	for t := range locales {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Placeholder returns the collapsed summary for a container with n children.
func (l Locale) Placeholder(object bool, n int) string {
	if object {
		return fmt.Sprintf(l.PropertiesFmt, n)
	}
	return fmt.Sprintf(l.ItemsFmt, n)
}

// Approx formats a byte count as a size indicator.
func (l Locale) Approx(n int64) string {
	return fmt.Sprintf(l.ApproxFmt, FormatSize(n))
}
