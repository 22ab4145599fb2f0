package ui

// Action is what a key press asks the formatter to do.
type Action string

const (
	ActionNone          Action = ""
	ActionQuit          Action = "quit"
	ActionSwitchPane    Action = "switch_pane"
	ActionFormatNow     Action = "format_now"
	ActionClear         Action = "clear"
	ActionCopy          Action = "copy"
	ActionMinify        Action = "minify"
	ActionExpandAll     Action = "expand_all"
	ActionCollapseAll   Action = "collapse_all"
	ActionCollapseLevel Action = "collapse_level"
	ActionToggle        Action = "toggle"
	ActionUp            Action = "up"
	ActionDown          Action = "down"
	ActionPageUp        Action = "page_up"
	ActionPageDown      Action = "page_down"
	ActionTop           Action = "top"
	ActionBottom        Action = "bottom"
)

// GlobalKeyBindings work in both panes, so they avoid printable keys.
var GlobalKeyBindings = map[string]Action{
	"ctrl+c": ActionQuit,
	"tab":    ActionSwitchPane,
	"ctrl+s": ActionFormatNow,
	"ctrl+l": ActionClear,
	"ctrl+y": ActionCopy,
}

// OutputKeyBindings apply while the output pane has focus. Digits are
// handled separately as collapse levels.
var OutputKeyBindings = map[string]Action{
	"q":      ActionQuit,
	"enter":  ActionToggle,
	"space":  ActionToggle,
	"j":      ActionDown,
	"down":   ActionDown,
	"k":      ActionUp,
	"up":     ActionUp,
	"pgdown": ActionPageDown,
	"pgup":   ActionPageUp,
	"g":      ActionTop,
	"home":   ActionTop,
	"G":      ActionBottom,
	"end":    ActionBottom,
	"f":      ActionFormatNow,
	"x":      ActionClear,
	"y":      ActionCopy,
	"m":      ActionMinify,
	"e":      ActionExpandAll,
	"c":      ActionCollapseAll,
}

// ActionFor resolves a key string as reported by tea.KeyPressMsg.String.
// The second result is the level for ActionCollapseLevel.
func ActionFor(key string, outputFocused bool) (Action, int) {
	if a, ok := GlobalKeyBindings[key]; ok {
		return a, 0
	}
	if !outputFocused {
		return ActionNone, 0
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return ActionCollapseLevel, int(key[0] - '0')
	}
	return OutputKeyBindings[key], 0
}
