package ui

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
)

func TestActionFor(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		output    bool
		want      Action
		wantLevel int
	}{
		{name: "ctrl+c quits anywhere", key: "ctrl+c", want: ActionQuit},
		{name: "tab switches from input", key: "tab", want: ActionSwitchPane},
		{name: "ctrl+s formats from input", key: "ctrl+s", want: ActionFormatNow},
		{name: "letters type into input", key: "q", want: ActionNone},
		{name: "digits type into input", key: "2", want: ActionNone},
		{name: "q quits from output", key: "q", output: true, want: ActionQuit},
		{name: "space toggles", key: "space", output: true, want: ActionToggle},
		{name: "digit collapses to level", key: "2", output: true, want: ActionCollapseLevel, wantLevel: 2},
		{name: "zero is not a level", key: "0", output: true, want: ActionNone},
		{name: "G goes to bottom", key: "G", output: true, want: ActionBottom},
		{name: "unbound key", key: "z", output: true, want: ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, level := ActionFor(tt.key, tt.output)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestKeyStringsMatchBubbleTea(t *testing.T) {
	tests := []struct {
		msg  tea.KeyPressMsg
		want string
	}{
		{msg: tea.KeyPressMsg{Code: tea.KeyTab}, want: "tab"},
		{msg: tea.KeyPressMsg{Code: tea.KeyEnter}, want: "enter"},
		{msg: tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}, want: "ctrl+c"},
		{msg: tea.KeyPressMsg{Code: 'j', Text: "j"}, want: "j"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.msg.String())
		_, ok := GlobalKeyBindings[tt.want]
		_, okOut := OutputKeyBindings[tt.want]
		assert.True(t, ok || okOut, "%q should be bound", tt.want)
	}
}
