package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{name: "next", cmd: Next(), want: "next"},
		{name: "previous", cmd: Previous(), want: "previous"},
		{name: "goto slide carries the index", cmd: GotoSlide(5), want: "goto_slide(5)"},
		{name: "end show", cmd: EndShow(), want: "end_show"},
		{name: "cue carries the text", cmd: Cue("cue open"), want: `cue("cue open")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}

	assert.Equal(t, Command{Type: TypeGotoSlide, SlideIndex: 2}, GotoSlide(2))
	assert.Equal(t, "Type(42)", Type(42).String())
}
