package command

import "fmt"

type Type int

const (
	TypeNext Type = iota
	TypePrevious
	TypeGotoSlide
	TypeEndShow
	TypeCue
)

func (t Type) String() string {
	switch t {
	case TypeNext:
		return "next"
	case TypePrevious:
		return "previous"
	case TypeGotoSlide:
		return "goto_slide"
	case TypeEndShow:
		return "end_show"
	case TypeCue:
		return "cue"
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// Command is one navigation request. SlideIndex is only meaningful for
// TypeGotoSlide and Cue only for TypeCue.
type Command struct {
	Type       Type
	SlideIndex int
	Cue        string
}

func Next() Command { return Command{Type: TypeNext} }

func Previous() Command { return Command{Type: TypePrevious} }

func GotoSlide(n int) Command { return Command{Type: TypeGotoSlide, SlideIndex: n} }

func EndShow() Command { return Command{Type: TypeEndShow} }

func Cue(text string) Command { return Command{Type: TypeCue, Cue: text} }

func (c Command) String() string {
	switch c.Type {
	case TypeGotoSlide:
		return fmt.Sprintf("%s(%d)", c.Type, c.SlideIndex)
	case TypeCue:
		return fmt.Sprintf("%s(%q)", c.Type, c.Cue)
	}

	return c.Type.String()
}
