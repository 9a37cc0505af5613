package xenon

import (
	"github.com/lestrrat-go/xenon/internal/stack"
	"github.com/pkg/errors"
)

type wfState int

const (
	wfOutsideRoot wfState = iota
	wfInElement
	wfAfterRoot
	wfError
)

type wfFrame struct {
	name QName
	pos  Position
}

// wellFormedness tracks document level structure: exactly one root
// element, properly nested and matching tags, and bounded depth.
type wellFormedness struct {
	state    wfState
	frames   *stack.Stack[wfFrame]
	maxDepth int
	sawRoot  bool
}

func newWellFormedness(maxDepth int) *wellFormedness {
	return &wellFormedness{
		state:    wfOutsideRoot,
		frames:   stack.New[wfFrame](8),
		maxDepth: maxDepth,
	}
}

func (wf *wellFormedness) depth() int {
	return wf.frames.Len()
}

func (wf *wellFormedness) startElement(name QName, pos Position) error {
	if wf.state == wfAfterRoot {
		wf.state = wfError
		return errors.Wrapf(ErrMultipleRootElements, "element '%s'", name)
	}
	if wf.frames.Len() >= wf.maxDepth {
		wf.state = wfError
		return errors.Wrapf(ErrNestingTooDeep, "depth exceeds %d", wf.maxDepth)
	}

	wf.frames.Push(wfFrame{name: name, pos: pos})
	wf.state = wfInElement
	wf.sawRoot = true
	return nil
}

// endElement matches the end tag literally against the open start tag:
// same prefix, same local name. A different prefix bound to the same
// URI does not close the element.
func (wf *wellFormedness) endElement(name QName) error {
	frame, ok := wf.frames.Pop()
	if !ok {
		wf.state = wfError
		if wf.sawRoot {
			return errors.Wrapf(ErrContentAfterRoot, "end tag '%s'", name)
		}
		return errors.Wrapf(ErrMismatchedTag, "unexpected end tag '%s'", name)
	}

	if frame.name.Prefix != name.Prefix || frame.name.Local != name.Local {
		wf.state = wfError
		return errors.Wrapf(ErrMismatchedTag,
			"expected '</%s>' (opened at %s) but got '</%s>'", frame.name, frame.pos, name)
	}

	if wf.frames.Len() == 0 {
		wf.state = wfAfterRoot
	}
	return nil
}

// content validates character data against the current state. Blank
// runs are tolerated outside the root element, anything else is not.
func (wf *wellFormedness) content(blank bool) error {
	switch wf.state {
	case wfInElement:
		return nil
	case wfAfterRoot:
		if blank {
			return nil
		}
		wf.state = wfError
		return ErrContentAfterRoot
	default:
		if blank {
			return nil
		}
		wf.state = wfError
		return ErrMissingRootElement
	}
}

func (wf *wellFormedness) eof() error {
	switch wf.state {
	case wfInElement:
		frame, _ := wf.frames.Peek()
		return errors.Wrapf(ErrPrematureEOF, "element '%s' (opened at %s) is not closed", frame.name, frame.pos)
	case wfOutsideRoot:
		return ErrMissingRootElement
	}
	return nil
}
