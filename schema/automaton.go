package schema

import (
	"sort"

	"github.com/pkg/errors"
)

// Limits protecting the compiler from pathological content models.
// Finite occurrence bounds are unrolled into repeated copies of the
// particle, so both need a ceiling.
const (
	maxOccursBound = 100
	maxPositions   = 512
)

// automaton is the compiled form of one element's content model. It is
// a Glushkov construction over the occurrence-expanded particle tree:
// every element reference occupies a position, follow links the
// positions that may appear next, and a running state is the set of
// positions the next child may match. The end marker occupies its own
// position; a state containing it accepts.
type automaton struct {
	size    int
	endPos  int
	symbols []string
	follow  []*bitset
	initial *bitset
}

func (a *automaton) start() *bitset {
	return a.initial.clone()
}

// step advances the state by one child element. It returns false when
// no current position matches name, leaving the state untouched so the
// caller can still report what was expected.
func (a *automaton) step(state *bitset, name string) bool {
	next := newBitset(a.size)
	matched := false
	state.forEach(func(pos int) {
		if pos != a.endPos && a.symbols[pos] == name {
			next.or(a.follow[pos])
			matched = true
		}
	})
	if !matched {
		return false
	}
	copy(state.words, next.words)
	return true
}

func (a *automaton) accepting(state *bitset) bool {
	return state.test(a.endPos)
}

// expected lists the element names that may appear in the given state,
// sorted for stable error messages. An accepting state also lists
// "end of element".
func (a *automaton) expected(state *bitset) []string {
	seen := make(map[string]struct{})
	var names []string
	state.forEach(func(pos int) {
		if pos == a.endPos {
			return
		}
		sym := a.symbols[pos]
		if _, ok := seen[sym]; ok {
			return
		}
		seen[sym] = struct{}{}
		names = append(names, sym)
	})
	sort.Strings(names)
	if state.test(a.endPos) {
		names = append(names, "end of element")
	}
	return names
}

// Syntax tree nodes for the Glushkov construction. first and last
// accumulate into the provided set rather than returning fresh ones.
type gnode interface {
	nullable() bool
	first(dst *bitset)
	last(dst *bitset)
}

type gleaf struct {
	pos int
}

func (n *gleaf) nullable() bool { return false }

func (n *gleaf) first(dst *bitset) { dst.set(n.pos) }

func (n *gleaf) last(dst *bitset) { dst.set(n.pos) }

type gseq struct {
	left  gnode
	right gnode
}

func (n *gseq) nullable() bool {
	return n.left.nullable() && n.right.nullable()
}

func (n *gseq) first(dst *bitset) {
	n.left.first(dst)
	if n.left.nullable() {
		n.right.first(dst)
	}
}

func (n *gseq) last(dst *bitset) {
	n.right.last(dst)
	if n.right.nullable() {
		n.left.last(dst)
	}
}

type galt struct {
	left  gnode
	right gnode
}

func (n *galt) nullable() bool {
	return n.left.nullable() || n.right.nullable()
}

func (n *galt) first(dst *bitset) {
	n.left.first(dst)
	n.right.first(dst)
}

func (n *galt) last(dst *bitset) {
	n.left.last(dst)
	n.right.last(dst)
}

type gopt struct {
	child gnode
}

func (n *gopt) nullable() bool { return true }

func (n *gopt) first(dst *bitset) { n.child.first(dst) }

func (n *gopt) last(dst *bitset) { n.child.last(dst) }

// grepeat is one-or-more. Zero-or-more is gopt over grepeat.
type grepeat struct {
	child gnode
}

func (n *grepeat) nullable() bool { return n.child.nullable() }

func (n *grepeat) first(dst *bitset) { n.child.first(dst) }

func (n *grepeat) last(dst *bitset) { n.child.last(dst) }

type modelBuilder struct {
	size    int
	next    int
	symbols []string
	follow  []*bitset
}

func (b *modelBuilder) leaf(sym string) *gleaf {
	pos := b.next
	b.next++
	b.symbols[pos] = sym
	return &gleaf{pos: pos}
}

// followpos wires the follow table: inside a sequence the last
// positions of the left side lead to the first positions of the right,
// and a repetition loops its last positions back to its first.
func (b *modelBuilder) followpos(n gnode) {
	switch n := n.(type) {
	case *gleaf:
	case *gseq:
		b.followpos(n.left)
		b.followpos(n.right)
		last := newBitset(b.size)
		n.left.last(last)
		first := newBitset(b.size)
		n.right.first(first)
		last.forEach(func(pos int) {
			b.follow[pos].or(first)
		})
	case *galt:
		b.followpos(n.left)
		b.followpos(n.right)
	case *gopt:
		b.followpos(n.child)
	case *grepeat:
		b.followpos(n.child)
		last := newBitset(b.size)
		n.child.last(last)
		first := newBitset(b.size)
		n.child.first(first)
		last.forEach(func(pos int) {
			b.follow[pos].or(first)
		})
	}
}

// build expands the particle's occurrence bounds into copies of its
// content: minOccurs mandatory copies, then optional ones up to a
// finite maxOccurs, or a trailing repetition when unbounded.
func (b *modelBuilder) build(p *Particle) (gnode, error) {
	total, err := countPositions(p)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	if p.Max == Unbounded {
		copies := 1
		if p.Min >= 2 {
			copies = p.Min
		}
		var root gnode
		for i := 0; i < copies; i++ {
			n, err := b.buildOnce(p)
			if err != nil {
				return nil, err
			}
			if i == copies-1 {
				n = &grepeat{child: n}
				if p.Min == 0 {
					n = &gopt{child: n}
				}
			}
			root = joinSeq(root, n)
		}
		return root, nil
	}

	var root gnode
	for i := 0; i < p.Max; i++ {
		n, err := b.buildOnce(p)
		if err != nil {
			return nil, err
		}
		if i >= p.Min {
			n = &gopt{child: n}
		}
		root = joinSeq(root, n)
	}
	return root, nil
}

// buildOnce builds a single copy of the particle's content, ignoring
// its own occurrence bounds.
func (b *modelBuilder) buildOnce(p *Particle) (gnode, error) {
	if p.Kind == ElementParticle {
		return b.leaf(p.Name), nil
	}
	var root gnode
	for _, c := range p.Children {
		n, err := b.build(c)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}
		if root == nil {
			root = n
			continue
		}
		if p.Kind == SequenceParticle {
			root = &gseq{left: root, right: n}
		} else {
			root = &galt{left: root, right: n}
		}
	}
	return root, nil
}

func joinSeq(left, right gnode) gnode {
	if left == nil {
		return right
	}
	return &gseq{left: left, right: right}
}

// countPositions computes how many leaf positions the occurrence
// expansion of p will create, validating the bounds along the way. It
// must agree exactly with what build allocates.
func countPositions(p *Particle) (int, error) {
	inner := 0
	if p.Kind == ElementParticle {
		inner = 1
	} else {
		for _, c := range p.Children {
			n, err := countPositions(c)
			if err != nil {
				return 0, err
			}
			inner += n
		}
	}
	copies, err := occurrenceCopies(p.Min, p.Max)
	if err != nil {
		return 0, err
	}
	return inner * copies, nil
}

func occurrenceCopies(min, max int) (int, error) {
	switch {
	case min < 0:
		return 0, errors.Errorf(`invalid minOccurs %d`, min)
	case max == Unbounded:
		if min > maxOccursBound {
			return 0, errors.Errorf(`minOccurs %d exceeds the supported limit of %d`, min, maxOccursBound)
		}
		if min < 2 {
			return 1, nil
		}
		return min, nil
	case max < 0:
		return 0, errors.Errorf(`invalid maxOccurs %d`, max)
	case max == 0:
		return 0, nil
	case min > max:
		return 0, errors.Errorf(`minOccurs %d exceeds maxOccurs %d`, min, max)
	case max > maxOccursBound:
		return 0, errors.Errorf(`maxOccurs %d exceeds the supported limit of %d`, max, maxOccursBound)
	default:
		return max, nil
	}
}

// compileModel turns a particle tree into a runnable automaton. The
// content is joined with an end marker so that acceptance is a plain
// membership test.
func compileModel(p *Particle) (*automaton, error) {
	total, err := countPositions(p)
	if err != nil {
		return nil, err
	}
	size := total + 1
	if size > maxPositions {
		return nil, errors.Errorf(`content model requires %d positions, limit is %d`, size, maxPositions)
	}

	b := &modelBuilder{
		size:    size,
		symbols: make([]string, size),
		follow:  make([]*bitset, size),
	}
	for i := range b.follow {
		b.follow[i] = newBitset(size)
	}

	content, err := b.build(p)
	if err != nil {
		return nil, err
	}
	end := b.leaf("")
	var root gnode = end
	if content != nil {
		root = &gseq{left: content, right: end}
	}
	b.followpos(root)

	initial := newBitset(size)
	root.first(initial)
	return &automaton{
		size:    size,
		endPos:  end.pos,
		symbols: b.symbols,
		follow:  b.follow,
		initial: initial,
	}, nil
}
