package arp

import "go-arpquant/dsp"

// Kind selects the traversal order of a Pattern.
type Kind int

const (
	Ascending Kind = iota
	Descending
	AscendingDescending
	DescendingAscending

	KindCount = 4
)

var kindNames = [KindCount]string{"Ascending", "Descending", "Asc-Desc", "Desc-Asc"}

// KindFromInt maps a selector value to a Kind, defaulting to Ascending.
func KindFromInt(v int) Kind {
	if v < 0 || v >= KindCount {
		return Ascending
	}
	return Kind(v)
}

func (k Kind) String() string {
	if k < 0 || k >= KindCount {
		return kindNames[Ascending]
	}
	return kindNames[k]
}

// Pattern walks indices of a pitch set. One value covers all four kinds;
// the bidirectional kinds derive the index from a monotonically increasing
// position with a triangular fold instead of tracking direction.
//
// The zero value behaves as a finished Ascending pattern over one pitch.
type Pattern struct {
	kind Kind
	pos  int
	n    int
	mag  int // index of the last pitch
	end  int // position at which a bidirectional cycle is finished
}

// Init starts a new cycle over n pitches. n below 1 is treated as 1 and a
// negative offset as 0.
func (p *Pattern) Init(kind Kind, n, offset int, repeatEnds bool) {
	if n < 1 {
		n = 1
	}
	if offset < 0 {
		offset = 0
	}
	*p = Pattern{kind: KindFromInt(int(kind)), n: n, mag: n - 1}

	switch p.kind {
	case Ascending:
		p.pos = offset % n
	case Descending:
		p.pos = n - 1 - offset%n
	default:
		p.end = 2*p.mag - 1
		if p.end < 1 {
			p.end = 1
		}
		p.pos = offset
		if offset > p.end {
			p.end = offset
		} else if offset > 0 {
			p.end++
		}
		if repeatEnds {
			p.end++
		}
	}
}

// Advance moves one step.
func (p *Pattern) Advance() {
	if p.kind == Descending {
		p.pos--
		return
	}
	p.pos++
}

// Index returns the pitch set index for the current step.
func (p *Pattern) Index() int {
	n := p.n
	if n < 1 {
		n = 1
	}
	switch p.kind {
	case AscendingDescending:
		return dsp.AbsInt((p.mag - dsp.AbsInt(p.mag-p.pos)) % n)
	case DescendingAscending:
		return dsp.AbsInt(dsp.AbsInt(p.mag-p.pos) % n)
	default:
		return p.pos
	}
}

// Finished reports whether the current step is the last of the cycle.
func (p *Pattern) Finished() bool {
	switch p.kind {
	case Ascending:
		return p.pos >= p.n-1
	case Descending:
		return p.pos == 0
	default:
		return p.pos == p.end
	}
}

func (p *Pattern) Kind() Kind    { return p.kind }
func (p *Pattern) Position() int { return p.pos }

// Len is the number of pitches the cycle walks.
func (p *Pattern) Len() int {
	if p.n < 1 {
		return 1
	}
	return p.n
}
