package regpool

import (
	"github.com/xplshn/exprc/pkg/token"
	"github.com/xplshn/exprc/pkg/util"
)

// Pool tracks which scratch registers are free. Registers below the reserved
// count are bound to variables for the whole session and are never handed out.
type Pool struct {
	avail    []bool
	reserved int
}

func New(numRegs, reserved int) *Pool {
	p := &Pool{avail: make([]bool, numRegs), reserved: reserved}
	for i := range p.avail {
		p.avail[i] = true
	}
	return p
}

// Reserve hands out the lowest-numbered free scratch register.
func (p *Pool) Reserve() (int, error) {
	for i := p.reserved; i < len(p.avail); i++ {
		if p.avail[i] {
			p.avail[i] = false
			return i, nil
		}
	}
	return -1, util.NewError(util.ErrRegExhausted, token.Token{}, "all %d scratch registers are in use", len(p.avail)-p.reserved)
}

// Release marks register i free again. Out-of-range indices are ignored.
func (p *Pool) Release(i int) {
	if i >= 0 && i < len(p.avail) {
		p.avail[i] = true
	}
}

func (p *Pool) IsReserved(i int) bool { return i >= 0 && i < p.reserved }

// InUse counts scratch registers currently handed out.
func (p *Pool) InUse() int {
	n := 0
	for i := p.reserved; i < len(p.avail); i++ {
		if !p.avail[i] {
			n++
		}
	}
	return n
}
