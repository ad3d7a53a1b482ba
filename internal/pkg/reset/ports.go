package reset

// Direction distinguishes the two independent port lists.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// PortDiffer keeps the last observed attached/detached boolean per port
// index and direction. Identity during a session is positional, an index
// keeps meaning "the same port" for as long as the host keeps it at that
// ordinal, names are only ever used as an attached test (non-empty means
// attached, which also absorbs transient enumeration failures as
// "not attached").
type PortDiffer struct {
	// count and name wrap the host enumeration capabilities
	count func(dir Direction) int
	name  func(dir Direction, index int) string

	inputs  []bool
	outputs []bool
	ready   bool
}

func NewPortDiffer(count func(Direction) int, name func(Direction, int) string) *PortDiffer {
	return &PortDiffer{
		count: count,
		name:  name,
	}
}

// Ready reports whether the baseline snapshots exist yet.
func (p *PortDiffer) Ready() bool {
	return p.ready
}

// EnsureBaseline builds both snapshots from the current state without
// reporting anything as changed. Called lazily because the host enumeration
// may not be queryable at the plugin load instant, a negative count means
// "not yet" and leaves the differ unprimed.
func (p *PortDiffer) EnsureBaseline() {
	if p.ready {
		return
	}
	if p.count(Input) < 0 || p.count(Output) < 0 {
		return
	}
	p.inputs = p.rebuild(Input)
	p.outputs = p.rebuild(Output)
	p.ready = true
}

func (p *PortDiffer) rebuild(dir Direction) []bool {
	n := p.count(dir)
	snapshot := make([]bool, n)
	for i := 0; i < n; i++ {
		snapshot[i] = p.name(dir, i) != ""
	}
	return snapshot
}

// Refresh re-queries the current port list for one direction and returns the
// indices whose attached state flipped since the previous observation,
// updating the snapshot in place. Indices beyond the previous snapshot
// length are appended, a shrunk count truncates without reporting the cut
// tail. The very first call only establishes the baseline and reports
// nothing.
func (p *PortDiffer) Refresh(dir Direction) []int {
	if !p.ready {
		p.EnsureBaseline()
		return nil
	}

	snapshot := p.snapshot(dir)
	n := p.count(dir)
	if n < 0 {
		return nil
	}

	var changed []int
	for i := 0; i < n; i++ {
		attached := p.name(dir, i) != ""
		if i >= len(*snapshot) {
			*snapshot = append(*snapshot, attached)
			if attached {
				changed = append(changed, i)
			}
			continue
		}
		if (*snapshot)[i] != attached {
			(*snapshot)[i] = attached
			changed = append(changed, i)
		}
	}
	if n < len(*snapshot) {
		*snapshot = (*snapshot)[:n]
	}
	return changed
}

func (p *PortDiffer) snapshot(dir Direction) *[]bool {
	if dir == Input {
		return &p.inputs
	}
	return &p.outputs
}
