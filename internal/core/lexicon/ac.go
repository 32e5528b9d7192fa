package lexicon

// matcher is a byte-level Aho-Corasick automaton. Patterns and text are space-delimited folded
// tokens with a leading and trailing space, so every match lands on token boundaries.
// Each node carries a dense 256-way transition table; the lexicon is small and lookups are hot.
type matcher struct {
	nodes []node
}

type node struct {
	next [256]int32
	fail int32
	out  []int // pattern ids ending here, including those reached through fail links
}

func newMatcher() *matcher {
	m := &matcher{}
	m.grow()
	return m
}

func (m *matcher) grow() int32 {
	var n node
	for i := range n.next {
		n.next[i] = -1
	}
	m.nodes = append(m.nodes, n)
	return int32(len(m.nodes) - 1)
}

func (m *matcher) add(pat string, id int) {
	if pat == "" {
		return
	}
	s := int32(0)
	for i := 0; i < len(pat); i++ {
		b := pat[i]
		nx := m.nodes[s].next[b]
		if nx < 0 {
			nx = m.grow()
			m.nodes[s].next[b] = nx
		}
		s = nx
	}
	m.nodes[s].out = append(m.nodes[s].out, id)
}

// build computes fail links breadth first and merges outputs along them
func (m *matcher) build() {
	queue := make([]int32, 0, len(m.nodes))
	for b := range 256 {
		if s := m.nodes[0].next[b]; s >= 0 {
			m.nodes[s].fail = 0
			queue = append(queue, s)
		}
	}
	for qi := 0; qi < len(queue); qi++ {
		r := queue[qi]
		for b := range 256 {
			s := m.nodes[r].next[b]
			if s < 0 {
				continue
			}
			queue = append(queue, s)
			f := m.nodes[r].fail
			for f != 0 && m.nodes[f].next[b] < 0 {
				f = m.nodes[f].fail
			}
			if nx := m.nodes[f].next[b]; nx >= 0 && nx != s {
				m.nodes[s].fail = nx
			}
			m.nodes[s].out = append(m.nodes[s].out, m.nodes[m.nodes[s].fail].out...)
		}
	}
}

// scan calls hit for every pattern occurrence in text, overlapping ones included
func (m *matcher) scan(text string, hit func(id int)) {
	s := int32(0)
	for i := 0; i < len(text); i++ {
		b := text[i]
		for s != 0 && m.nodes[s].next[b] < 0 {
			s = m.nodes[s].fail
		}
		if nx := m.nodes[s].next[b]; nx >= 0 {
			s = nx
		}
		for _, id := range m.nodes[s].out {
			hit(id)
		}
	}
}
