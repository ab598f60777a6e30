package sparql

import "ontomaint/internal/domain"

// insertBatches splits triples into INSERT DATA payloads of about size
// triples. A blank node label only identifies a node within one request, so
// triples connected through blank nodes always share a batch; such a group
// may exceed size. Triple order is kept within each group.
func insertBatches(triples []domain.Triple, size int) [][]domain.Triple {
	parent := make([]int, len(triples))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	owner := make(map[string]int)
	for i, t := range triples {
		for _, term := range [2]domain.Term{t.S, t.O} {
			if !term.IsBlank() {
				continue
			}
			label := term.NTriples()
			j, ok := owner[label]
			if !ok {
				owner[label] = i
				continue
			}
			if ri, rj := find(i), find(j); ri != rj {
				parent[ri] = rj
			}
		}
	}

	groupOf := make(map[int]int)
	var groups [][]domain.Triple
	for i, t := range triples {
		root := find(i)
		g, ok := groupOf[root]
		if !ok {
			g = len(groups)
			groupOf[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], t)
	}

	var out [][]domain.Triple
	var cur []domain.Triple
	for _, g := range groups {
		if len(cur) > 0 && len(cur)+len(g) > size {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, g...)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
