// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

// refs accumulates the ids produced so far by an in-flight recursive call.
// Passing it down to nonterminal/terminal lets a nested garbage collection
// see every intermediate result as a root, even though none of them has
// been wrapped in a Node (and thus reference-counted) yet.
type refs struct {
	ids []int
}

func (r *refs) push(id int) int {
	r.ids = append(r.ids, id)
	return id
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

// apply computes f op g, where f and g are both boolean-terminal (0/1)
// diagrams. Mirrors the teacher's apply/applyrec, generalized only in that
// node ids may now also denote integer-terminal diagrams elsewhere in the
// package (apply itself never sees those).
func (b *BDD) apply(op Operator, f, g int) (int, error) {
	b.Lock()
	defer b.Unlock()
	if b.err != nil {
		return -1, b.err
	}
	r := &refs{}
	res, err := b.applyrec(op, f, g, r)
	if err != nil {
		return -1, b.seterrorLocked("apply", err)
	}
	return res, nil
}

func (b *BDD) applyrec(op Operator, f, g int, r *refs) (int, error) {
	fterm, gterm := b.nt.isTerminal(f), b.nt.isTerminal(g)
	if fterm && gterm {
		return opres[op][b.nt.value(f)][b.nt.value(g)], nil
	}
	// All three operators are commutative: order the operands so the memo
	// key does not depend on argument order, then apply the short-circuits.
	if f > g {
		f, g = g, f
	}
	if f == g {
		if op == opXor {
			return 0, nil
		}
		return f, nil
	}
	if (op == opAnd && f == 0) || (op == opOr && f == 1) {
		return f, nil
	}
	if cached, ok := b.applycache.lookup(int(op), f, g); ok {
		return cached, nil
	}
	var level int32
	var lowf, highf, lowg, highg int
	lf, lg := levelOf(b.nt, f, fterm), levelOf(b.nt, g, gterm)
	level = min32(lf, lg)
	if !fterm && lf == level {
		lowf, highf = b.nt.low(f), b.nt.high(f)
	} else {
		lowf, highf = f, f
	}
	if !gterm && lg == level {
		lowg, highg = b.nt.low(g), b.nt.high(g)
	} else {
		lowg, highg = g, g
	}
	low, err := b.applyrec(op, lowf, lowg, r)
	if err != nil {
		return -1, err
	}
	r.push(low)
	high, err := b.applyrec(op, highf, highg, r)
	if err != nil {
		return -1, err
	}
	r.push(high)
	res, err := b.nt.nonterminal(level, low, high, r.ids)
	if err != nil {
		return -1, err
	}
	b.applycache.insert(int(op), f, g, res)
	return res, nil
}

func levelOf(nt *nodeTable, n int, term bool) int32 {
	if term {
		return levelTerminal
	}
	return nt.level(n)
}

// not computes the boolean complement of f.
func (b *BDD) not(f int) (int, error) {
	b.Lock()
	defer b.Unlock()
	if b.err != nil {
		return -1, b.err
	}
	r := &refs{}
	res, err := b.notrec(f, r)
	if err != nil {
		return -1, b.seterrorLocked("not", err)
	}
	return res, nil
}

func (b *BDD) notrec(f int, r *refs) (int, error) {
	if b.nt.isTerminal(f) {
		v := b.nt.value(f)
		if v == 0 {
			return 1, nil
		}
		return 0, nil
	}
	if cached, ok := b.notcache.lookup(f); ok {
		return cached, nil
	}
	low, err := b.notrec(b.nt.low(f), r)
	if err != nil {
		return -1, err
	}
	r.push(low)
	high, err := b.notrec(b.nt.high(f), r)
	if err != nil {
		return -1, err
	}
	r.push(high)
	res, err := b.nt.nonterminal(b.nt.level(f), low, high, r.ids)
	if err != nil {
		return -1, err
	}
	b.notcache.insert(f, res)
	return res, nil
}

// ite computes if-then-else(f, g, h): f selects, at each valuation, whether
// the result takes the value of g or of h. f must be boolean-terminal, but
// g and h may carry arbitrary integer terminals, which is how an IP map
// assigns values: the default diagram and an overriding prefix diagram are
// combined with Ite(selector, override, default).
func (b *BDD) ite(f, g, h int) (int, error) {
	b.Lock()
	defer b.Unlock()
	if b.err != nil {
		return -1, b.err
	}
	r := &refs{}
	res, err := b.iterec(f, g, h, r)
	if err != nil {
		return -1, b.seterrorLocked("ite", err)
	}
	return res, nil
}

func (b *BDD) iterec(f, g, h int, r *refs) (int, error) {
	if f == 1 {
		return g, nil
	}
	if f == 0 {
		return h, nil
	}
	if g == h {
		return g, nil
	}
	fterm := b.nt.isTerminal(f)
	gterm := b.nt.isTerminal(g)
	hterm := b.nt.isTerminal(h)
	if gterm && hterm && b.nt.value(g) == 1 && b.nt.value(h) == 0 {
		return f, nil
	}
	if gterm && hterm && b.nt.value(g) == 0 && b.nt.value(h) == 1 {
		return b.notrec(f, r)
	}
	if cached, ok := b.itecache.lookup(f, g, h); ok {
		return cached, nil
	}
	level := levelOf(b.nt, f, fterm)
	if lg := levelOf(b.nt, g, gterm); lg < level {
		level = lg
	}
	if lh := levelOf(b.nt, h, hterm); lh < level {
		level = lh
	}
	lowf, highf := iteBranch(b.nt, f, fterm, level)
	lowg, highg := iteBranch(b.nt, g, gterm, level)
	lowh, highh := iteBranch(b.nt, h, hterm, level)
	low, err := b.iterec(lowf, lowg, lowh, r)
	if err != nil {
		return -1, err
	}
	r.push(low)
	high, err := b.iterec(highf, highg, highh, r)
	if err != nil {
		return -1, err
	}
	r.push(high)
	res, err := b.nt.nonterminal(level, low, high, r.ids)
	if err != nil {
		return -1, err
	}
	b.itecache.insert(f, g, h, res)
	return res, nil
}

func iteBranch(nt *nodeTable, n int, term bool, level int32) (int, int) {
	if term || nt.level(n) != level {
		return n, n
	}
	return nt.low(n), nt.high(n)
}

// Assignment is one row of a satisfying-assignment enumeration: a sequence
// of {0, 1, -1} values per variable (in ascending level order), -1 meaning
// don't-care, paired with the terminal value reached.
type Assignment struct {
	Vars  []int8
	Value int64
}

// Allsat enumerates every path from f to a terminal, including paths to 0,
// compressing runs of don't-care variables the way the teacher's Allsat
// does, one Assignment per root-to-leaf path; callers filter on Value.
func (b *BDD) Allsat(f int, varnum int32) []Assignment {
	b.RLock()
	defer b.RUnlock()
	var out []Assignment
	path := make([]int8, varnum)
	for i := range path {
		path[i] = -1
	}
	b.allsatrec(f, 0, varnum, path, &out)
	return out
}

func (b *BDD) allsatrec(f int, depth, varnum int32, path []int8, out *[]Assignment) {
	if b.nt.isTerminal(f) {
		for v := depth; v < varnum; v++ {
			path[v] = -1
		}
		cp := make([]int8, len(path))
		copy(cp, path)
		*out = append(*out, Assignment{Vars: cp, Value: b.nt.value(f)})
		return
	}
	level := b.nt.level(f)
	for v := depth; v < level; v++ {
		path[v] = -1
	}
	path[level] = 0
	b.allsatrec(b.nt.low(f), level+1, varnum, path, out)
	path[level] = 1
	b.allsatrec(b.nt.high(f), level+1, varnum, path, out)
	path[level] = -1
}

// Eval follows f from its root to a terminal, choosing the high child
// whenever bits[level] == 1 and the low child otherwise, and returns the
// terminal's value. Used by map lookups, which need the value at one
// specific point rather than an enumeration of every satisfying path.
func (b *BDD) Eval(f int, bits []int8) int64 {
	b.RLock()
	defer b.RUnlock()
	for !b.nt.isTerminal(f) {
		level := b.nt.level(f)
		if bits[level] == 1 {
			f = b.nt.high(f)
		} else {
			f = b.nt.low(f)
		}
	}
	return b.nt.value(f)
}

// Reachable returns every node id reachable from roots exactly once, in
// reverse topological order (children before their parents) — the order
// the serializer writes nodes in, and the node count the serializer's
// header carries is simply len(Reachable(...)).
func (b *BDD) Reachable(roots ...int) []int {
	b.RLock()
	defer b.RUnlock()
	seen := make(map[int]bool)
	var order []int
	var visit func(int)
	visit = func(n int) {
		if seen[n] {
			return
		}
		seen[n] = true
		if !b.nt.isTerminal(n) {
			visit(b.nt.low(n))
			visit(b.nt.high(n))
		}
		order = append(order, n)
	}
	for _, r := range roots {
		visit(r)
	}
	return order
}
