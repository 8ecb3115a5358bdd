// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/welloo6/shadowsocks-ipset/bdd"
)

// magic identifies the stream format; padded to 8 bytes as spec.md §4.6
// requires.
var magic = [8]byte{'I', 'P', ' ', 's', 'e', 't', 0, 0}

const formatVersion uint16 = 1

const (
	tagTerminal    = 0
	tagNonterminal = 1
)

// saveRoot writes root (and every node it reaches) in reverse topological
// order: children are always written, and therefore assigned an ordinal
// (their position in the stream), before the parent that references them.
// A nonterminal's low/high fields on disk are the ordinals of its
// children, never raw in-memory node ids, so the stream is self-contained
// and independent of whatever ids the loading process happens to allocate.
func saveRoot(w io.Writer, engine *bdd.BDD, root bdd.Node) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return wrapIO(err)
	}
	if err := binary.Write(bw, binary.BigEndian, formatVersion); err != nil {
		return wrapIO(err)
	}
	order := engine.ReachableNodes(root)
	// Node is an opaque *int alias and retnode mints a fresh pointer per
	// call, so two Nodes denoting the same underlying id are never ==;
	// the ordinal table has to be keyed by the dereferenced id instead.
	ordinal := make(map[int]uint64, len(order))
	for i, n := range order {
		ordinal[*n] = uint64(i)
	}
	if err := binary.Write(bw, binary.BigEndian, uint64(len(order))); err != nil {
		return wrapIO(err)
	}
	if err := binary.Write(bw, binary.BigEndian, ordinal[*root]); err != nil {
		return wrapIO(err)
	}
	for _, n := range order {
		level, low, high, isTerm, value := engine.Describe(n)
		if isTerm {
			if err := bw.WriteByte(tagTerminal); err != nil {
				return wrapIO(err)
			}
			if err := binary.Write(bw, binary.BigEndian, value); err != nil {
				return wrapIO(err)
			}
			continue
		}
		if err := bw.WriteByte(tagNonterminal); err != nil {
			return wrapIO(err)
		}
		if err := binary.Write(bw, binary.BigEndian, uint32(level)); err != nil {
			return wrapIO(err)
		}
		if err := binary.Write(bw, binary.BigEndian, ordinal[*low]); err != nil {
			return wrapIO(err)
		}
		if err := binary.Write(bw, binary.BigEndian, ordinal[*high]); err != nil {
			return wrapIO(err)
		}
	}
	return wrapIO(bw.Flush())
}

// loadRoot is saveRoot's inverse: it reads the node stream in order (which
// is already reverse topological, so every child's ordinal is known by the
// time its parent is read) and rebuilds each node through the engine's own
// constructors, so the result is fully canonicalized and shares structure
// with anything else already built on engine.
func loadRoot(r io.Reader, engine *bdd.BDD) (bdd.Node, error) {
	br := bufio.NewReader(r)
	var gotMagic [8]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, wrapFormat(err)
	}
	if gotMagic != magic {
		return nil, ErrBadFormat
	}
	var version uint16
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		return nil, wrapFormat(err)
	}
	if version != formatVersion {
		return nil, ErrBadFormat
	}
	var count uint64
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		return nil, wrapFormat(err)
	}
	var rootOrdinal uint64
	if err := binary.Read(br, binary.BigEndian, &rootOrdinal); err != nil {
		return nil, wrapFormat(err)
	}
	if rootOrdinal >= count {
		return nil, ErrBadFormat
	}
	built := make([]bdd.Node, count)
	for i := uint64(0); i < count; i++ {
		tag, err := br.ReadByte()
		if err != nil {
			return nil, wrapFormat(err)
		}
		switch tag {
		case tagTerminal:
			var value int64
			if err := binary.Read(br, binary.BigEndian, &value); err != nil {
				return nil, wrapFormat(err)
			}
			n, err := engine.Terminal(value)
			if err != nil {
				return nil, errors.Wrap(ErrOutOfMemory, err.Error())
			}
			built[i] = n
		case tagNonterminal:
			var level uint32
			var low, high uint64
			if err := binary.Read(br, binary.BigEndian, &level); err != nil {
				return nil, wrapFormat(err)
			}
			if err := binary.Read(br, binary.BigEndian, &low); err != nil {
				return nil, wrapFormat(err)
			}
			if err := binary.Read(br, binary.BigEndian, &high); err != nil {
				return nil, wrapFormat(err)
			}
			if low >= i || high >= i {
				return nil, ErrBadFormat
			}
			n, err := engine.MakeNode(int(level), built[low], built[high])
			if err != nil {
				return nil, errors.Wrap(ErrOutOfMemory, err.Error())
			}
			built[i] = n
		default:
			return nil, ErrBadFormat
		}
	}
	return built[rootOrdinal], nil
}

func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(ErrIO, err.Error())
}

func wrapFormat(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrap(ErrIO, err.Error())
	}
	return errors.Wrap(ErrBadFormat, err.Error())
}

// Save writes s in the binary format spec.md §4.6 describes.
func (s *Set) Save(w io.Writer) error {
	return saveRoot(w, s.engine.bdd, s.root)
}

// Load reads a Set previously written by Save, attaching it to the
// package-level DefaultEngine.
func Load(r io.Reader) (*Set, error) {
	e, err := DefaultEngine()
	if err != nil {
		return nil, err
	}
	return LoadWithEngine(r, e)
}

// LoadWithEngine reads a Set previously written by Save, attaching it to e.
func LoadWithEngine(r io.Reader, e *Engine) (*Set, error) {
	root, err := loadRoot(r, e.bdd)
	if err != nil {
		return nil, err
	}
	return &Set{engine: e, root: root}, nil
}

// Save writes m in the binary format spec.md §4.6 describes.
func (m *Map) Save(w io.Writer) error {
	return saveRoot(w, m.engine.bdd, m.root)
}

// LoadMap reads a Map previously written by Save, attaching it to the
// package-level DefaultEngine. defaultValue should match the value the map
// was created with; it is stored on the returned Map, and no Map method
// reads it (lookups use the loaded diagram alone).
func LoadMap(r io.Reader, defaultValue int64) (*Map, error) {
	e, err := DefaultEngine()
	if err != nil {
		return nil, err
	}
	return LoadMapWithEngine(r, e, defaultValue)
}

func LoadMapWithEngine(r io.Reader, e *Engine, defaultValue int64) (*Map, error) {
	root, err := loadRoot(r, e.bdd)
	if err != nil {
		return nil, err
	}
	return &Map{engine: e, root: root, defaultValue: defaultValue}, nil
}
