package coverage

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
)

// Fingerprint is the deduplication key of the fuzz loop: a pure,
// process-independent hash of a Traces value. hash/maphash is deliberately
// avoided here, since its per-process random seed would break determinism
// across runs and test processes; fnv-1a over a canonical encoding does not
// have that problem.
type Fingerprint uint64

// Resultprint is the reducer's sole equivalence predicate: a hash of
// (Statuses, stdouts-all-equal-bit) under output-differential mode, or just
// hash(Statuses) otherwise.
type Resultprint uint64

// boundary separates one target's encoded trace from the next so that, e.g.,
// traces [{1,2}, {}] and [{1}, {2}] never collide on their concatenated byte
// encoding.
const boundary uint64 = 0xffffffffffffffff

func newHasher() *fnvState {
	return &fnvState{h: fnv.New64a(), buf: make([]byte, 8)}
}

type fnvState struct {
	h   hash.Hash64
	buf []byte
}

func (f *fnvState) writeUint64(v uint64) {
	binary.LittleEndian.PutUint64(f.buf, v)
	_, _ = f.h.Write(f.buf)
}

func (f *fnvState) writeInt(v int) {
	f.writeUint64(uint64(int64(v)))
}

func (f *fnvState) writeBytes(b []byte) {
	f.writeUint64(uint64(len(b)))
	_, _ = f.h.Write(b)
}

func (f *fnvState) sum() uint64 {
	return f.h.Sum64()
}

// FingerprintOf hashes a Traces value. Different target orderings, or
// different edge-sets at any position, yield different fingerprints.
func FingerprintOf(traces Traces) Fingerprint {
	f := newHasher()
	for _, t := range traces {
		ids := t.Sorted()
		f.writeUint64(uint64(len(ids)))
		for _, id := range ids {
			f.writeInt(id)
		}
		f.writeUint64(boundary)
	}
	return Fingerprint(f.sum())
}

// ResultprintOf hashes (statuses, stdouts) per the output-differential
// configuration. Statuses must already be normalized by the caller (see
// NormalizeStatuses).
func ResultprintOf(statuses Statuses, stdouts Stdouts, outputDifferentialsMatter bool) Resultprint {
	f := newHasher()
	f.writeUint64(uint64(len(statuses)))
	for _, s := range statuses {
		f.writeInt(s)
	}
	if outputDifferentialsMatter {
		if stdouts.AllEqual() {
			f.writeUint64(1)
		} else {
			f.writeUint64(0)
		}
	}
	return Resultprint(f.sum())
}

// IsDifferential reports whether the observed statuses/stdouts diverge
// across targets. Per spec.md 4.H: non-singleton statuses OR (when output
// differentials matter) non-singleton stdouts.
func IsDifferential(statuses Statuses, stdouts Stdouts, outputDifferentialsMatter bool) bool {
	if !statuses.Unique() {
		return true
	}
	if outputDifferentialsMatter && !stdouts.AllEqual() {
		return true
	}
	return false
}

// IsExitDifferential reports whether the statuses alone diverge; exit
// differentials take precedence over output differentials when both hold
// (per spec.md 4.H step 2.b).
func IsExitDifferential(statuses Statuses) bool {
	return !statuses.Unique()
}

// HashUint64s hashes a sequence of uint64 values deterministically. Exported
// for use by pkg/classify, which hashes a matrix of per-cell hashes into one
// bugprint using the same primitive.
func HashUint64s(vals []uint64) uint64 {
	f := newHasher()
	for _, v := range vals {
		f.writeUint64(v)
	}
	return f.sum()
}

// HashTrace hashes a single Trace's sorted contents. Used by the classifier
// for DifferenceProfile cells.
func HashTrace(t Trace) uint64 {
	f := newHasher()
	for _, id := range t.Sorted() {
		f.writeInt(id)
	}
	return f.sum()
}
