package anchorindex

import (
	"bytes"
	"encoding/binary"

	"github.com/lanrat/extsort"
)

// flatEntry is one (key, count) pair from a Flat map, boxed as an
// extsort.SortType so the collected flat counts can be externally sorted
// into byte-lexicographic key order before being fed to the FST builder
// — a hard requirement of vellum.New, same shape as the teacher's QRank
// sort type in qrank.go.
type flatEntry struct {
	Key   string
	Count uint32
}

func (e flatEntry) ToBytes() []byte {
	buf := make([]byte, 0, len(e.Key)+binary.MaxVarintLen64+binary.MaxVarintLen32)
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(e.Key)))
	buf = append(buf, lenBuf[:n]...)
	buf = append(buf, e.Key...)
	var countBuf [binary.MaxVarintLen32]byte
	n = binary.PutUvarint(countBuf[:], uint64(e.Count))
	buf = append(buf, countBuf[:n]...)
	return buf
}

func flatEntryFromBytes(b []byte) extsort.SortType {
	keyLen, n := binary.Uvarint(b)
	b = b[n:]
	key := string(b[:keyLen])
	b = b[keyLen:]
	count, _ := binary.Uvarint(b)
	return flatEntry{Key: key, Count: uint32(count)}
}

func flatEntryLess(a, b extsort.SortType) bool {
	x, y := a.(flatEntry), b.(flatEntry)
	return bytes.Compare([]byte(x.Key), []byte(y.Key)) < 0
}
