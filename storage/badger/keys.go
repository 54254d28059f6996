package badger

import (
	"encoding/binary"

	"github.com/poiesic/bares/core"
)

// Key prefixes for different data types
const (
	reviewPrefix      = "rev:"
	reviewPlacePrefix = "revplc:"
	reviewIDSeq       = "revseq"
	checkpointPrefix  = "chkpt:"
)

// placeSeparator terminates the place id inside an index key so that one
// place id can never be a prefix match for another.
const placeSeparator = 0x00

// makeReviewKey generates a key for a review by ID.
// The ID is big-endian so key order is ID order.
func makeReviewKey(id core.ID) []byte {
	buf := make([]byte, len(reviewPrefix)+8)
	offset := copy(buf, reviewPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialPlaceKey generates the index prefix for every review of a place.
// Format: prefix placeID 0x00
func makePartialPlaceKey(placeID string) []byte {
	buf := make([]byte, 0, len(reviewPlacePrefix)+len(placeID)+1)
	buf = append(buf, reviewPlacePrefix...)
	buf = append(buf, placeID...)
	return append(buf, placeSeparator)
}

// makePlaceKey generates a composite key for the place index.
// Format: prefix placeID 0x00 id
func makePlaceKey(placeID string, id core.ID) []byte {
	partial := makePartialPlaceKey(placeID)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCheckpointKey generates a key for operation checkpoints.
func makeCheckpointKey(operation string) []byte {
	return []byte(checkpointPrefix + operation)
}
