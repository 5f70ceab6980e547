// object.go defines the buffer object record.

package buffer

import (
	"github.com/rexxster/vdpau-driver/handle"
)

// Object is the record of a VA buffer.
//
// Data is non-nil iff the object is live and its length is always Size.
type Object struct {
	ID             handle.ID
	Context        handle.ID
	Type           Type
	ElementSize    uint32
	NumElements    uint32
	MaxNumElements uint32
	Size           uint64
	Data           []byte

	// MTime is bumped on every Map and every Unmap.
	MTime uint64
}

// Payload returns the bytes covered by the current element count.
func (obj *Object) Payload() []byte {
	n := uint64(obj.NumElements) * uint64(obj.ElementSize)
	if n > uint64(len(obj.Data)) {
		n = uint64(len(obj.Data))
	}
	return obj.Data[:n]
}
