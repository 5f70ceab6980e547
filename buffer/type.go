// type.go defines the VA buffer types accepted by the driver.

package buffer

import (
	"fmt"
)

// Type is VABufferType.
type Type uint32

const (
	TypePictureParameter = Type(0)
	TypeIQMatrix         = Type(1)
	TypeBitPlane         = Type(2)
	TypeSliceGroupMap    = Type(3)
	TypeSliceParameter   = Type(4)
	TypeSliceData        = Type(5)
	TypeMacroblockParam  = Type(6)
	TypeResidualData     = Type(7)
	TypeDeblockingParam  = Type(8)
	TypeImage            = Type(9)
)

// IsSupported reports whether the decode path knows what to do with the type.
func (t Type) IsSupported() bool {
	switch t {
	case TypePictureParameter,
		TypeIQMatrix,
		TypeSliceParameter,
		TypeSliceData,
		TypeBitPlane,
		TypeImage:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	switch t {
	case TypePictureParameter:
		return "picture_parameter"
	case TypeIQMatrix:
		return "iq_matrix"
	case TypeBitPlane:
		return "bit_plane"
	case TypeSliceGroupMap:
		return "slice_group_map"
	case TypeSliceParameter:
		return "slice_parameter"
	case TypeSliceData:
		return "slice_data"
	case TypeMacroblockParam:
		return "macroblock_parameter"
	case TypeResidualData:
		return "residual_data"
	case TypeDeblockingParam:
		return "deblocking_parameter"
	case TypeImage:
		return "image"
	default:
		return fmt.Sprintf("<unexpected_%d>", uint32(t))
	}
}
