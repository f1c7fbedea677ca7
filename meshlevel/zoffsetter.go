package meshlevel

// ZOffsetter reports the surface height offset at x,y, if known.
type ZOffsetter interface {
	OffsetZ(x, y float64) (bool, float64)
}

// ZOffsetFunc adapts a function to a ZOffsetter.
type ZOffsetFunc func(x, y float64) (bool, float64)

func (fn ZOffsetFunc) OffsetZ(x, y float64) (bool, float64) { return fn(x, y) }

// None never reports an offset.
var None ZOffsetter = ZOffsetFunc(func(x, y float64) (bool, float64) { return false, 0 })
