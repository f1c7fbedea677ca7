package gcode

// ModalGroup is the set of codes a word excludes from the rest of its block.
type ModalGroup byte

const (
	ModalGroupNone ModalGroup = iota
	ModalGroupNonModal
	ModalGroupMotion
	ModalGroupPlaneSelection
	ModalGroupDistanceMode
	ModalGroupUnits
	ModalGroupStopping
	ModalGroupTorch
	ModalGroupFeedRate
)

var commandGroups = map[Word]ModalGroup{
	{W: 'G', Arg: 0}: ModalGroupMotion,
	{W: 'G', Arg: 1}: ModalGroupMotion,
	{W: 'G', Arg: 2}: ModalGroupMotion,
	{W: 'G', Arg: 3}: ModalGroupMotion,

	{W: 'G', Arg: 4}:  ModalGroupNonModal,
	{W: 'G', Arg: 28}: ModalGroupNonModal,
	{W: 'G', Arg: 53}: ModalGroupNonModal,
	{W: 'G', Arg: 92}: ModalGroupNonModal,

	{W: 'G', Arg: 17}: ModalGroupPlaneSelection,
	{W: 'G', Arg: 18}: ModalGroupPlaneSelection,
	{W: 'G', Arg: 19}: ModalGroupPlaneSelection,

	{W: 'G', Arg: 90}: ModalGroupDistanceMode,
	{W: 'G', Arg: 91}: ModalGroupDistanceMode,

	{W: 'G', Arg: 20}: ModalGroupUnits,
	{W: 'G', Arg: 21}: ModalGroupUnits,

	{W: 'M', Arg: 0}:  ModalGroupStopping,
	{W: 'M', Arg: 1}:  ModalGroupStopping,
	{W: 'M', Arg: 2}:  ModalGroupStopping,
	{W: 'M', Arg: 30}: ModalGroupStopping,

	// torch on/off
	{W: 'M', Arg: 3}: ModalGroupTorch,
	{W: 'M', Arg: 5}: ModalGroupTorch,

	{W: 'M', Arg: 117}: ModalGroupNonModal,
	{W: 'M', Arg: 400}: ModalGroupNonModal,
}

func (w Word) ModalGroup() ModalGroup {
	if w.W == 'F' {
		return ModalGroupFeedRate
	}
	if !w.IsCommand() {
		return ModalGroupNone
	}
	return commandGroups[w]
}
