package application

// CreatePutWallCommand creates a wall with one slot per id, in order
type CreatePutWallCommand struct {
	SlotIDs  []string
	Location string
}
