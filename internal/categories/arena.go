package categories

import "github.com/google/uuid"

// Arena maps every category id to its parent id (nil for roots).
type Arena map[uuid.UUID]*uuid.UUID

// WouldCycle reports whether making proposedParent the parent of categoryID
// closes a loop. The walk climbs from proposedParent and stops on a root, an
// unknown id, a revisit, or after len(a)+1 steps.
func (a Arena) WouldCycle(categoryID, proposedParent uuid.UUID) bool {
	visited := make(map[uuid.UUID]struct{}, len(a))
	current := proposedParent
	for steps := 0; steps <= len(a); steps++ {
		if current == categoryID {
			return true
		}
		if _, seen := visited[current]; seen {
			// an existing loop that does not pass through categoryID
			return false
		}
		visited[current] = struct{}{}

		parent, ok := a[current]
		if !ok || parent == nil {
			return false
		}
		current = *parent
	}
	return true
}
