package domain

var levelTypes = []string{"위치", "공간", "가구", "층", "세부"}

// TypeForLevel returns the location type label for a level.
// Creation only ever produces levels 0..3; 세부 appears after a level repair.
func TypeForLevel(level int) string {
	if level < 0 || level >= len(levelTypes) {
		return "기타"
	}
	return levelTypes[level]
}

// LocationIndex answers tree queries over a flat location list.
type LocationIndex struct {
	byID     map[int]*Location
	children map[int][]int
}

// NewLocationIndex indexes locations by id and parent.
func NewLocationIndex(locations []*Location) *LocationIndex {
	idx := &LocationIndex{
		byID:     make(map[int]*Location, len(locations)),
		children: make(map[int][]int),
	}
	for _, l := range locations {
		idx.byID[l.ID] = l
		if l.ParentID != nil {
			idx.children[*l.ParentID] = append(idx.children[*l.ParentID], l.ID)
		}
	}
	return idx
}

// Get returns the location with id, or nil.
func (x *LocationIndex) Get(id int) *Location {
	return x.byID[id]
}

// Path returns names from the root down to id. Unknown ids give an empty path.
// Cycles are cut at the first repeated node.
func (x *LocationIndex) Path(id *int) []string {
	if id == nil {
		return []string{}
	}
	var rev []string
	seen := make(map[int]bool)
	for cur := x.byID[*id]; cur != nil && !seen[cur.ID]; {
		seen[cur.ID] = true
		rev = append(rev, cur.Name)
		if cur.ParentID == nil {
			break
		}
		cur = x.byID[*cur.ParentID]
	}
	path := make([]string, len(rev))
	for i, name := range rev {
		path[len(rev)-1-i] = name
	}
	return path
}

// Subtree returns id and every descendant id.
func (x *LocationIndex) Subtree(id int) map[int]bool {
	out := map[int]bool{id: true}
	queue := []int{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range x.children[cur] {
			if !out[c] {
				out[c] = true
				queue = append(queue, c)
			}
		}
	}
	return out
}

// ChildCount returns the number of direct children of id.
func (x *LocationIndex) ChildCount(id int) int {
	return len(x.children[id])
}

// Depth walks parents to compute a level. Missing parents end the walk; cycles stop at the first revisit.
func (x *LocationIndex) Depth(id int) int {
	level := 0
	seen := map[int]bool{}
	cur := x.byID[id]
	for cur != nil && cur.ParentID != nil && !seen[cur.ID] {
		seen[cur.ID] = true
		parent := x.byID[*cur.ParentID]
		if parent == nil {
			break
		}
		level++
		cur = parent
	}
	return level
}
