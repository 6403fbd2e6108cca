package world

// SectorTracker quantizes the player position into integer sector
// coordinates. Population managers top up when the player crosses into a
// new sector instead of re-scanning every tick.
type SectorTracker struct {
	size    float64
	curX    int32
	curZ    int32
	started bool
	visited map[[2]int32]struct{}
}

func NewSectorTracker(size float64) *SectorTracker {
	if size <= 0 {
		size = 60
	}
	return &SectorTracker{size: size, visited: make(map[[2]int32]struct{})}
}

// Update returns true when the player entered a new sector this tick.
// The first call always reports entry.
func (s *SectorTracker) Update(x, z float64) bool {
	sx := int32(floorDiv(x, s.size))
	sz := int32(floorDiv(z, s.size))
	if s.started && sx == s.curX && sz == s.curZ {
		return false
	}
	s.started = true
	s.curX, s.curZ = sx, sz
	s.visited[[2]int32{sx, sz}] = struct{}{}
	return true
}

// Current returns the sector the player is in.
func (s *SectorTracker) Current() (int32, int32) {
	return s.curX, s.curZ
}

// VisitedCount returns how many distinct sectors were entered this run.
func (s *SectorTracker) VisitedCount() int {
	return len(s.visited)
}

// floorDiv rounds toward negative infinity so sector edges line up
// across the origin.
func floorDiv(v, size float64) float64 {
	q := v / size
	f := float64(int64(q))
	if q < 0 && q != f {
		f--
	}
	return f
}
