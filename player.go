package rebinded

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// PlaybackStatus is an MPRIS player's reported transport state.
type PlaybackStatus int

const (
	StatusStopped PlaybackStatus = iota
	StatusPaused
	StatusPlaying
)

// PlayerCandidate is one MPRIS-capable player the Target Selector knows
// about at selection time.
type PlayerCandidate struct {
	ServiceName string
	Identity    string
	Status      PlaybackStatus
}

const focusExpiry = 10 * time.Minute

// TargetSelector picks which of several available MPRIS players a single
// media command should be delivered to, per the priority chain: playing
// state, window match, process-family match, recent focus, most recent
// play history, and finally a stable tiebreak.
type TargetSelector struct {
	mu          sync.Mutex
	lastFocused map[string]time.Time
	lastPlaying map[string]time.Time
}

// NewTargetSelector builds an empty TargetSelector; its historical maps
// are populated over time by RecordFocus and RecordPlaying as the daemon
// runs, typically driven by a background poller (see
// MPRISBackend.PollLoop).
func NewTargetSelector() *TargetSelector {
	return &TargetSelector{
		lastFocused: make(map[string]time.Time),
		lastPlaying: make(map[string]time.Time),
	}
}

// RecordFocus stamps candidateName as having been associated with the
// focused window at time t.
func (s *TargetSelector) RecordFocus(candidateName string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFocused[candidateName] = t
}

// RecordPlaying stamps candidateName as having been observed playing at
// time t. Unlike focus history this entry never expires.
func (s *TargetSelector) RecordPlaying(candidateName string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPlaying[candidateName] = t
}

// Select picks the candidate a media command should be routed to, given
// the set of currently available players and the window currently
// focused. It returns false if candidates is empty.
func (s *TargetSelector) Select(candidates []PlayerCandidate, window WindowInfo, now time.Time) (PlayerCandidate, bool) {
	if len(candidates) == 0 {
		return PlayerCandidate{}, false
	}

	s.mu.Lock()
	lastFocused := make(map[string]time.Time, len(s.lastFocused))
	for k, v := range s.lastFocused {
		lastFocused[k] = v
	}
	lastPlaying := make(map[string]time.Time, len(s.lastPlaying))
	for k, v := range s.lastPlaying {
		lastPlaying[k] = v
	}
	s.mu.Unlock()

	best := candidates[0]
	bestRank := rankCandidate(best, window, lastFocused, lastPlaying, now)
	for _, c := range candidates[1:] {
		r := rankCandidate(c, window, lastFocused, lastPlaying, now)
		if compareRank(r, bestRank) > 0 {
			best, bestRank = c, r
		} else if compareRank(r, bestRank) == 0 && c.ServiceName < best.ServiceName {
			// Stable tiebreak by service_name when every other level ties.
			best, bestRank = c, r
		}
	}
	return best, true
}

// candidateRank captures the ordered priority levels so candidates can be
// compared level by level, higher first, exactly as spec'd.
type candidateRank struct {
	isPlaying        bool
	windowMatch      bool
	processFamily    bool
	focusedRecently  time.Time
	hasFocused       bool
	lastPlayingTime  time.Time
	hasPlayingRecord bool
}

func rankCandidate(c PlayerCandidate, w WindowInfo, lastFocused, lastPlaying map[string]time.Time, now time.Time) candidateRank {
	r := candidateRank{isPlaying: c.Status == StatusPlaying}
	r.windowMatch = windowMatchesCandidate(w, c)
	r.processFamily = processFamilyMatches(w.Binary, c)

	if t, ok := lastFocused[c.ServiceName]; ok && now.Sub(t) < focusExpiry {
		r.hasFocused = true
		r.focusedRecently = t
	} else if t, ok := lastFocused[c.Identity]; ok && now.Sub(t) < focusExpiry {
		r.hasFocused = true
		r.focusedRecently = t
	}

	if t, ok := lastPlaying[c.ServiceName]; ok {
		r.hasPlayingRecord = true
		r.lastPlayingTime = t
	} else if t, ok := lastPlaying[c.Identity]; ok {
		r.hasPlayingRecord = true
		r.lastPlayingTime = t
	}
	return r
}

// compareRank returns >0 if a outranks b, <0 if b outranks a, 0 if tied
// through every level (the caller breaks remaining ties by service name).
func compareRank(a, b candidateRank) int {
	if a.isPlaying != b.isPlaying {
		return boolCompare(a.isPlaying, b.isPlaying)
	}
	if a.windowMatch != b.windowMatch {
		return boolCompare(a.windowMatch, b.windowMatch)
	}
	if a.processFamily != b.processFamily {
		return boolCompare(a.processFamily, b.processFamily)
	}
	if a.hasFocused != b.hasFocused {
		return boolCompare(a.hasFocused, b.hasFocused)
	}
	if a.hasFocused && b.hasFocused && !a.focusedRecently.Equal(b.focusedRecently) {
		if a.focusedRecently.After(b.focusedRecently) {
			return 1
		}
		return -1
	}
	if a.hasPlayingRecord != b.hasPlayingRecord {
		return boolCompare(a.hasPlayingRecord, b.hasPlayingRecord)
	}
	if a.hasPlayingRecord && b.hasPlayingRecord && !a.lastPlayingTime.Equal(b.lastPlayingTime) {
		if a.lastPlayingTime.After(b.lastPlayingTime) {
			return 1
		}
		return -1
	}
	return 0
}

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

func windowMatchesCandidate(w WindowInfo, c PlayerCandidate) bool {
	if c.ServiceName == "" && c.Identity == "" {
		return false
	}
	hay := []string{strings.ToLower(w.Binary), strings.ToLower(w.Class)}
	needles := []string{strings.ToLower(c.ServiceName), strings.ToLower(c.Identity)}
	for _, h := range hay {
		if h == "" {
			continue
		}
		for _, n := range needles {
			if n == "" {
				continue
			}
			if strings.Contains(h, n) || strings.Contains(n, h) {
				return true
			}
		}
	}
	return false
}

var processFamilySuffixes = []string{"-bin", "-browser", "-stable"}

func stripFamilySuffix(name string) string {
	lower := strings.ToLower(name)
	for _, suf := range processFamilySuffixes {
		lower = strings.TrimSuffix(lower, suf)
	}
	return lower
}

func processFamilyMatches(binary string, c PlayerCandidate) bool {
	if binary == "" {
		return false
	}
	b := stripFamilySuffix(binary)
	for _, candidateName := range []string{c.ServiceName, c.Identity} {
		if candidateName == "" {
			continue
		}
		cn := stripFamilySuffix(candidateName)
		if b == cn || strings.HasPrefix(b, cn) || strings.HasPrefix(cn, b) {
			return true
		}
	}
	return false
}

// sortCandidatesStable orders candidates by service name, giving a
// deterministic ordering independent of map iteration. Nothing in the
// package calls it at present.
func sortCandidatesStable(cs []PlayerCandidate) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ServiceName < cs[j].ServiceName })
}
