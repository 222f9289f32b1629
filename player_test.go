package rebinded

import (
	"testing"
	"time"
)

func TestTargetSelector_PrefersPlaying(t *testing.T) {
	s := NewTargetSelector()
	candidates := []PlayerCandidate{
		{ServiceName: "org.mpris.MediaPlayer2.a", Status: StatusPaused},
		{ServiceName: "org.mpris.MediaPlayer2.b", Status: StatusPlaying},
	}
	got, ok := s.Select(candidates, WindowInfo{}, time.Now())
	if !ok || got.ServiceName != "org.mpris.MediaPlayer2.b" {
		t.Fatalf("expected playing candidate to win, got %+v", got)
	}
}

func TestTargetSelector_WindowMatchBeatsLastPlaying(t *testing.T) {
	s := NewTargetSelector()
	now := time.Now()
	s.RecordPlaying("org.mpris.MediaPlayer2.a", now.Add(-time.Minute))

	candidates := []PlayerCandidate{
		{ServiceName: "org.mpris.MediaPlayer2.a", Identity: "Spotify", Status: StatusPaused},
		{ServiceName: "org.mpris.MediaPlayer2.b", Identity: "firefox", Status: StatusPaused},
	}
	got, ok := s.Select(candidates, WindowInfo{Class: "firefox"}, now)
	if !ok || got.ServiceName != "org.mpris.MediaPlayer2.b" {
		t.Fatalf("expected window-matching candidate to win, got %+v", got)
	}
}

func TestTargetSelector_ProcessFamilyStripsSuffix(t *testing.T) {
	c := PlayerCandidate{ServiceName: "spotify", Identity: "Spotify"}
	if !processFamilyMatches("spotify-bin", c) {
		t.Fatal("expected -bin suffix to be stripped for process-family match")
	}
}

func TestTargetSelector_FocusExpiresAfterTenMinutes(t *testing.T) {
	s := NewTargetSelector()
	now := time.Now()
	s.RecordFocus("org.mpris.MediaPlayer2.a", now.Add(-20*time.Minute))
	s.RecordPlaying("org.mpris.MediaPlayer2.b", now.Add(-time.Hour))

	candidates := []PlayerCandidate{
		{ServiceName: "org.mpris.MediaPlayer2.a"},
		{ServiceName: "org.mpris.MediaPlayer2.b"},
	}
	got, ok := s.Select(candidates, WindowInfo{}, now)
	if !ok || got.ServiceName != "org.mpris.MediaPlayer2.b" {
		t.Fatalf("expected expired focus to lose to last_playing record, got %+v", got)
	}
}

func TestTargetSelector_StableTiebreak(t *testing.T) {
	s := NewTargetSelector()
	candidates := []PlayerCandidate{
		{ServiceName: "org.mpris.MediaPlayer2.zzz"},
		{ServiceName: "org.mpris.MediaPlayer2.aaa"},
	}
	got, ok := s.Select(candidates, WindowInfo{}, time.Now())
	if !ok || got.ServiceName != "org.mpris.MediaPlayer2.aaa" {
		t.Fatalf("expected stable tiebreak by service name, got %+v", got)
	}
}
