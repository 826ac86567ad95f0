package session

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/abhisek/cassini/internal/nav"
)

func ref(screen nav.ID, param string) nav.Ref { return nav.Ref{Screen: screen, Param: param} }

func checkInvariants(t *testing.T, s *Session, limit int) {
	t.Helper()
	if len(s.Stack) > limit {
		t.Fatalf("stack length %d > %d", len(s.Stack), limit)
	}
	if n := len(s.Stack); n > 0 && s.Stack[n-1].Equal(s.Current) {
		t.Fatalf("stack top equals current %+v", s.Current)
	}
}

func TestPushBoundsStack(t *testing.T) {
	s := New(1)
	for i := 0; i < 25; i++ {
		s.Push(ref(nav.ID(fmt.Sprintf("SCR_%d", i)), ""), DefaultStackLimit)
		checkInvariants(t, s, DefaultStackLimit)
	}
	if len(s.Stack) != 10 {
		t.Fatalf("len = %d", len(s.Stack))
	}
	if s.Stack[0].Screen != "SCR_14" || s.Stack[9].Screen != "SCR_23" {
		t.Errorf("oldest entries not dropped: %v", s.Stack)
	}
}

func TestPushSameScreen(t *testing.T) {
	s := New(1)
	s.Push(ref(nav.Hub, ""), 10)
	s.Push(ref(nav.Units, "BIO:Grade 10"), 10)
	s.Push(ref(nav.Units, "CHEM:Grade 10"), 10)
	if len(s.Stack) != 2 || s.Current.Param != "CHEM:Grade 10" {
		t.Errorf("stack = %v current = %v", s.Stack, s.Current)
	}
}

func TestPopAndHome(t *testing.T) {
	s := New(1)
	s.Push(ref(nav.Hub, ""), 10)
	s.Push(ref(nav.Subjects, ""), 10)

	top, ok := s.Pop()
	if !ok || top.Screen != nav.Hub {
		t.Fatalf("Pop = %v %v", top, ok)
	}
	s.Pop()
	if _, ok := s.Pop(); ok {
		t.Fatal("Pop on empty stack")
	}
	s.Home()
	if s.Current.Screen != nav.Home || len(s.Stack) != 0 {
		t.Errorf("after Home: %+v", s)
	}
}

func TestNormalizeDropsCurrentFromTop(t *testing.T) {
	s := &Session{
		Current: ref(nav.Hub, ""),
		Stack:   []nav.Ref{ref(nav.Stats, ""), ref(nav.Hub, ""), ref(nav.Hub, "")},
	}
	s.Normalize(10)
	if len(s.Stack) != 1 || s.Stack[0].Screen != nav.Stats {
		t.Errorf("stack = %v", s.Stack)
	}
}

func TestRandomWalkInvariants(t *testing.T) {
	screens := []nav.ID{nav.Hub, nav.Subjects, nav.Units, nav.Stats, nav.ReviewHub}
	r := rand.New(rand.NewPCG(1, 2))
	s := New(1)
	for i := 0; i < 500; i++ {
		switch r.IntN(3) {
		case 0:
			if top, ok := s.Pop(); ok {
				s.Replace(top, 10)
			} else {
				s.Home()
			}
		case 1:
			s.Replace(ref(screens[r.IntN(len(screens))], fmt.Sprint(r.IntN(2))), 10)
		default:
			s.Push(ref(screens[r.IntN(len(screens))], fmt.Sprint(r.IntN(2))), 10)
		}
		checkInvariants(t, s, 10)
	}
}

func TestLockerSerializesPerUser(t *testing.T) {
	l := NewLocker()
	var wg sync.WaitGroup
	var counts [2]int
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			unlock := l.Lock(user)
			defer unlock()
			counts[user]++
		}(int64(i % 2))
	}
	wg.Wait()
	if counts[0] != 100 || counts[1] != 100 {
		t.Errorf("counts = %v", counts)
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d after all unlocks", l.Len())
	}
}
