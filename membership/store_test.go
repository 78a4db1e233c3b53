package membership

import "testing"

func TestStoreStartsEmpty(t *testing.T) {
	s := NewStore()
	if want, have := 0, s.Current().Len(); want != have {
		t.Fatalf("want %d, have %d", want, have)
	}
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	s.Replace(NewPeerSet("a@1", "b@2"))
	if want, have := true, s.Current().Equal(NewPeerSet("a@1", "b@2")); want != have {
		t.Fatalf("have %v", s.Current().Slice())
	}
	s.Replace(NewPeerSet("c@3"))
	if want, have := true, s.Current().Equal(NewPeerSet("c@3")); want != have {
		t.Fatalf("have %v", s.Current().Slice())
	}
}

func TestStoreSnapshotsAreIndependent(t *testing.T) {
	s := NewStore()
	in := NewPeerSet("a@1")
	s.Replace(in)

	in.Add("b@2") // mutating the input after Replace must not leak in
	if want, have := true, s.Current().Equal(NewPeerSet("a@1")); want != have {
		t.Fatalf("input aliased: have %v", s.Current().Slice())
	}

	out := s.Current()
	out.Add("c@3") // mutating a snapshot must not leak back
	if want, have := true, s.Current().Equal(NewPeerSet("a@1")); want != have {
		t.Fatalf("snapshot aliased: have %v", s.Current().Slice())
	}
}
