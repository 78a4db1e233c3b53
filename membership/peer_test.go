package membership

import (
	"testing"
)

func TestPeerIDParts(t *testing.T) {
	for _, testcase := range []struct {
		name     string
		basename string
		addr     string
		want     string
	}{
		{"simple", "myapp", "10.0.1.2", "myapp@10.0.1.2"},
		{"hostname addr", "myapp", "node-1.internal", "myapp@node-1.internal"},
		{"empty addr", "myapp", "", "myapp@"},
	} {
		t.Run(testcase.name, func(t *testing.T) {
			id := MakePeerID(testcase.basename, testcase.addr)
			if want, have := testcase.want, id.String(); want != have {
				t.Fatalf("want %q, have %q", want, have)
			}
			if want, have := testcase.basename, id.Basename(); want != have {
				t.Errorf("basename: want %q, have %q", want, have)
			}
			if want, have := testcase.addr, id.Addr(); want != have {
				t.Errorf("addr: want %q, have %q", want, have)
			}
		})
	}
}

func TestPeerSetCollapsesDuplicates(t *testing.T) {
	s := NewPeerSet("a@1", "b@2", "a@1")
	if want, have := 2, s.Len(); want != have {
		t.Fatalf("want %d, have %d", want, have)
	}
}

func TestPeerSetCopyIsIndependent(t *testing.T) {
	s := NewPeerSet("a@1", "b@2")
	c := s.Copy()
	c.Add("c@3")
	c.Remove("a@1")
	if want, have := true, s.Equal(NewPeerSet("a@1", "b@2")); want != have {
		t.Errorf("original mutated: %v", s.Slice())
	}
	if want, have := true, c.Equal(NewPeerSet("b@2", "c@3")); want != have {
		t.Errorf("copy wrong: %v", c.Slice())
	}
}

func TestPeerSetEqual(t *testing.T) {
	for _, testcase := range []struct {
		name string
		a, b PeerSet
		want bool
	}{
		{"both empty", NewPeerSet(), NewPeerSet(), true},
		{"same", NewPeerSet("a@1", "b@2"), NewPeerSet("b@2", "a@1"), true},
		{"subset", NewPeerSet("a@1"), NewPeerSet("a@1", "b@2"), false},
		{"disjoint", NewPeerSet("a@1"), NewPeerSet("b@2"), false},
	} {
		t.Run(testcase.name, func(t *testing.T) {
			if want, have := testcase.want, testcase.a.Equal(testcase.b); want != have {
				t.Fatalf("want %v, have %v", want, have)
			}
			if want, have := testcase.want, testcase.b.Equal(testcase.a); want != have {
				t.Fatalf("reversed: want %v, have %v", want, have)
			}
		})
	}
}

func TestPeerSetSliceIsSorted(t *testing.T) {
	s := NewPeerSet("c@3", "a@1", "b@2")
	have := s.Slice()
	want := []PeerID{"a@1", "b@2", "c@3"}
	if len(want) != len(have) {
		t.Fatalf("want %v, have %v", want, have)
	}
	for i := range want {
		if want[i] != have[i] {
			t.Fatalf("want %v, have %v", want, have)
		}
	}
}
