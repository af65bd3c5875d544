// walk_test.go

package walk

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

type event struct {
	kind string // "enter", "file", "dir", "leave"
	rel  string
}

type recordingVisitor struct {
	events []event
}

func (r *recordingVisitor) DirEnter(path []byte, relOffset int) error {
	r.events = append(r.events, event{"enter", string(path[relOffset:])})
	return nil
}

func (r *recordingVisitor) File(e *Entry) (bool, error) {
	rel := string(e.Path[e.RelOffset:])
	if e.Kind == EntryDir {
		r.events = append(r.events, event{"dir", rel})
		return true, nil
	}
	r.events = append(r.events, event{"file", rel})
	return false, nil
}

func (r *recordingVisitor) DirLeave(path []byte, relOffset int) error {
	r.events = append(r.events, event{"leave", string(path[relOffset:])})
	return nil
}

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("setup: %s", err)
		}
	}
	must(os.WriteFile(filepath.Join(root, "a.txt"), []byte("foo"), 0o644))
	must(os.Mkdir(filepath.Join(root, "sub"), 0o755))
	must(os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte(""), 0o644))
	return root
}

func TestWalkOrderAndOffsets(t *testing.T) {
	root := buildTree(t)
	v := &recordingVisitor{}
	w := New(Options{})
	if err := w.Walk(root, v); err != nil {
		t.Fatalf("walk: %s", err)
	}

	wantEnter := event{"enter", ""}
	if v.events[0] != wantEnter {
		t.Fatalf("first event = %+v, want %+v", v.events[0], wantEnter)
	}

	last := v.events[len(v.events)-1]
	if last != (event{"leave", ""}) {
		t.Fatalf("last event = %+v, want root leave", last)
	}

	var names []string
	for _, e := range v.events {
		if e.kind == "file" || e.kind == "dir" {
			names = append(names, e.rel)
		}
	}
	sort.Strings(names)
	want := []string{"a.txt", "sub", "sub/b.txt"}
	if len(names) != len(want) {
		t.Fatalf("saw entries %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("saw entries %v, want %v", names, want)
		}
	}

	// sub's dir_enter must precede sub/b.txt's file event, which must
	// precede sub's dir_leave.
	idx := func(k, rel string) int {
		for i, e := range v.events {
			if e.kind == k && e.rel == rel {
				return i
			}
		}
		return -1
	}
	enterSub := idx("enter", "sub")
	fileB := idx("file", "sub/b.txt")
	leaveSub := idx("leave", "sub")
	if !(enterSub < fileB && fileB < leaveSub) {
		t.Fatalf("expected enter(sub) < file(sub/b.txt) < leave(sub); got %d %d %d", enterSub, fileB, leaveSub)
	}
}

type refuseDescendVisitor struct {
	recordingVisitor
}

func (r *refuseDescendVisitor) File(e *Entry) (bool, error) {
	rel := string(e.Path[e.RelOffset:])
	if e.Kind == EntryDir {
		r.events = append(r.events, event{"dir", rel})
		return false, nil
	}
	r.events = append(r.events, event{"file", rel})
	return false, nil
}

func TestWalkSkipsDescentWhenVisitorRefuses(t *testing.T) {
	root := buildTree(t)
	v := &refuseDescendVisitor{}
	w := New(Options{})
	if err := w.Walk(root, v); err != nil {
		t.Fatalf("walk: %s", err)
	}

	for _, e := range v.events {
		if e.kind == "enter" && e.rel == "sub" {
			t.Fatalf("expected no descent into sub, but saw dir_enter(sub)")
		}
	}
}

func TestWalkDoesNotFollowSymlinkToRoot(t *testing.T) {
	root := buildTree(t)
	if err := os.Symlink("/", filepath.Join(root, "escape")); err != nil {
		t.Fatalf("setup symlink: %s", err)
	}

	v := &recordingVisitor{}
	w := New(Options{})
	if err := w.Walk(root, v); err != nil {
		t.Fatalf("walk: %s", err)
	}

	for _, e := range v.events {
		if e.rel == "escape" || strings.HasPrefix(e.rel, "escape/") {
			t.Fatalf("walker descended through a symlink: %+v", e)
		}
	}
}

func TestWalkMissingRootIsFatal(t *testing.T) {
	w := New(Options{})
	err := w.Walk(filepath.Join(t.TempDir(), "does-not-exist"), &recordingVisitor{})
	if err == nil {
		t.Fatalf("expected an error walking a missing root")
	}
}
