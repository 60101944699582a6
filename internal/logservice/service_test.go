package logservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/decidoc/internal/apperr"
	"github.com/starford/decidoc/internal/citation"
	"github.com/starford/decidoc/internal/models"
	"github.com/starford/decidoc/internal/render"
	"github.com/starford/decidoc/internal/settings"
	"github.com/starford/decidoc/internal/storage"
	"github.com/starford/decidoc/internal/testutil"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }

type env struct {
	svc      *Service
	path     string
	store    storage.Provider
	settings *settings.Store
	fetcher  *testutil.Fetcher
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	path, store := testutil.TestLog(t)
	st := testutil.TestSettings(t)
	f := &testutil.Fetcher{Pages: map[string]*citation.Metadata{
		"https://go.dev/blog": {Title: "The Go Blog", SiteName: "go.dev"},
	}}
	opts = append([]Option{WithClock(fixedNow)}, opts...)
	return &env{
		svc:      NewService(store, st, citation.NewFormatter(f, nil), opts...),
		path:     path,
		store:    store,
		settings: st,
		fetcher:  f,
	}
}

func (e *env) content(t *testing.T) string {
	t.Helper()
	data, err := e.store.Read(e.path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return string(data)
}

func approve(string) (bool, error) { return true, nil }

func TestInit_CreatesLogAndStoresPath(t *testing.T) {
	e := newEnv(t)
	target := filepath.Join(t.TempDir(), "nested", "log")

	got, err := e.svc.Init(context.Background(), target)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got != target+".md" {
		t.Errorf("Init path = %q, want .md appended", got)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("log not created: %v", err)
	}
	if string(data) != render.Template {
		t.Error("log does not hold the template")
	}
	stored, err := e.settings.LogPath()
	if err != nil || stored != got {
		t.Errorf("stored path = %q, %v", stored, err)
	}
}

func TestInit_ExistingFile(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Init(context.Background(), e.path)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if _, err := e.settings.LogPath(); !errors.Is(err, apperr.ErrNotConfigured) {
		t.Error("failed init must not store a path")
	}
}

func TestResolvePath(t *testing.T) {
	e := newEnv(t)
	if _, err := e.svc.ResolvePath(""); !errors.Is(err, apperr.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}

	got, err := e.svc.ResolvePath(e.path)
	if err != nil || got != e.path {
		t.Fatalf("ResolvePath(explicit) = %q, %v", got, err)
	}
	// Explicit paths are sticky.
	got, err = e.svc.ResolvePath("")
	if err != nil || got != e.path {
		t.Errorf("ResolvePath(\"\") = %q, %v; want stored path", got, err)
	}
}

func TestAdd_FirstEntry(t *testing.T) {
	e := newEnv(t)
	entry, err := e.svc.Add(context.Background(), e.path, AddRequest{
		Title:    "Adopt SQLite",
		Category: "Architecture",
		Context:  "We need storage.",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if entry.ID != "K-001" || entry.Date != "2026-10-18" || entry.Status != models.DefaultStatus {
		t.Errorf("entry = %+v", entry)
	}

	got := e.content(t)
	if !strings.Contains(got, render.SeparatorRow+"\n"+render.Row(*entry)+"\n") {
		t.Errorf("row not directly below separator:\n%s", got)
	}
	if !strings.HasSuffix(got, strings.Join(render.Section(*entry), "\n")+"\n") {
		t.Errorf("section not at end:\n%s", got)
	}
}

func TestAdd_NotIdempotent(t *testing.T) {
	e := newEnv(t)
	req := AddRequest{Title: "Same", Category: "Same"}
	first, err := e.svc.Add(context.Background(), e.path, req)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	second, err := e.svc.Add(context.Background(), e.path, req)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.ID != "K-001" || second.ID != "K-002" {
		t.Errorf("ids = %s, %s; want K-001, K-002", first.ID, second.ID)
	}
	if n := strings.Count(e.content(t), render.HeadingPrefix); n != 2 {
		t.Errorf("got %d sections, want 2", n)
	}
}

func TestAdd_Citations(t *testing.T) {
	var progress [][2]int
	e := newEnv(t, WithProgress(func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}))

	entry, err := e.svc.Add(context.Background(), e.path, AddRequest{
		Title:    "Read the blog",
		Category: "Research",
		Sources:  []string{"https://go.dev/blog, https://broken.invalid", "See team notes"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	want := []string{
		"go.dev. (n.d.). *The Go Blog*. Retrieved from https://go.dev/blog",
		"[https://broken.invalid](https://broken.invalid)",
		"See team notes",
	}
	if diff := cmp.Diff(want, entry.Citations); diff != "" {
		t.Errorf("citations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://go.dev/blog", "https://broken.invalid"}, e.fetcher.Calls); diff != "" {
		t.Errorf("fetches (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][2]int{{1, 3}, {2, 3}, {3, 3}}, progress); diff != "" {
		t.Errorf("progress (-want +got):\n%s", diff)
	}
	if !strings.Contains(e.content(t), "### Sources\n- go.dev. (n.d.)") {
		t.Error("citations not rendered into the section")
	}
}

func TestAdd_Validation(t *testing.T) {
	e := newEnv(t)
	before := e.content(t)
	if _, err := e.svc.Add(context.Background(), e.path, AddRequest{Category: "X"}); err == nil {
		t.Fatal("missing title should fail")
	}
	if e.content(t) != before {
		t.Error("failed add modified the log")
	}
}

func TestAdd_MissingLog(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Add(context.Background(), filepath.Join(t.TempDir(), "none.md"), AddRequest{Title: "T", Category: "C"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAdd_MalformedLog(t *testing.T) {
	e := newEnv(t)
	_ = e.store.Write(e.path, []byte("# Decision Log\n\nno table\n"))
	_, err := e.svc.Add(context.Background(), e.path, AddRequest{
		Title: "T", Category: "C", Sources: []string{"https://go.dev/blog"},
	})
	if !errors.Is(err, apperr.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	if len(e.fetcher.Calls) != 0 {
		t.Error("citations fetched for a log that cannot be appended to")
	}
}

func TestRollback_RoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, _ = e.svc.Add(ctx, e.path, AddRequest{Title: "One", Category: "A"})
	before := e.content(t)

	_, _ = e.svc.Add(ctx, e.path, AddRequest{Title: "Two", Category: "B", Sources: []string{"notes"}})
	res, err := e.svc.Rollback(ctx, e.path, approve)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if res.ID != "K-002" || res.Partial() {
		t.Errorf("result = %+v", res)
	}
	if diff := cmp.Diff(before, e.content(t)); diff != "" {
		t.Errorf("rollback(append(doc)) != doc (-want +got):\n%s", diff)
	}
}

func TestRollback_RemovesOnlyLatest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, title := range []string{"One", "Two", "Three"} {
		if _, err := e.svc.Add(ctx, e.path, AddRequest{Title: title, Category: "C"}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := e.svc.Rollback(ctx, e.path, approve); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	got, err := e.svc.List(ctx, e.path)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff([]string{"K-002", "K-001"}, ids); diff != "" {
		t.Errorf("remaining ids (-want +got):\n%s", diff)
	}
	content := e.content(t)
	if strings.Contains(content, "K-003") {
		t.Error("K-003 still present")
	}
	if strings.Index(content, "## Decision K-001") > strings.Index(content, "## Decision K-002") {
		t.Error("remaining sections reordered")
	}
}

func TestRollback_NothingToRollback(t *testing.T) {
	e := newEnv(t)
	before := e.content(t)
	_, err := e.svc.Rollback(context.Background(), e.path, func(string) (bool, error) {
		t.Fatal("confirmation must not be asked")
		return false, nil
	})
	if !errors.Is(err, apperr.ErrNothingToRollback) {
		t.Fatalf("err = %v, want ErrNothingToRollback", err)
	}
	if e.content(t) != before {
		t.Error("log modified")
	}
}

func TestRollback_Declined(t *testing.T) {
	e := newEnv(t)
	_, _ = e.svc.Add(context.Background(), e.path, AddRequest{Title: "One", Category: "A"})
	before := e.content(t)

	var asked string
	_, err := e.svc.Rollback(context.Background(), e.path, func(id string) (bool, error) {
		asked = id
		return false, nil
	})
	if !errors.Is(err, apperr.ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if asked != "K-001" {
		t.Errorf("confirmation asked for %q", asked)
	}
	if e.content(t) != before {
		t.Error("declined rollback modified the log")
	}
}

func TestRollback_ConflictDuringConfirmation(t *testing.T) {
	e := newEnv(t)
	_, _ = e.svc.Add(context.Background(), e.path, AddRequest{Title: "One", Category: "A"})

	_, err := e.svc.Rollback(context.Background(), e.path, func(string) (bool, error) {
		_ = e.store.Write(e.path, []byte(e.content(t)+"\nedited elsewhere\n"))
		return true, nil
	})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if !strings.Contains(e.content(t), "## Decision K-001") {
		t.Error("conflicting rollback modified the log")
	}
}

func TestRollback_PartialWhenSectionMissing(t *testing.T) {
	e := newEnv(t)
	_, _ = e.svc.Add(context.Background(), e.path, AddRequest{Title: "One", Category: "A"})
	broken := strings.Replace(e.content(t), "## Decision K-001", "## Renamed", 1)
	_ = e.store.Write(e.path, []byte(broken))

	res, err := e.svc.Rollback(context.Background(), e.path, approve)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if !res.Partial() || !res.RowRemoved || res.SectionRemoved {
		t.Errorf("result = %+v, want row-only removal", res)
	}
}

func TestRollback_IDOnlyInProse(t *testing.T) {
	e := newEnv(t)
	_ = e.store.Write(e.path, []byte(render.Template+"\nSee K-004 in the old log.\n"))
	_, err := e.svc.Rollback(context.Background(), e.path, approve)
	if !errors.Is(err, apperr.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	for _, want := range []string{"K-004", "See K-004 in the old log."} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestMention(t *testing.T) {
	raw := "a K-0040\nb\nsupersedes K-004.\n"
	line, text := mention(raw, "K-004")
	if line != 3 || text != "supersedes K-004." {
		t.Errorf("mention = %d, %q", line, text)
	}
	if line, _ := mention(raw, "K-009"); line != 0 {
		t.Errorf("mention of absent id = %d", line)
	}
}

func TestAdd_ConcurrentUniqueIDs(t *testing.T) {
	e := newEnv(t)
	const n = 8

	var wg sync.WaitGroup
	ids := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := e.svc.Add(context.Background(), e.path, AddRequest{Title: "Same", Category: "C"})
			if err != nil {
				errs <- err
				return
			}
			ids <- entry.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Fatalf("Add: %v", err)
	}
	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %s", id)
		}
		seen[id] = true
	}
	items, err := e.svc.List(context.Background(), e.path)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != n || len(seen) != n {
		t.Errorf("rows = %d, ids = %d, want %d", len(items), len(seen), n)
	}
	if got := strings.Count(e.content(t), "\n## Decision K-"); got != n {
		t.Errorf("sections = %d, want %d", got, n)
	}
}

func TestGet(t *testing.T) {
	e := newEnv(t)
	_, _ = e.svc.Add(context.Background(), e.path, AddRequest{Title: "One", Category: "A", Motivation: "Because."})

	md, err := e.svc.Get(context.Background(), e.path, "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.HasPrefix(md, "## Decision K-001 – One") || !strings.Contains(md, "Because.") {
		t.Errorf("Get = %q", md)
	}

	if _, err := e.svc.Get(context.Background(), e.path, "K-002"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList_Empty(t *testing.T) {
	e := newEnv(t)
	got, err := e.svc.List(context.Background(), e.path)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List = %#v, want empty non-nil slice", got)
	}
}
