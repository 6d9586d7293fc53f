package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/p4r4digm/todo-helper/internal/kv"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	backend, err := kv.NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	return New(backend), s
}

func sampleRepo() *Repo {
	return &Repo{
		UserName:         "alice",
		RepoName:         "proj",
		GitURL:           "https://github.com/alice/proj.git",
		Status:           StatusTagged,
		ErrorCode:        "",
		Branch:           "main",
		CommitSHA:        "0123abcd",
		TagDate:          "10/01/2026 08:00:00",
		LastTodoPosted:   "",
		LastTodoPostDate: "",
	}
}

func TestKeys(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{name: "repo", got: RepoKey("alice", "proj"), want: "repos::alice/proj"},
		{name: "child registry", got: ChildRegistry("repos::alice/proj"), want: "repos::alice/proj::todo"},
		{name: "todo", got: TodoKey("repos::alice/proj", "/src/foo.py", "12"), want: "repos::alice/proj::todo::foo.py/12"},
		{name: "todo without dir", got: TodoKey("repos::alice/proj", "main.go", "3"), want: "repos::alice/proj::todo::main.go/3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("got %q, want %q", tc.got, tc.want)
			}
		})
	}
}

func TestIsRepoKey(t *testing.T) {
	cases := map[string]bool{
		"repos::alice/proj":                  true,
		"repos::todogroup/proj":              true,
		"repos::todo/x":                      true,
		"repos::alice/todo":                  true,
		"repos::alice/proj::todo":            false,
		"repos::alice/proj::todo::foo.py/12": false,
		"repos::todo/x::todo":                false,
		"repos::alice/a/b":                   false,
		"repos":                              false,
		"queues::posting":                    false,
	}
	for key, want := range cases {
		if got := IsRepoKey(key); got != want {
			t.Errorf("IsRepoKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestParseRepoKey(t *testing.T) {
	cases := map[string][2]string{
		"repos::alice/proj":     {"alice", "proj"},
		"repos::todogroup/proj": {"todogroup", "proj"},
		"repos::todo/x":         {"todo", "x"},
	}
	for key, want := range cases {
		user, repo, ok := ParseRepoKey(key)
		if !ok || user != want[0] || repo != want[1] {
			t.Errorf("ParseRepoKey(%q) = %q, %q, %v", key, user, repo, ok)
		}
	}
	for _, key := range []string{"repos::alice", "repos::/proj", "repos::alice/", "repos::alice/proj::todo", "repos::todo/x::todo::a.go/1", "queues::posting"} {
		if _, _, ok := ParseRepoKey(key); ok {
			t.Errorf("ParseRepoKey(%q) should fail", key)
		}
	}
}

func TestRepoRoundTrip(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	repo := sampleRepo()
	if err := st.SaveRepo(ctx, repo); err != nil {
		t.Fatalf("SaveRepo() error = %v", err)
	}

	loaded, found, err := st.LoadRepo(ctx, repo.Key())
	if err != nil {
		t.Fatalf("LoadRepo() error = %v", err)
	}
	if !found {
		t.Fatal("expected repo to be found")
	}
	if !reflect.DeepEqual(loaded, repo) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *loaded, *repo)
	}
}

func TestTodoRoundTrip(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	repo := NewRepo("alice", "proj")
	todo := &Todo{
		FilePath:      "/src/foo.py",
		LineNumber:    "12",
		CommentBlock:  "# TODO: handle unicode\n# properly",
		BlameUser:     "Alice Smith <alice@example.com>",
		BlameDate:     "2024-03-01 10:20:30",
		BlameDateEuro: "01-03-2024 10:20:30",
		CommitSHA:     "deadbeef",
		IssueURL:      "",
	}
	if err := st.SaveTodo(ctx, repo, todo); err != nil {
		t.Fatalf("SaveTodo() error = %v", err)
	}

	loaded, found, err := st.LoadTodo(ctx, repo.TodoKey(todo))
	if err != nil {
		t.Fatalf("LoadTodo() error = %v", err)
	}
	if !found {
		t.Fatal("expected todo to be found")
	}
	if *loaded != *todo {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *loaded, *todo)
	}
}

func TestLoadNotFound(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	repo, found, err := st.LoadRepo(ctx, RepoKey("nobody", "nothing"))
	if err != nil || found || repo != nil {
		t.Fatalf("LoadRepo() = %v, %v, %v; want nil, false, nil", repo, found, err)
	}

	todo, found, err := st.LoadTodo(ctx, "repos::nobody/nothing::todo::a.go/1")
	if err != nil || found || todo != nil {
		t.Fatalf("LoadTodo() = %v, %v, %v; want nil, false, nil", todo, found, err)
	}
}

func TestSaveIsIdempotentForRegistry(t *testing.T) {
	st, s := newTestStore(t)
	ctx := context.Background()

	repo := sampleRepo()
	repo.Todos = []*Todo{{FilePath: "a/b.go", LineNumber: "4"}}
	for i := 0; i < 3; i++ {
		repo.Status = []Status{StatusNew, StatusParsing, StatusTagged}[i]
		if err := st.SaveRepo(ctx, repo); err != nil {
			t.Fatalf("SaveRepo() #%d error = %v", i, err)
		}
	}

	count, err := st.RepoCount(ctx)
	if err != nil {
		t.Fatalf("RepoCount() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 registered repo, got %d", count)
	}
	children, err := s.SMembers(ChildRegistry(repo.Key()))
	if err != nil {
		t.Fatalf("SMembers() error = %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("expected 1 registered todo, got %v", children)
	}
	if got := s.HGet(repo.Key(), "status"); got != string(StatusTagged) {
		t.Fatalf("expected last status to win, got %q", got)
	}
}

func TestExistenceIgnoresHash(t *testing.T) {
	st, s := newTestStore(t)
	ctx := context.Background()

	if _, err := st.AddNewRepo(ctx, "alice", "proj"); err != nil {
		t.Fatalf("AddNewRepo() error = %v", err)
	}
	s.Del(RepoKey("alice", "proj"))

	exists, err := st.RepoExists(ctx, "alice", "proj")
	if err != nil {
		t.Fatalf("RepoExists() error = %v", err)
	}
	if !exists {
		t.Fatal("expected registry membership to survive a cleared hash")
	}

	repos, err := st.Repos(ctx)
	if err != nil {
		t.Fatalf("Repos() error = %v", err)
	}
	if len(repos) != 0 {
		t.Fatalf("expected cleared repo to be skipped by Repos(), got %d", len(repos))
	}

	exists, err = st.RepoExists(ctx, "alice", "other")
	if err != nil || exists {
		t.Fatalf("RepoExists(other) = %v, %v; want false, nil", exists, err)
	}
}

func TestTodoCollisionMostRecentWins(t *testing.T) {
	st, s := newTestStore(t)
	ctx := context.Background()

	repo := NewRepo("alice", "proj")
	first := &Todo{FilePath: "/src/foo.py", LineNumber: "12", CommentBlock: "# TODO: first"}
	second := &Todo{FilePath: "/lib/foo.py", LineNumber: "12", CommentBlock: "# TODO: second"}

	if err := st.SaveTodo(ctx, repo, first); err != nil {
		t.Fatalf("SaveTodo(first) error = %v", err)
	}
	if err := st.SaveTodo(ctx, repo, second); err != nil {
		t.Fatalf("SaveTodo(second) error = %v", err)
	}

	children, err := s.SMembers(ChildRegistry(repo.Key()))
	if err != nil {
		t.Fatalf("SMembers() error = %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("expected one stored todo, got %v", children)
	}

	loaded, found, err := st.LoadTodo(ctx, children[0])
	if err != nil || !found {
		t.Fatalf("LoadTodo() = %v, %v", found, err)
	}
	if *loaded != *second {
		t.Fatalf("expected second save to win, got %+v", *loaded)
	}
}

func TestEndToEndRepoWithTodo(t *testing.T) {
	st, s := newTestStore(t)
	ctx := context.Background()

	repo := &Repo{UserName: "alice", RepoName: "proj"}
	if err := st.SaveRepo(ctx, repo); err != nil {
		t.Fatalf("SaveRepo() error = %v", err)
	}
	if ok, _ := s.SIsMember("repos", "repos::alice/proj"); !ok {
		t.Fatal("expected repos::alice/proj in repos")
	}

	todo := &Todo{FilePath: "/src/foo.py", LineNumber: "12"}
	if err := st.SaveTodo(ctx, repo, todo); err != nil {
		t.Fatalf("SaveTodo() error = %v", err)
	}
	if ok, _ := s.SIsMember("repos::alice/proj::todo", "repos::alice/proj::todo::foo.py/12"); !ok {
		t.Fatal("expected todo key in repos::alice/proj::todo")
	}

	loaded, found, err := st.LoadRepo(ctx, "repos::alice/proj")
	if err != nil || !found {
		t.Fatalf("LoadRepo() = %v, %v", found, err)
	}
	if len(loaded.Todos) != 1 {
		t.Fatalf("expected exactly one todo, got %d", len(loaded.Todos))
	}
	if *loaded.Todos[0] != *todo {
		t.Fatalf("unexpected todo: %+v", *loaded.Todos[0])
	}
}

func TestSaveRepoSavesOwnedTodos(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	repo := sampleRepo()
	repo.Todos = []*Todo{
		{FilePath: "cmd/main.go", LineNumber: "10", CommentBlock: "// TODO: flags"},
		{FilePath: "internal/x/y.go", LineNumber: "88", CommentBlock: "// TODO: retry"},
	}
	if err := st.SaveRepo(ctx, repo); err != nil {
		t.Fatalf("SaveRepo() error = %v", err)
	}

	loaded, found, err := st.LoadRepo(ctx, repo.Key())
	if err != nil || !found {
		t.Fatalf("LoadRepo() = %v, %v", found, err)
	}
	if len(loaded.Todos) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(loaded.Todos))
	}
	byPath := map[string]*Todo{}
	for _, td := range loaded.Todos {
		byPath[td.FilePath] = td
	}
	if td := byPath["internal/x/y.go"]; td == nil || td.CommentBlock != "// TODO: retry" {
		t.Fatalf("missing or wrong todo for y.go: %+v", td)
	}
}

func TestIssueURL(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	repo := NewRepo("alice", "proj")
	todo := &Todo{FilePath: "a.go", LineNumber: "1", IssueURL: "https://github.com/alice/proj/issues/7"}
	if err := st.SaveTodo(ctx, repo, todo); err != nil {
		t.Fatalf("SaveTodo() error = %v", err)
	}

	url, err := st.IssueURL(ctx, repo.TodoKey(todo))
	if err != nil {
		t.Fatalf("IssueURL() error = %v", err)
	}
	if url != todo.IssueURL {
		t.Fatalf("IssueURL() = %q, want %q", url, todo.IssueURL)
	}
}

func TestBackendErrorsPropagate(t *testing.T) {
	st, s := newTestStore(t)
	ctx := context.Background()
	s.Close()

	if err := st.SaveRepo(ctx, sampleRepo()); !errors.Is(err, kv.ErrUnavailable) {
		t.Fatalf("SaveRepo() error = %v, want ErrUnavailable", err)
	}
	if _, _, err := st.LoadRepo(ctx, "repos::alice/proj"); !errors.Is(err, kv.ErrUnavailable) {
		t.Fatalf("LoadRepo() error = %v, want ErrUnavailable", err)
	}
	if _, err := st.RepoExists(ctx, "alice", "proj"); !errors.Is(err, kv.ErrUnavailable) {
		t.Fatalf("RepoExists() error = %v, want ErrUnavailable", err)
	}
}
