package store

// field maps one persisted hash field onto a struct member. Every entity
// declares its persisted fields explicitly; nothing is discovered at runtime.
type field[T any] struct {
	name string
	get  func(*T) string
	set  func(*T, string)
}

var repoFields = []field[Repo]{
	{"userName", func(r *Repo) string { return r.UserName }, func(r *Repo, v string) { r.UserName = v }},
	{"repoName", func(r *Repo) string { return r.RepoName }, func(r *Repo, v string) { r.RepoName = v }},
	{"gitUrl", func(r *Repo) string { return r.GitURL }, func(r *Repo, v string) { r.GitURL = v }},
	{"status", func(r *Repo) string { return string(r.Status) }, func(r *Repo, v string) { r.Status = Status(v) }},
	{"errorCode", func(r *Repo) string { return r.ErrorCode }, func(r *Repo, v string) { r.ErrorCode = v }},
	{"branch", func(r *Repo) string { return r.Branch }, func(r *Repo, v string) { r.Branch = v }},
	{"commitSHA", func(r *Repo) string { return r.CommitSHA }, func(r *Repo, v string) { r.CommitSHA = v }},
	{"tagDate", func(r *Repo) string { return r.TagDate }, func(r *Repo, v string) { r.TagDate = v }},
	{"lastTodoPosted", func(r *Repo) string { return r.LastTodoPosted }, func(r *Repo, v string) { r.LastTodoPosted = v }},
	{"lastTodoPostDate", func(r *Repo) string { return r.LastTodoPostDate }, func(r *Repo, v string) { r.LastTodoPostDate = v }},
}

var todoFields = []field[Todo]{
	{"filePath", func(t *Todo) string { return t.FilePath }, func(t *Todo, v string) { t.FilePath = v }},
	{"lineNumber", func(t *Todo) string { return t.LineNumber }, func(t *Todo, v string) { t.LineNumber = v }},
	{"commentBlock", func(t *Todo) string { return t.CommentBlock }, func(t *Todo, v string) { t.CommentBlock = v }},
	{"blameUser", func(t *Todo) string { return t.BlameUser }, func(t *Todo, v string) { t.BlameUser = v }},
	{"blameDate", func(t *Todo) string { return t.BlameDate }, func(t *Todo, v string) { t.BlameDate = v }},
	{"blameDateEuro", func(t *Todo) string { return t.BlameDateEuro }, func(t *Todo, v string) { t.BlameDateEuro = v }},
	{"commitSHA", func(t *Todo) string { return t.CommitSHA }, func(t *Todo, v string) { t.CommitSHA = v }},
	{"issueURL", func(t *Todo) string { return t.IssueURL }, func(t *Todo, v string) { t.IssueURL = v }},
}

// FieldIssueURL is the todo hash field holding the filed issue link.
const FieldIssueURL = "issueURL"
