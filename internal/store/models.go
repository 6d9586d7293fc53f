package store

// Status is the processing stage of a Repo.
type Status string

const (
	StatusNew     Status = "New"
	StatusCloning Status = "Cloning"
	StatusParsing Status = "Parsing"
	StatusTagged  Status = "Tagged"
	StatusPosted  Status = "Posted"
	StatusError   Status = "Error"
)

// Repo is a tracked source repository. UserName and RepoName identify it;
// Todos are stored under their own keys and only indexed under the Repo.
type Repo struct {
	UserName         string
	RepoName         string
	GitURL           string
	Status           Status
	ErrorCode        string
	Branch           string
	CommitSHA        string
	TagDate          string
	LastTodoPosted   string
	LastTodoPostDate string

	Todos []*Todo
}

// NewRepo returns a freshly discovered repository.
func NewRepo(userName, repoName string) *Repo {
	return &Repo{
		UserName: userName,
		RepoName: repoName,
		Status:   StatusNew,
	}
}

// Key is the hash key of the repo, derived from its identity only.
func (r *Repo) Key() string {
	return RepoKey(r.UserName, r.RepoName)
}

// TodoKey is the key t is stored under when owned by r.
func (r *Repo) TodoKey(t *Todo) string {
	return TodoKey(r.Key(), t.FilePath, t.LineNumber)
}

// Todo is one unresolved TODO marker. The owning repo, the file basename and
// the line number identify it.
type Todo struct {
	FilePath      string
	LineNumber    string
	CommentBlock  string
	BlameUser     string
	BlameDate     string
	BlameDateEuro string
	CommitSHA     string
	IssueURL      string
}

// Posted reports whether an issue has already been filed for the todo.
func (t *Todo) Posted() bool {
	return t.IssueURL != ""
}
