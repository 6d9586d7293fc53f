package app

import "github.com/p4r4digm/todo-helper/internal/store"

type TodoView struct {
	Key           string `json:"key"`
	FilePath      string `json:"filePath"`
	LineNumber    string `json:"lineNumber"`
	CommentBlock  string `json:"commentBlock"`
	BlameUser     string `json:"blameUser"`
	BlameDate     string `json:"blameDate"`
	BlameDateEuro string `json:"blameDateEuro"`
	CommitSHA     string `json:"commitSHA"`
	IssueURL      string `json:"issueURL,omitempty"`
}

type RepoView struct {
	Key              string     `json:"key"`
	UserName         string     `json:"userName"`
	RepoName         string     `json:"repoName"`
	GitURL           string     `json:"gitUrl,omitempty"`
	Status           string     `json:"status"`
	ErrorCode        string     `json:"errorCode,omitempty"`
	Branch           string     `json:"branch,omitempty"`
	CommitSHA        string     `json:"commitSHA,omitempty"`
	TagDate          string     `json:"tagDate,omitempty"`
	LastTodoPosted   string     `json:"lastTodoPosted,omitempty"`
	LastTodoPostDate string     `json:"lastTodoPostDate,omitempty"`
	TodoCount        int        `json:"todoCount"`
	PostedCount      int        `json:"postedCount"`
	Todos            []TodoView `json:"todos,omitempty"`
}

func newRepoView(r *store.Repo, withTodos bool) RepoView {
	view := RepoView{
		Key:              r.Key(),
		UserName:         r.UserName,
		RepoName:         r.RepoName,
		GitURL:           r.GitURL,
		Status:           string(r.Status),
		ErrorCode:        r.ErrorCode,
		Branch:           r.Branch,
		CommitSHA:        r.CommitSHA,
		TagDate:          r.TagDate,
		LastTodoPosted:   r.LastTodoPosted,
		LastTodoPostDate: r.LastTodoPostDate,
		TodoCount:        len(r.Todos),
	}
	for _, t := range r.Todos {
		if t.Posted() {
			view.PostedCount++
		}
		if withTodos {
			view.Todos = append(view.Todos, TodoView{
				Key:           r.TodoKey(t),
				FilePath:      t.FilePath,
				LineNumber:    t.LineNumber,
				CommentBlock:  t.CommentBlock,
				BlameUser:     t.BlameUser,
				BlameDate:     t.BlameDate,
				BlameDateEuro: t.BlameDateEuro,
				CommitSHA:     t.CommitSHA,
				IssueURL:      t.IssueURL,
			})
		}
	}
	return view
}
