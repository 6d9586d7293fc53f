package store

import "strings"

// TopRegistry is the set holding the key of every saved Repo.
const TopRegistry = "repos"

const (
	keySep        = "::"
	todoSegment   = "::todo"
	todoKeyMarker = todoSegment + keySep
)

// RepoKey returns "repos::{userName}/{repoName}".
func RepoKey(userName, repoName string) string {
	return TopRegistry + keySep + userName + "/" + repoName
}

// ChildRegistry returns the set listing the todos of the repo at parentKey.
func ChildRegistry(parentKey string) string {
	return parentKey + todoSegment
}

// TodoKey returns "{parentKey}::todo::{basename(filePath)}/{lineNumber}".
// Todos of one repo that share a file basename and line number collide.
func TodoKey(parentKey, filePath, lineNumber string) string {
	return parentKey + todoKeyMarker + Basename(filePath) + "/" + lineNumber
}

// Basename returns the part of path after the last slash, or path itself
// when it has none.
func Basename(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// IsRepoKey reports whether key names a repo hash rather than a todo hash or
// a child registry. User and repo names never contain "/" or "::".
func IsRepoKey(key string) bool {
	_, _, ok := ParseRepoKey(key)
	return ok
}

// ParseRepoKey splits a repo key back into its user and repo names.
func ParseRepoKey(key string) (userName, repoName string, ok bool) {
	rest, ok := strings.CutPrefix(key, TopRegistry+keySep)
	if !ok || strings.Contains(rest, keySep) {
		return "", "", false
	}
	userName, repoName, ok = strings.Cut(rest, "/")
	if !ok || userName == "" || repoName == "" || strings.Contains(repoName, "/") {
		return "", "", false
	}
	return userName, repoName, true
}
