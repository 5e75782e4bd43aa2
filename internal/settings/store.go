// Package settings persists the paths the supervisor remembers between
// sessions: the last used executable and study file.
package settings

// Store loads and saves remembered paths. Implementations are safe for
// concurrent use.
type Store interface {
	Load() error
	Executable() string
	SaveExecutable(path string) error
	Study() string
	SaveStudy(path string) error
}
