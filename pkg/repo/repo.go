package repo

import (
	"time"

	"go.uber.org/zap"

	"github.com/odvcencio/gitlite/pkg/object"
)

// MetaDirName is the repository metadata directory. It is never traversed
// when building trees.
const MetaDirName = ".git"

// Repo represents an opened repository.
type Repo struct {
	RootDir string        // working directory root
	GitDir  string        // .git/ directory
	Store   *object.Store // content-addressed object store

	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Repo opened with Init or Open.
type Option func(*Repo)

// WithLogger sets the logger shared by the repository and its store.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repo) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) {
		if now != nil {
			r.now = now
		}
	}
}

func newRepo(root, gitDir string, opts []Option) (*Repo, error) {
	r := &Repo{
		RootDir: root,
		GitDir:  gitDir,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	store, err := object.NewStore(objectsDir(gitDir), object.WithLogger(r.logger.Named("store")))
	if err != nil {
		return nil, err
	}
	r.Store = store
	return r, nil
}

// Logger returns the repository logger.
func (r *Repo) Logger() *zap.Logger {
	return r.logger
}
