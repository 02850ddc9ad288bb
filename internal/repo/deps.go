package repo

import (
	"errors"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// ErrNotFound reports that a requested row does not exist.
var ErrNotFound = errors.New("repo: not found")

// Dependencies bundles the shared infrastructure required by repository
// implementations.
type Dependencies struct {
	DBConn sqlx.SqlConn
}

// Set exposes strongly typed repositories to application logic.
type Set struct {
	Companies  CompaniesRepo
	Portfolios PortfoliosRepo
	Snapshots  SnapshotsRepo
}

// New constructs the repository set, validating required dependencies.
func New(deps Dependencies) (*Set, error) {
	if deps.DBConn == nil {
		return nil, errors.New("repo: missing DBConn dependency")
	}

	return &Set{
		Companies:  newCompaniesRepo(deps),
		Portfolios: newPortfoliosRepo(deps),
		Snapshots:  newSnapshotsRepo(deps),
	}, nil
}
