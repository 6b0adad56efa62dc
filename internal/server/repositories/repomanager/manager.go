package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/onetimetokens"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can run them against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	OneTimeTokens(db dbx.DBTX) onetimetokens.Repository
}
