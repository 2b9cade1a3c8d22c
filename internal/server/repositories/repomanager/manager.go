package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/marsha-uploader/internal/dbx"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/repositories/resources"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or *sql.Tx, so a
// service can use the same repositories inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Resources(db dbx.DBTX) resources.Repository
}
