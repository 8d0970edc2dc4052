package db

import (
	"github.com/pkg/errors"

	"github.com/plumechat/plume/internal/profile"
	"github.com/plumechat/plume/store"
	"github.com/plumechat/plume/store/db/postgres"
	"github.com/plumechat/plume/store/db/sqlite"
)

// NewLocalDriver opens the on-device SQLite store for anonymous sessions.
func NewLocalDriver(profile *profile.Profile) (store.Driver, error) {
	driver, err := sqlite.NewDB(profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create local driver")
	}
	return driver, nil
}

// NewRemoteDriver opens the PostgreSQL store for authenticated sessions.
// Returns nil without error when no remote DSN is configured; the store
// facade then routes everything locally.
func NewRemoteDriver(profile *profile.Profile) (store.Driver, error) {
	if profile.RemoteDSN == "" {
		return nil, nil
	}
	driver, err := postgres.NewDB(profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create remote driver")
	}
	return driver, nil
}
