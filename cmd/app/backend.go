package app

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/config"
	"github.com/vietanh2810/encore-api/internal/db"
	"github.com/vietanh2810/encore-api/internal/repository"
	"github.com/vietanh2810/encore-api/internal/repository/dao"
)

// backend is the two-tier document store shared by the server and the CLI
// commands.
type backend struct {
	docs      *repository.ReconcilingRepository
	mirror    *repository.LocalMirror
	remoteDSN string

	mirrorDB *sql.DB
	remoteDB *sql.DB
}

// openBackend opens the local mirror and, when configured, the remote store.
// An unreachable remote store is logged and the service runs on the mirror.
func openBackend(conf *config.AppConfig) (*backend, error) {
	mirrorDB, err := db.OpenMirror(conf.Mirror.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local mirror -> %w", err)
	}
	b := &backend{
		mirror:   repository.NewLocalMirror(dao.NewMirrorDAO(mirrorDB)),
		mirrorDB: mirrorDB,
	}

	var remote repository.ConditionalStore
	if dsn := conf.RemoteDSN(); dsn != "" {
		pg, err := db.OpenPostgresWithURL(dsn)
		if err != nil {
			zap.L().Warn("remote store unavailable, running on the local mirror", zap.Error(err))
		} else {
			channel := ""
			if conf.Realtime.Enabled {
				channel = conf.Realtime.NotifyChannel
			}
			remote = repository.NewRemoteStore(dao.NewDocumentDAO(pg, channel))
			b.remoteDSN = dsn
			if sqlDB, err := pg.DB(); err == nil {
				b.remoteDB = sqlDB
			}
		}
	}

	b.docs = repository.NewReconcilingRepository(b.mirror, remote, conf.Event.RemoteTimeout)

	return b, nil
}

// Close drains pending remote writes before closing the connections.
func (b *backend) Close() {
	b.docs.Close()

	if b.remoteDB != nil {
		if err := b.remoteDB.Close(); err != nil {
			zap.L().Warn("failed to close remote store", zap.Error(err))
		}
	}
	if err := b.mirrorDB.Close(); err != nil {
		zap.L().Warn("failed to close local mirror", zap.Error(err))
	}
}
