/*
 Copyright 2023 Parsec Cloud Authors.

 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package metastore

import (
	"context"
	"errors"
	"runtime/trace"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chinmaym07/parsec-cloud/config"
	"github.com/chinmaym07/parsec-cloud/pkg/metastore/db"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
	"github.com/chinmaym07/parsec-cloud/utils/logger"
)

const (
	MemoryMeta   = config.MemoryMeta
	SqliteMeta   = config.SqliteMeta
	PostgresMeta = config.PostgresMeta
)

var errManifestExisted = errors.New("manifest existed")

type sqlManifestStore struct {
	*gorm.DB

	realmID   types.EntryID
	deviceID  string
	workspace atomic.Pointer[types.LocalWorkspaceManifest]
	locks     *entryLocks
	cache     *cache
	logger    *zap.SugaredLogger
}

var _ ManifestStorage = &sqlManifestStore{}

func buildSqlManifestStore(dbEntity *gorm.DB, realmID types.EntryID, deviceID string, cacheCfg *config.Cache) (*sqlManifestStore, error) {
	s := &sqlManifestStore{
		DB:       dbEntity,
		realmID:  realmID,
		deviceID: deviceID,
		locks:    newEntryLocks(),
		cache:    newCache(cacheCfg),
		logger:   logger.NewLogger("manifestStore").With(zap.String("realm", realmID.String())),
	}

	if err := db.Migrate(s.DB); err != nil {
		return nil, db.SqlError2Error(err)
	}

	ctx, canF := context.WithTimeout(context.Background(), time.Second*10)
	defer canF()

	if err := s.initSystemInfo(ctx); err != nil {
		return nil, err
	}
	if err := s.loadWorkspaceManifest(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sqlManifestStore) initSystemInfo(ctx context.Context) error {
	info := &db.SystemInfo{}
	res := s.WithContext(ctx).First(info)
	if res.Error == nil {
		if info.RealmID != s.realmID.String() {
			s.logger.Errorw("database belongs to another realm", "dbRealm", info.RealmID)
			return types.NewInternalError(errors.New("realm id not match"))
		}
		return nil
	}
	if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return db.SqlError2Error(res.Error)
	}
	info = &db.SystemInfo{RealmID: s.realmID.String(), DeviceID: s.deviceID}
	if res = s.WithContext(ctx).Create(info); res.Error != nil {
		return db.SqlError2Error(res.Error)
	}
	return nil
}

func (s *sqlManifestStore) loadWorkspaceManifest(ctx context.Context) error {
	defer trace.StartRegion(ctx, "metastore.sql.loadWorkspaceManifest").End()
	mod := &db.Manifest{}
	res := s.WithContext(ctx).Where("id = ? AND kind = ?", s.realmID.String(), db.ManifestKindWorkspace).First(mod)
	if res.Error == nil {
		ws, err := mod.ToWorkspaceManifest()
		if err != nil {
			s.logger.Errorw("decode workspace manifest failed", "err", err)
			return err
		}
		s.workspace.Store(ws)
		return nil
	}
	if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		s.logger.Errorw("load workspace manifest failed", "err", res.Error)
		return db.SqlError2Error(res.Error)
	}

	// a brand new workspace starts as a placeholder
	ws := types.NewLocalWorkspaceManifest(s.realmID, s.deviceID, time.Now())
	if err := mod.UpdateFromWorkspace(ws); err != nil {
		return err
	}
	if res = s.WithContext(ctx).Create(mod); res.Error != nil {
		s.logger.Errorw("create workspace manifest failed", "err", res.Error)
		return db.SqlError2Error(res.Error)
	}
	s.workspace.Store(ws)
	return nil
}

func (s *sqlManifestStore) RealmID() types.EntryID {
	return s.realmID
}

func (s *sqlManifestStore) GetWorkspaceManifest() *types.LocalWorkspaceManifest {
	return s.workspace.Load()
}

func (s *sqlManifestStore) SetWorkspaceManifest(ctx context.Context, manifest *types.LocalWorkspaceManifest) (err error) {
	const operation = "set_workspace_manifest"
	defer trace.StartRegion(ctx, "metastore.sql.SetWorkspaceManifest").End()
	defer logOperationLatency(operation, time.Now())
	defer func() { logOperationError(operation, err) }()

	if manifest.Base.ID != s.realmID {
		return types.NewInternalError(errors.New("workspace manifest id is not the realm id"))
	}
	snapshot := manifest.Clone()
	mod := &db.Manifest{}
	if err = mod.UpdateFromWorkspace(snapshot); err != nil {
		return types.NewInternalError(err)
	}
	res := s.WithContext(ctx).Save(mod)
	if res.Error != nil {
		s.logger.Errorw("save workspace manifest failed", "err", res.Error)
		return types.NewInternalError(db.SqlError2Error(res.Error))
	}
	s.workspace.Store(snapshot)
	return nil
}

func (s *sqlManifestStore) GetChildManifest(ctx context.Context, id types.EntryID) (manifest types.ChildManifest, err error) {
	const operation = "get_child_manifest"
	defer trace.StartRegion(ctx, "metastore.sql.GetChildManifest").End()
	defer logOperationLatency(operation, time.Now())
	defer func() { logOperationError(operation, err) }()

	manifest, err = s.cache.getManifest(id)
	if err == nil {
		return manifest, nil
	}
	manifest, err = s.queryChildManifest(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	s.cache.setManifest(manifest)
	return manifest, nil
}

func (s *sqlManifestStore) queryChildManifest(ctx context.Context, tx *gorm.DB, id types.EntryID) (types.ChildManifest, error) {
	mod := &db.Manifest{}
	res := tx.WithContext(ctx).Where("id = ? AND kind IN ?", id.String(),
		[]string{db.ManifestKindFolder, db.ManifestKindFile}).First(mod)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		s.logger.Errorw("get child manifest failed", "entry", id.String(), "err", res.Error)
		return nil, types.NewInternalError(db.SqlError2Error(res.Error))
	}
	manifest, err := mod.ToChildManifest()
	if err != nil {
		s.logger.Errorw("decode child manifest failed", "entry", id.String(), "err", err)
		return nil, types.NewInternalError(err)
	}
	return manifest, nil
}

func (s *sqlManifestStore) ForUpdateChildManifest(ctx context.Context, id types.EntryID) (updater ChildManifestUpdater, existing types.ChildManifest, err error) {
	const operation = "for_update_child_manifest"
	defer trace.StartRegion(ctx, "metastore.sql.ForUpdateChildManifest").End()
	defer logOperationLatency(operation, time.Now())
	defer func() { logOperationError(operation, err) }()

	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return nil, nil, types.NewInternalError(err)
	}

	existing, err = s.queryChildManifest(ctx, s.DB, id)
	switch {
	case err == nil:
		release()
		s.cache.setManifest(existing)
		return releasedUpdater{}, existing, nil
	case errors.Is(err, types.ErrNotFound):
		return &childManifestUpdater{store: s, entryID: id, release: release}, nil, nil
	default:
		release()
		return nil, nil, err
	}
}

func (s *sqlManifestStore) insertChildManifest(ctx context.Context, mod *db.Manifest) error {
	return s.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(mod)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errManifestExisted
		}
		return nil
	})
}

func (s *sqlManifestStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type childManifestUpdater struct {
	store   *sqlManifestStore
	entryID types.EntryID
	release func()
}

func (u *childManifestUpdater) SetFileManifest(ctx context.Context, manifest *types.LocalFileManifest) error {
	defer u.Release()
	if manifest.Base.ID != u.entryID {
		return types.NewInternalError(errors.New("manifest id does not match the update scope"))
	}
	mod := &db.Manifest{}
	if err := mod.UpdateFromFile(manifest); err != nil {
		return types.NewInternalError(err)
	}
	return u.commit(ctx, mod, manifest.Clone())
}

func (u *childManifestUpdater) SetFolderManifest(ctx context.Context, manifest *types.LocalFolderManifest) error {
	defer u.Release()
	if manifest.Base.ID != u.entryID {
		return types.NewInternalError(errors.New("manifest id does not match the update scope"))
	}
	mod := &db.Manifest{}
	if err := mod.UpdateFromFolder(manifest); err != nil {
		return types.NewInternalError(err)
	}
	return u.commit(ctx, mod, manifest.Clone())
}

func (u *childManifestUpdater) commit(ctx context.Context, mod *db.Manifest, snapshot types.ChildManifest) (err error) {
	const operation = "commit_child_manifest"
	defer trace.StartRegion(ctx, "metastore.sql.CommitChildManifest").End()
	defer logOperationLatency(operation, time.Now())
	defer func() { logOperationError(operation, err) }()

	if err = u.store.insertChildManifest(ctx, mod); err != nil {
		u.store.logger.Errorw("insert child manifest failed", "entry", u.entryID.String(), "err", err)
		u.store.cache.invalidManifest(u.entryID)
		return types.NewInternalError(db.SqlError2Error(err))
	}
	u.store.cache.setManifest(snapshot)
	return nil
}

func (u *childManifestUpdater) Release() {
	u.release()
}

type releasedUpdater struct{}

func (releasedUpdater) SetFileManifest(context.Context, *types.LocalFileManifest) error {
	return types.NewInternalError(errManifestExisted)
}

func (releasedUpdater) SetFolderManifest(context.Context, *types.LocalFolderManifest) error {
	return types.NewInternalError(errManifestExisted)
}

func (releasedUpdater) Release() {}

func newSqliteManifestStore(meta config.Meta, realmID types.EntryID, deviceID string, cacheCfg *config.Cache) (*sqlManifestStore, error) {
	dbEntity, err := gorm.Open(sqlite.Open(meta.Path), &gorm.Config{Logger: db.NewDbLogger()})
	if err != nil {
		return nil, err
	}

	dbConn, err := dbEntity.DB()
	if err != nil {
		return nil, err
	}
	// one connection: sqlite serializes writers and every connection to
	// ":memory:" would open its own empty database
	dbConn.SetMaxOpenConns(1)

	if err = dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	store, err := buildSqlManifestStore(dbEntity, realmID, deviceID, cacheCfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	return store, nil
}

func newPostgresManifestStore(meta config.Meta, realmID types.EntryID, deviceID string, cacheCfg *config.Cache) (*sqlManifestStore, error) {
	dbEntity, err := gorm.Open(postgres.Open(meta.DSN), &gorm.Config{Logger: db.NewDbLogger()})
	if err != nil {
		return nil, err
	}

	dbConn, err := dbEntity.DB()
	if err != nil {
		return nil, err
	}

	dbConn.SetMaxIdleConns(5)
	dbConn.SetMaxOpenConns(50)
	dbConn.SetConnMaxLifetime(time.Hour)

	if err = dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	store, err := buildSqlManifestStore(dbEntity, realmID, deviceID, cacheCfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	return store, nil
}
