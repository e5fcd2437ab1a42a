package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/annel0/voxelmap/internal/logging"
	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world"
)

var (
	// ErrNotFound снимок чанка отсутствует в хранилище
	ErrNotFound = errors.New("storage: снимок не найден")
	// ErrClosed хранилище уже закрыто
	ErrClosed = errors.New("storage: хранилище закрыто")
)

// SnapshotStore хранит снимки чанков в BadgerDB, сжатые zstd
type SnapshotStore struct {
	db      *badger.DB
	dbPath  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	mutex   sync.RWMutex
	isReady bool
	log     *logging.Logger
}

// NewSnapshotStore открывает хранилище в каталоге dataPath/snapshots
func NewSnapshotStore(dataPath string) (*SnapshotStore, error) {
	dbPath := filepath.Join(dataPath, "snapshots")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return openStore(opts, dbPath)
}

// NewMemorySnapshotStore открывает хранилище в памяти
func NewMemorySnapshotStore() (*SnapshotStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openStore(opts, "")
}

func openStore(opts badger.Options, dbPath string) (*SnapshotStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd кодировщик: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd декодировщик: %w", err)
	}

	return &SnapshotStore{
		db:      db,
		dbPath:  dbPath,
		encoder: encoder,
		decoder: decoder,
		isReady: true,
		log:     logging.GetStorageLogger(),
	}, nil
}

// Close закрывает хранилище. Повторный вызов безопасен.
func (s *SnapshotStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

// snapshotKey ключ снимка в BadgerDB
func snapshotKey(dimension int, coords vec.Vec2) []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d:%d", dimension, coords.X, coords.Z))
}

func dimensionPrefix(dimension int) []byte {
	return []byte(fmt.Sprintf("chunk:%d:", dimension))
}

// SaveSnapshot записывает снимок, заменяя прежний для тех же координат и измерения
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *world.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrClosed
	}

	data, err := json.Marshal(snap.Record())
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	compressed := s.encoder.EncodeAll(data, make([]byte, 0, len(data)/4))

	key := snapshotKey(snap.Dim(), snap.ChunkCoords())
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, compressed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	s.log.Trace("Снимок %s сохранён: %d байт, сжато до %d", key, len(data), len(compressed))
	return nil
}

// LoadSnapshot читает снимок чанка. Для отсутствующего возвращает ErrNotFound.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context, dimension int, coords vec.Vec2) (*world.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, ErrClosed
	}

	var compressed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(dimension, coords))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}

	var rec world.SnapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("ошибка десериализации снимка: %w", err)
	}
	return world.SnapshotFromRecord(rec), nil
}

// DeleteSnapshot удаляет снимок чанка, отсутствие снимка ошибкой не считается
func (s *SnapshotStore) DeleteSnapshot(dimension int, coords vec.Vec2) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey(dimension, coords))
	})
}

// Coords возвращает координаты всех сохранённых чанков измерения
func (s *SnapshotStore) Coords(dimension int) ([]vec.Vec2, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, ErrClosed
	}

	var out []vec.Vec2
	prefix := dimensionPrefix(dimension)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var d int
			var c vec.Vec2
			if _, err := fmt.Sscanf(string(it.Item().Key()), "chunk:%d:%d:%d", &d, &c.X, &c.Z); err != nil {
				s.log.Warn("Некорректный ключ снимка %q: %v", it.Item().Key(), err)
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}
	return out, nil
}
