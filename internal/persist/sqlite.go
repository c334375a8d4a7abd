package persist

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// stateRow is one persisted document. Revision bumps on every write and
// is what the change poller watches.
type stateRow struct {
	Key       string `gorm:"primaryKey;size:190"`
	Raw       string `gorm:"type:text"`
	Revision  int64
	UpdatedAt time.Time
}

func (stateRow) TableName() string { return "board_state" }

// DefaultPoll is how often the external-change watcher checks for
// revisions written by other processes.
const DefaultPoll = 500 * time.Millisecond

// SQLiteStore is a LocalStore over an embedded SQLite file, shared by
// every board process on the machine. External changes are detected by
// polling the row revision; this process's own writes record the
// revision they produced so the poller skips them.
type SQLiteStore struct {
	db   *gorm.DB
	poll time.Duration

	mu   sync.Mutex
	seen map[string]int64
}

func OpenSQLite(path string, poll time.Duration) (*SQLiteStore, error) {
	if poll <= 0 {
		poll = DefaultPoll
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	if err := db.AutoMigrate(&stateRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
	}
	return &SQLiteStore{db: db, poll: poll, seen: make(map[string]int64)}, nil
}

func (s *SQLiteStore) Read(key string) (string, bool, error) {
	var row stateRow
	err := s.db.Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	s.mu.Lock()
	s.seen[key] = row.Revision
	s.mu.Unlock()
	return row.Raw, true, nil
}

func (s *SQLiteStore) Write(key, raw string) error {
	var rev int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row stateRow
		err := tx.Where("key = ?", key).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = stateRow{Key: key, Raw: raw, Revision: 1, UpdatedAt: time.Now()}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			row.Raw = raw
			row.Revision++
			updates := map[string]any{"raw": raw, "revision": row.Revision, "updated_at": time.Now()}
			if err := tx.Model(&stateRow{}).Where("key = ?", key).Updates(updates).Error; err != nil {
				return err
			}
		}
		rev = row.Revision
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	s.mu.Lock()
	s.seen[key] = rev
	s.mu.Unlock()
	return nil
}

func (s *SQLiteStore) OnExternalChange(key string, fn func(raw string)) (func(), error) {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				var row stateRow
				if err := s.db.Where("key = ?", key).First(&row).Error; err != nil {
					continue
				}
				s.mu.Lock()
				last, known := s.seen[key]
				if known && row.Revision == last {
					s.mu.Unlock()
					continue
				}
				s.seen[key] = row.Revision
				s.mu.Unlock()
				fn(row.Raw)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
