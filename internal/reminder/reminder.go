package reminder

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"teaboard/internal/domain"
	"teaboard/internal/store"
)

// Sweeper raises an INFO notification for tables stuck in ORDERED past
// the configured age, once per order (re-keyed by the order's start
// time, so the next order on the same table reminds again).
type Sweeper struct {
	st         *store.Store
	staleAfter time.Duration
	cron       *cron.Cron
	log        *zap.SugaredLogger

	mu       sync.Mutex
	reminded map[string]int64 // table id -> startedAt already reminded for
}

func New(st *store.Store, staleAfter time.Duration, lg *zap.SugaredLogger) *Sweeper {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Sweeper{
		st:         st,
		staleAfter: staleAfter,
		cron:       cron.New(),
		log:        lg,
		reminded:   make(map[string]int64),
	}
}

func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep runs one pass; exported so tests can drive it directly.
func (s *Sweeper) Sweep() {
	state := s.st.State()
	now := time.Now().UnixMilli()
	for _, id := range s.st.TableIDs() {
		t, ok := state.Tables[id]
		if !ok || t.Status != domain.StatusOrdered || t.StartedAt == nil {
			continue
		}
		age := time.Duration(now-*t.StartedAt) * time.Millisecond
		if age < s.staleAfter {
			continue
		}
		s.mu.Lock()
		if s.reminded[id] == *t.StartedAt {
			s.mu.Unlock()
			continue
		}
		s.reminded[id] = *t.StartedAt
		s.mu.Unlock()

		s.log.Infow("stale_order", "table_id", id, "age", age.Round(time.Minute))
		s.st.Dispatch(store.PushNotification{Notification: domain.Notification{
			ID:        uuid.NewString(),
			Kind:      domain.NoteInfo,
			Message:   fmt.Sprintf("Table %s has been waiting for %d min", id, int(age.Minutes())),
			CreatedAt: now,
		}})
	}
}
