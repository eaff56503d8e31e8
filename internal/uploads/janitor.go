package uploads

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweep: TempDir 内で maxAge より古いファイルを削除し、件数を返す
func (s *Storage) Sweep(now time.Time, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.TempDir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(s.TempDir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// StartJanitor: 定期的に Sweep を回す。停止は戻り値の Stop()
func (s *Storage) StartJanitor(every, maxAge time.Duration) (*gocron.Scheduler, error) {
	sched := gocron.NewScheduler(time.UTC)
	_, err := sched.Every(every).Do(func() {
		n, err := s.Sweep(time.Now(), maxAge)
		if err != nil {
			log.Printf("[WARN] upload sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[INFO] upload sweep removed %d stale file(s)", n)
		}
	})
	if err != nil {
		return nil, err
	}
	sched.StartAsync()
	return sched, nil
}
