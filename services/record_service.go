// services/record_service.go
package services

import (
	"github.com/wfunc/chidiya/logger"
	"github.com/wfunc/chidiya/models"
	"github.com/wfunc/chidiya/persistence"
)

// RecordService persists finished games and serves aggregate stats. It
// tolerates a nil database, in which case recording is a no-op; the game
// itself never depends on storage being up.
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// SaveGame implements room.GameRecorder. The write happens on its own
// goroutine so the room's event loop never waits on the database.
func (s *RecordService) SaveGame(record *models.GameRecord) {
	if s.db == nil {
		return
	}
	go func() {
		if err := s.db.SaveGameRecord(record); err != nil {
			logger.Log.Errorf("failed to save game record for room %s: %v", record.RoomCode, err)
		}
	}()
}

// RecentGames returns the latest finished games, newest first.
func (s *RecordService) RecentGames(limit int) ([]models.GameRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.db.RecentRecords(limit)
}

// Stats returns aggregate counters over all recorded games.
func (s *RecordService) Stats() (*models.GameStats, error) {
	if s.db == nil {
		return &models.GameStats{}, nil
	}
	return s.db.Stats()
}
