// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/chidiya/models"
)

// Database 数据库接口：废弃房间不入库，只有打完的对局留档
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	RecentRecords(limit int) ([]models.GameRecord, error)
	Stats() (*models.GameStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
