// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/chidiya/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecord 保存对局记录
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	row := models.GormGameRecord{
		RoomCode:   record.RoomCode,
		WinnerID:   record.WinnerID,
		WinnerName: record.WinnerName,
		Rounds:     record.Rounds,
		DurationMs: record.DurationMs,
		Players:    players,
	}
	return p.db.Create(&row).Error
}

// RecentRecords 按时间倒序返回最近的对局
func (p *GormPostgreSQL) RecentRecords(limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	if err := p.db.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.GameRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.GameRecord{
			RoomCode:   row.RoomCode,
			WinnerID:   row.WinnerID,
			WinnerName: row.WinnerName,
			Rounds:     row.Rounds,
			DurationMs: row.DurationMs,
			CreatedAt:  row.CreatedAt,
		}
		if err := json.Unmarshal(row.Players, &rec.Players); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Stats 聚合统计
func (p *GormPostgreSQL) Stats() (*models.GameStats, error) {
	stats := &models.GameStats{}

	if err := p.db.Model(&models.GormGameRecord{}).Count(&stats.TotalGames).Error; err != nil {
		return nil, err
	}
	if err := p.db.Model(&models.GormGameRecord{}).Where("winner_id = ''").Count(&stats.Draws).Error; err != nil {
		return nil, err
	}

	var totalRounds *int64
	if err := p.db.Model(&models.GormGameRecord{}).Select("SUM(rounds)").Scan(&totalRounds).Error; err != nil {
		return nil, err
	}
	if totalRounds != nil {
		stats.TotalRounds = *totalRounds
	}

	return stats, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
