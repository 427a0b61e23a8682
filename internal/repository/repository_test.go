package repository

import (
	"testing"

	"uni_exam_backend/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 内存 sqlite，建表逻辑与生产启动时的迁移保持一致
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// 内存库跟随连接存在，连接池收紧到单连接
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.Exam{},
		&model.ExamQuestion{},
		&model.ExamAnswerTemplate{},
		&model.ExamParticipant{},
		&model.ExamAnswer{},
		&model.FullscreenEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
