package mysql

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	driver "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
)

// Open 连接 MySQL 并设置连接池
func Open(dsn, logLevel string) (*gorm.DB, error) {
	db, err := Connect(gormmysql.Open(dsn), logLevel)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	// 启动期 Ping 一次，提前暴露网络/认证问题
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// Connect 打开任意方言，测试里用 sqlite
func Connect(dialector gorm.Dialector, logLevel string) (*gorm.DB, error) {
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return gorm.Open(dialector, &gorm.Config{
		Logger:         gLogger,
		TranslateError: true,
	})
}

// AutoMigrate 建表；级联删除由仓储层显式完成，不依赖外键
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Board{},
		&model.Post{},
		&model.Vote{},
		&model.VoteOutbox{},
	)
}

func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *driver.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrapErr 把驱动/gorm 错误翻译成 pkg 中的错误分类，并带上实体标识
func wrapErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, pkg.ErrNotFound), errors.Is(err, pkg.ErrUniqueViolation):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", pkg.ErrNotFound, what)
	case isDuplicate(err):
		return fmt.Errorf("%w: %s", pkg.ErrUniqueViolation, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// adjustCounter 原子地修改帖子计数，delta<0 时不会减到负数
func adjustCounter(tx *gorm.DB, column string, delta int, postIDs ...uint64) error {
	if len(postIDs) == 0 || delta == 0 {
		return nil
	}
	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN "+column+" >= ? THEN "+column+" - ? ELSE 0 END", -delta, -delta)
	}
	return tx.Model(&model.Post{}).
		Where("id IN ?", postIDs).
		UpdateColumn(column, expr).Error
}
