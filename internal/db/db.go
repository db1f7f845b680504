package db

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"echonews/internal/config"
	"echonews/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Init opens the configured database, migrates the schema and seeds
// reference rows.
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	conn, err := Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, err
	}
	slog.Info("database connection established", "driver", cfg.Driver)

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	slog.Info("database migration completed")

	if err := Seed(conn); err != nil {
		return nil, err
	}

	return conn, nil
}

func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(os.Stderr),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// 内存库每个连接都是独立的数据库
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	return conn, nil
}

// newGormLogger 只记录慢查询和真正的错误，"record not found" 是正常的查询结果
func newGormLogger(out io.Writer) logger.Interface {
	return logger.New(log.New(out, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func Migrate(conn *gorm.DB) error {
	if err := conn.SetupJoinTable(&models.Article{}, "Tags", &models.ArticleTag{}); err != nil {
		return fmt.Errorf("failed to setup article_tags: %w", err)
	}

	err := conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Article{},
		&models.ArticleTag{},
		&models.Comment{},
		&models.Vote{},
		&models.UserActivity{},
		&models.Badge{},
		&models.UserBadge{},
		&models.UserPreference{},
		&models.Notification{},
		&models.Feed{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Badge names awarded by the services.
const (
	BadgeNewMember    = "New Member"
	BadgeFirstArticle = "First Article"
	BadgeFirstComment = "First Comment"
)

func Seed(conn *gorm.DB) error {
	badges := []models.Badge{
		{Name: BadgeNewMember, Description: "Joined the community", Icon: "🌱"},
		{Name: BadgeFirstArticle, Description: "Submitted a first article", Icon: "📰"},
		{Name: BadgeFirstComment, Description: "Wrote a first comment", Icon: "💬"},
	}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&badges).Error; err != nil {
		return fmt.Errorf("failed to seed badges: %w", err)
	}

	categories := []models.Category{
		{Name: "Technology", Description: "Software, hardware and the web"},
		{Name: "Science", Description: "Research and discoveries"},
		{Name: "World", Description: "International news"},
		{Name: "Culture", Description: "Books, film, music and ideas"},
	}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	return nil
}
