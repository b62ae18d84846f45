// internal/pkg/database/mysql.go
package database

import (
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Options 描述一个 MySQL 连接目标。
type Options struct {
	Addr     string
	User     string
	Password string
	Database string
}

// Open 建立一个 GORM MySQL 连接。
// DSN 统一通过 mysql.Config 构造，避免手工拼接遗漏 parseTime 之类的参数。
func Open(opts Options) (*gorm.DB, error) {
	dsn := mysql.NewConfig()
	dsn.Net = "tcp"
	dsn.Addr = opts.Addr
	dsn.User = opts.User
	dsn.Passwd = opts.Password
	dsn.DBName = opts.Database
	dsn.ParseTime = true
	dsn.Loc = time.UTC

	db, err := gorm.Open(gormmysql.Open(dsn.FormatDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
