package metadata

import (
	"fmt"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	memoryDatabase = ":memory:"
)

type MySQLConfig struct {
	User     string
	Password string
	Host     string
	Database string
}

func (c *MySQLConfig) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Database)
}

type SQLiteConfig struct {
	// File 数据库文件路径，":memory:" 表示内存数据库
	File string
}

/*
Config 元数据库配置。

	Driver 为 mysql 或 sqlite；
	DSN 非空时直接使用，忽略 MySQL / SQLite；
	CheckMigration 启动时自动迁移表结构。
*/
type Config struct {
	Driver         string
	DSN            string
	MySQL          MySQLConfig
	SQLite         SQLiteConfig
	CheckMigration bool
}

func GenerateTestConfig() *Config {
	return &Config{
		Driver:         DriverSQLite,
		SQLite:         SQLiteConfig{File: memoryDatabase},
		CheckMigration: true,
	}
}

var db *gorm.DB

func openDialector(config *Config) (gorm.Dialector, error) {
	switch config.Driver {
	case DriverMySQL:
		dsn := config.DSN
		if len(dsn) == 0 {
			dsn = config.MySQL.dsn()
		}
		return mysql.Open(dsn), nil

	case DriverSQLite, "":
		dsn := config.DSN
		if len(dsn) == 0 {
			dsn = config.SQLite.File
		}
		if len(dsn) == 0 {
			dsn = memoryDatabase
		}
		return sqlite.Open(dsn), nil

	default:
		return nil, fmt.Errorf("unknown metadata driver %q", config.Driver)
	}
}

func CreateDatabase(config *Config) (*gorm.DB, error) {
	dialector, err := openDialector(config)
	if err != nil {
		return nil, err
	}

	database, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(&sqlLogger{logger: logging.NewLogger()}, logger.Config{LogLevel: logger.Info}),
	})
	if err != nil {
		return nil, utils.WrapError(err, "db connection fail")
	}

	if config.Driver != DriverMySQL {
		// every pooled connection to an in-memory sqlite database would see its own empty database
		sqlDB, err := database.DB()
		if err != nil {
			return nil, utils.WrapError(err, "get sql.DB fail")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if config.CheckMigration {
		err = migration(database, config.Driver)
		if err != nil {
			return nil, utils.WrapError(err, "migration fail")
		}
	}

	return database, nil
}

func migration(db *gorm.DB, driver string) error {
	tables := []interface{}{
		&TrainingRun{}, &InferenceJob{},
	}

	if driver == DriverMySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci")
	}

	err := db.AutoMigrate(tables...)
	if err != nil {
		return utils.WrapError(err, "AutoMigrate fail")
	}

	return nil
}

func Init(config *Config) error {
	database, err := CreateDatabase(config)
	if err != nil {
		return err
	}

	db = database
	return nil
}

func DatabaseRaw() *gorm.DB {
	return db
}
