package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StoreType 记录存储后端类型.
type StoreType string

const (
	StoreTypeMongo StoreType = "mongo"
	StoreTypeSQL   StoreType = "sql"
)

// DBType SQL 数据库类型.
type DBType string

const (
	// PostgreSQL 协议.
	PostgreSQL DBType = "postgresql"
	Postgres   DBType = "postgres"
	Pg         DBType = "pg"

	// MySQL 协议.
	MySQL   DBType = "mysql"
	MariaDB DBType = "mariadb"
	// SQLite 协议.
	SQLite DBType = "sqlite"
)

const (
	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultMongoDatabase = "movie_filter_bot"
	DefaultMongoTimeout  = 10 * time.Second

	DefaultDatabaseHost     = "localhost" // 默认数据库主机
	DefaultDatabasePort     = 5432        // 默认数据库端口
	DefaultDatabaseUser     = "postgres"  // 默认数据库用户
	DefaultDatabasePassword = ""          // 默认数据库密码
	DefaultDatabaseName     = "filterbot" // 默认数据库名称
	DefaultDatabaseSSLMode  = "disable"   // 默认数据库SSL模式
	DefaultMaxOpenConns     = 0           // 默认不限制打开连接数
	DefaultMaxIdleConns     = 5           // 默认最大空闲连接数
)

// StoreConfig 记录存储配置.
type StoreConfig struct {
	Type  StoreType   `mapstructure:"type"  rule:"oneof=mongo sql"`
	Mongo MongoConfig `mapstructure:"mongo"`
	SQL   DBConfig    `mapstructure:"sql"`
}

// MongoConfig MongoDB 配置.
type MongoConfig struct {
	URI         string        `mapstructure:"uri"           rule:"required"`
	Database    string        `mapstructure:"database"      rule:"required"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxPoolSize uint64        `mapstructure:"max_pool_size"`
}

// DBConfig SQL 数据库配置.
type DBConfig struct {
	Type         DBType `mapstructure:"type"           rule:"oneof=postgresql postgres pg mysql mariadb sqlite"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"           rule:"min=0,max=65535"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" rule:"min=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" rule:"min=0"`
}

// GetDBType 返回数据库类型的字符串表示.
func (c *DBConfig) GetDBType() string {
	switch c.Type {
	case PostgreSQL, Postgres, Pg:
		return "PostgreSQL"
	case MySQL, MariaDB:
		return "MySQL"
	case SQLite:
		return "SQLite"
	default:
		return "Unknown"
	}
}

// GetDSN 获取数据库的连接字符串，根据不同的数据库类型返回不同格式的DSN.
func (c *DBConfig) GetDSN() string {
	dsnMap := map[DBType]func() string{
		PostgreSQL: c.getPgSQLDSN,
		Postgres:   c.getPgSQLDSN,
		Pg:         c.getPgSQLDSN,
		MySQL:      c.getMySQLDSN,
		MariaDB:    c.getMySQLDSN,
		SQLite:     c.getSQLiteDSN,
	}

	if fn, ok := dsnMap[c.Type]; ok {
		return fn()
	}

	return ""
}

// getPgSQLDSN 获取PostgreSQL的DSN.
func (c *DBConfig) getPgSQLDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// getMySQLDSN 获取MySQL的DSN.
func (c *DBConfig) getMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// getSQLiteDSN 获取SQLite的DSN，以 file: 开头的值视为完整 DSN.
func (c *DBConfig) getSQLiteDSN() string {
	if strings.HasPrefix(c.Database, "file:") {
		return c.Database
	}

	if c.Database == ":memory:" {
		return "file::memory:?cache=shared"
	}

	return fmt.Sprintf("file:%s.db", c.Database)
}

func (c *StoreConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("store.type", StoreTypeMongo)

	v.SetDefault("store.mongo.uri", DefaultMongoURI)
	v.SetDefault("store.mongo.database", DefaultMongoDatabase)
	v.SetDefault("store.mongo.timeout", DefaultMongoTimeout)
	v.SetDefault("store.mongo.max_pool_size", 0)

	v.SetDefault("store.sql.type", SQLite)
	v.SetDefault("store.sql.host", DefaultDatabaseHost)
	v.SetDefault("store.sql.port", DefaultDatabasePort)
	v.SetDefault("store.sql.user", DefaultDatabaseUser)
	v.SetDefault("store.sql.password", DefaultDatabasePassword)
	v.SetDefault("store.sql.database", DefaultDatabaseName)
	v.SetDefault("store.sql.sslmode", DefaultDatabaseSSLMode)
	v.SetDefault("store.sql.max_open_conns", DefaultMaxOpenConns)
	v.SetDefault("store.sql.max_idle_conns", DefaultMaxIdleConns)
}
