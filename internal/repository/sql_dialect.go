package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// applyRowLock 对支持 FOR UPDATE 的方言加排他行锁。
// sqlite 单写者天然串行化，不支持该子句，直接返回原查询。
func applyRowLock(query *gorm.DB) *gorm.DB {
	if query == nil {
		return query
	}
	switch dbDialectName(query) {
	case "postgres", "postgresql":
		return query.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return query
	}
}
