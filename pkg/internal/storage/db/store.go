package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
)

// foldColumn 保存 model.FoldName(file_name) 的列.
const foldColumn = "file_name_fold"

// backfillBatch 补齐 file_name_fold 时每批处理的记录数.
const backfillBatch = 500

// likeEscape LIKE 模式的转义字符，选用在各方言字符串字面量中都无特殊含义的字符.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// Store 基于 GORM 的 record.Store 实现.
type Store struct {
	client *Client
}

var _ record.Store = (*Store)(nil)

// NewStore 创建 SQL 记录存储.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.client.WithContext(ctx)
}

// Kind 返回后端名称.
func (s *Store) Kind() string {
	return "sql/" + strings.ToLower(s.client.cfg.GetDBType())
}

// EnsureIndexes 自动迁移表结构与索引.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := s.db(ctx).AutoMigrate(&model.FileRecord{}, &model.UserRecord{}, &model.ChatRecord{}); err != nil {
		return record.Unavailable("auto migrate", err)
	}

	if err := s.backfillFold(ctx); err != nil {
		return record.Unavailable("backfill "+foldColumn, err)
	}

	return nil
}

// backfillFold 为缺少 file_name_fold 的旧记录补齐该列.
func (s *Store) backfillFold(ctx context.Context) error {
	var batch []model.FileRecord

	return s.db(ctx).
		Select("id", record.FieldFileName).
		Where(foldColumn+" = ? AND "+record.FieldFileName+" <> ?", "", "").
		FindInBatches(&batch, backfillBatch, func(_ *gorm.DB, _ int) error {
			for _, rec := range batch {
				err := s.db(ctx).Model(&model.FileRecord{}).
					Where("id = ?", rec.ID).
					Update(foldColumn, model.FoldName(rec.FileName)).Error
				if err != nil {
					return err
				}
			}

			return nil
		}).Error
}

// Ping 检查连接.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.client.DB.DB()
	if err != nil {
		return record.Unavailable("ping", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return record.Unavailable("ping", err)
	}

	return nil
}

// Close 关闭连接池.
func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.client.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// FindByTextSearch SQL 后端不支持全文检索.
func (s *Store) FindByTextSearch(_ context.Context, _, _ string, _ int) ([]model.FileRecord, error) {
	return nil, record.ErrTextSearchUnsupported
}

// FindBySubstring 在小写化的文件名列上做 LIKE 子串匹配，不区分大小写，按主键顺序返回.
func (s *Store) FindBySubstring(ctx context.Context, field, text string, limit int) ([]model.FileRecord, error) {
	if err := record.CheckField(field, record.FieldFileName); err != nil {
		return nil, err
	}

	pattern := "%" + likeReplacer.Replace(model.FoldName(text)) + "%"

	q := s.db(ctx).
		Where(foldColumn+" LIKE ? ESCAPE '"+likeEscape+"'", pattern).
		Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []model.FileRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, record.Unavailable("find by substring", err)
	}

	return out, nil
}

// FindOne 按键读取单条文件记录.
func (s *Store) FindOne(ctx context.Context, key, value string) (model.FileRecord, error) {
	if err := record.CheckField(key, record.FieldFileID); err != nil {
		return model.FileRecord{}, err
	}

	var rec model.FileRecord

	err := s.db(ctx).Where(key+" = ?", value).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.FileRecord{}, record.ErrNotFound
	}

	if err != nil {
		return model.FileRecord{}, record.Unavailable("find one", err)
	}

	return rec, nil
}

// UpsertIncrement 使用 INSERT ... ON CONFLICT DO UPDATE 原子累加计数.
func (s *Store) UpsertIncrement(ctx context.Context, key, value, field string, amount int64) error {
	if err := record.CheckField(key, record.FieldFileID); err != nil {
		return err
	}

	if err := record.CheckField(field, record.FieldDownloads); err != nil {
		return err
	}

	stub := model.FileRecord{
		FileID:    value,
		FileType:  model.FileTypeUnknown,
		Downloads: amount,
		DateAdded: time.Now().UTC(),
	}

	table := model.FileRecord{}.TableName()

	err := s.db(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: key}},
		DoUpdates: clause.Assignments(map[string]any{
			field: gorm.Expr(table+"."+field+" + ?", amount),
		}),
	}).Create(&stub).Error
	if err != nil {
		return record.Unavailable("upsert increment", err)
	}

	return nil
}

// UpsertFile 写入或更新文件元数据，保留已有的下载计数与入库时间.
func (s *Store) UpsertFile(ctx context.Context, rec model.FileRecord) (bool, error) {
	created := false

	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.FileRecord

		err := tx.Where(record.FieldFileID+" = ?", rec.FileID).Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			rec.ID = 0
			rec.Downloads = 0

			if rec.DateAdded.IsZero() {
				rec.DateAdded = time.Now().UTC()
			}

			rec.NameFold = model.FoldName(rec.FileName)

			return tx.Create(&rec).Error
		}

		if err != nil {
			return err
		}

		return tx.Model(&existing).Updates(map[string]any{
			"file_name": rec.FileName,
			foldColumn:  model.FoldName(rec.FileName),
			"file_type": rec.FileType,
			"file_size": rec.FileSize,
			"mime_type": rec.MimeType,
			"caption":   rec.Caption,
			"chat_id":   rec.ChatID,
		}).Error
	})
	if err != nil {
		return false, record.Unavailable("upsert file", err)
	}

	return created, nil
}

// HasTextIndex SQL 后端没有全文索引.
func (s *Store) HasTextIndex(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// CountFiles 返回文件总数.
func (s *Store) CountFiles(ctx context.Context) (int64, error) {
	return s.count(ctx, &model.FileRecord{})
}

// AddUser 首次出现时写入用户.
func (s *Store) AddUser(ctx context.Context, u model.UserRecord) (bool, error) {
	u.ID = 0
	if u.JoinDate.IsZero() {
		u.JoinDate = time.Now().UTC()
	}

	res := s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&u)
	if res.Error != nil {
		return false, record.Unavailable("add user", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// GetUser 读取用户.
func (s *Store) GetUser(ctx context.Context, userID int64) (model.UserRecord, error) {
	var u model.UserRecord

	err := s.db(ctx).Where("user_id = ?", userID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.UserRecord{}, record.ErrNotFound
	}

	if err != nil {
		return model.UserRecord{}, record.Unavailable("get user", err)
	}

	return u, nil
}

// SetBanned 设置封禁状态.
func (s *Store) SetBanned(ctx context.Context, userID int64, banned bool) error {
	res := s.db(ctx).Model(&model.UserRecord{}).Where("user_id = ?", userID).Update("banned", banned)
	if res.Error != nil {
		return record.Unavailable("set banned", res.Error)
	}

	if res.RowsAffected == 0 {
		return record.ErrNotFound
	}

	return nil
}

// CountUsers 返回用户总数.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, &model.UserRecord{})
}

// AddChat 首次出现时写入会话.
func (s *Store) AddChat(ctx context.Context, c model.ChatRecord) (bool, error) {
	c.ID = 0
	if c.DateAdded.IsZero() {
		c.DateAdded = time.Now().UTC()
	}

	res := s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoNothing: true,
	}).Create(&c)
	if res.Error != nil {
		return false, record.Unavailable("add chat", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// CountChats 返回会话总数.
func (s *Store) CountChats(ctx context.Context) (int64, error) {
	return s.count(ctx, &model.ChatRecord{})
}

func (s *Store) count(ctx context.Context, m any) (int64, error) {
	var n int64
	if err := s.db(ctx).Model(m).Count(&n).Error; err != nil {
		return 0, record.Unavailable("count", err)
	}

	return n, nil
}
