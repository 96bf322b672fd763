// Package mongo 提供基于 MongoDB 的记录存储.
// files 集合上的 file_name 文本索引决定检索走全文检索还是正则子串匹配.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
	nlog "github.com/yeisme/filterbot/pkg/log"
)

// 集合名称.
const (
	CollectionFiles = "files"
	CollectionUsers = "users"
	CollectionChats = "chats"
)

// Store MongoDB 记录存储.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	files  *mongo.Collection
	users  *mongo.Collection
	chats  *mongo.Collection
}

var _ record.Store = (*Store)(nil)

// New 连接 MongoDB 并检查连通性.
func New(ctx context.Context, cfg configs.MongoConfig) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = configs.DefaultMongoTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	nlog.Logger().Info().Str("database", cfg.Database).Msg("MongoDB 连接成功")

	return NewFromClient(client, cfg.Database), nil
}

// NewFromClient 使用已有客户端创建存储.
func NewFromClient(client *mongo.Client, database string) *Store {
	db := client.Database(database)

	return &Store{
		client: client,
		db:     db,
		files:  db.Collection(CollectionFiles),
		users:  db.Collection(CollectionUsers),
		chats:  db.Collection(CollectionChats),
	}
}

// Kind 返回后端名称.
func (s *Store) Kind() string { return "mongo" }

// EnsureIndexes 创建唯一索引与文件名文本索引.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id_unique").SetUnique(true),
		}}},
		{s.files, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: record.FieldFileName, Value: "text"}},
				Options: options.Index().SetName(record.TextIndexName),
			},
			{
				Keys:    bson.D{{Key: record.FieldFileID, Value: 1}},
				Options: options.Index().SetName("file_id_unique").SetUnique(true),
			},
		}},
		{s.chats, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "chat_id", Value: 1}},
			Options: options.Index().SetName("chat_id_unique").SetUnique(true),
		}}},
	}

	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateMany(ctx, spec.models); err != nil {
			return record.Unavailable("create indexes on "+spec.coll.Name(), err)
		}
	}

	return nil
}

// Ping 检查连接.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return record.Unavailable("ping", err)
	}

	return nil
}

// Close 断开连接.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// FindByTextSearch 使用 $text 检索，按 textScore 降序.
func (s *Store) FindByTextSearch(ctx context.Context, field, text string, limit int) ([]model.FileRecord, error) {
	if err := record.CheckField(field, record.FieldFileName); err != nil {
		return nil, err
	}

	score := bson.M{"$meta": "textScore"}

	opts := options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	out, err := s.find(ctx, bson.M{"$text": bson.M{"$search": text}}, opts)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == errCodeIndexNotFound {
			return nil, record.ErrTextSearchUnsupported
		}

		return nil, record.Unavailable("text search", err)
	}

	return out, nil
}

// errCodeIndexNotFound 服务端 IndexNotFound 错误码，$text 缺少文本索引时返回.
const errCodeIndexNotFound = 27

// FindBySubstring 使用不区分大小写的正则匹配，输入按字面量处理.
func (s *Store) FindBySubstring(ctx context.Context, field, text string, limit int) ([]model.FileRecord, error) {
	if err := record.CheckField(field, record.FieldFileName); err != nil {
		return nil, err
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	filter := bson.M{field: primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}}

	out, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, record.Unavailable("substring search", err)
	}

	return out, nil
}

func (s *Store) find(ctx context.Context, filter any, opts *options.FindOptions) ([]model.FileRecord, error) {
	cur, err := s.files.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var out []model.FileRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// FindOne 按键读取单条记录.
func (s *Store) FindOne(ctx context.Context, key, value string) (model.FileRecord, error) {
	if err := record.CheckField(key, record.FieldFileID); err != nil {
		return model.FileRecord{}, err
	}

	var rec model.FileRecord

	err := s.files.FindOne(ctx, bson.M{key: value}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.FileRecord{}, record.ErrNotFound
	}

	if err != nil {
		return model.FileRecord{}, record.Unavailable("find one", err)
	}

	return rec, nil
}

// UpsertIncrement 使用 $inc + upsert 原子累加.
func (s *Store) UpsertIncrement(ctx context.Context, key, value, field string, amount int64) error {
	if err := record.CheckField(key, record.FieldFileID); err != nil {
		return err
	}

	if err := record.CheckField(field, record.FieldDownloads); err != nil {
		return err
	}

	_, err := s.files.UpdateOne(ctx,
		bson.M{key: value},
		bson.M{"$inc": bson.M{field: amount}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return record.Unavailable("upsert increment", err)
	}

	return nil
}

// UpsertFile 写入元数据，新建时初始化下载计数与入库时间.
func (s *Store) UpsertFile(ctx context.Context, rec model.FileRecord) (bool, error) {
	added := rec.DateAdded
	if added.IsZero() {
		added = time.Now().UTC()
	}

	update := bson.M{
		"$set": bson.M{
			"file_name": rec.FileName,
			"file_type": rec.FileType,
			"file_size": rec.FileSize,
			"mime_type": rec.MimeType,
			"caption":   rec.Caption,
			"chat_id":   rec.ChatID,
		},
		"$setOnInsert": bson.M{
			record.FieldDownloads: int64(0),
			"date_added":          added,
		},
	}

	res, err := s.files.UpdateOne(ctx, bson.M{record.FieldFileID: rec.FileID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, record.Unavailable("upsert file", err)
	}

	return res.UpsertedCount > 0, nil
}

// HasTextIndex 列出 files 集合的索引，查找文本索引.
func (s *Store) HasTextIndex(ctx context.Context, field string) (bool, error) {
	cur, err := s.files.Indexes().List(ctx)
	if err != nil {
		return false, record.Unavailable("list indexes", err)
	}

	var specs []bson.M
	if err := cur.All(ctx, &specs); err != nil {
		return false, record.Unavailable("list indexes", err)
	}

	return hasTextIndex(specs, field), nil
}

// hasTextIndex 文本索引的 key 为 {_fts: "text", _ftsx: 1}，字段记录在 weights 中.
func hasTextIndex(specs []bson.M, field string) bool {
	for _, spec := range specs {
		if name, _ := spec["name"].(string); name == record.TextIndexName {
			return true
		}

		weights, ok := spec["weights"].(bson.M)
		if !ok {
			continue
		}

		if _, ok := weights[field]; ok {
			return true
		}

		if _, ok := weights["$**"]; ok {
			return true
		}
	}

	return false
}

// CountFiles 返回文件总数.
func (s *Store) CountFiles(ctx context.Context) (int64, error) {
	return s.count(ctx, s.files)
}

// AddUser 首次出现时写入用户.
func (s *Store) AddUser(ctx context.Context, u model.UserRecord) (bool, error) {
	if u.JoinDate.IsZero() {
		u.JoinDate = time.Now().UTC()
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"user_id": u.UserID},
		bson.M{"$setOnInsert": u},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, record.Unavailable("add user", err)
	}

	return res.UpsertedCount > 0, nil
}

// GetUser 读取用户.
func (s *Store) GetUser(ctx context.Context, userID int64) (model.UserRecord, error) {
	var u model.UserRecord

	err := s.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.UserRecord{}, record.ErrNotFound
	}

	if err != nil {
		return model.UserRecord{}, record.Unavailable("get user", err)
	}

	return u, nil
}

// SetBanned 设置封禁状态.
func (s *Store) SetBanned(ctx context.Context, userID int64, banned bool) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{"banned": banned}})
	if err != nil {
		return record.Unavailable("set banned", err)
	}

	if res.MatchedCount == 0 {
		return record.ErrNotFound
	}

	return nil
}

// CountUsers 返回用户总数.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, s.users)
}

// AddChat 首次出现时写入会话.
func (s *Store) AddChat(ctx context.Context, c model.ChatRecord) (bool, error) {
	if c.DateAdded.IsZero() {
		c.DateAdded = time.Now().UTC()
	}

	res, err := s.chats.UpdateOne(ctx,
		bson.M{"chat_id": c.ChatID},
		bson.M{"$setOnInsert": c},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, record.Unavailable("add chat", err)
	}

	return res.UpsertedCount > 0, nil
}

// CountChats 返回会话总数.
func (s *Store) CountChats(ctx context.Context) (int64, error) {
	return s.count(ctx, s.chats)
}

func (s *Store) count(ctx context.Context, coll *mongo.Collection) (int64, error) {
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, record.Unavailable("count "+coll.Name(), err)
	}

	return n, nil
}
