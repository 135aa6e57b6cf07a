// Package history 播放历史的 sqlite 存储。
// 以 (platform, room_id) 为唯一键做 upsert，列表按最近播放时间倒序
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alley-rs/lsar/src/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id              INTEGER PRIMARY KEY,
	platform        INTEGER NOT NULL,
	room_id         INTEGER NOT NULL,
	anchor          TEXT NOT NULL,
	category        TEXT NOT NULL,
	last_title      TEXT NOT NULL,
	last_play_time  DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_platform_room_id ON history (platform, room_id);
`

// Item 一条播放历史
type Item struct {
	ID           int64
	Platform     types.Platform
	RoomID       int64
	Anchor       string
	Category     string
	LastTitle    string
	LastPlayTime time.Time
}

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化历史表失败: %w", err)
	}
	return &Store{db: db}, nil
}

// Upsert 插入或更新一条历史，主播名以首次记录为准
func (s *Store) Upsert(ctx context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (platform, room_id, anchor, category, last_title, last_play_time)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(platform, room_id) DO UPDATE SET
			category = excluded.category,
			last_title = excluded.last_title,
			last_play_time = excluded.last_play_time
	`, item.Platform.Code(), item.RoomID, item.Anchor, item.Category, item.LastTitle,
		item.LastPlayTime.Format("2006-01-02 15:04:05"))
	return err
}

// List 全部历史，最近播放的在前
func (s *Store) List(ctx context.Context) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, platform, room_id, anchor, category, last_title, last_play_time
		FROM history ORDER BY last_play_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item := &Item{}
		var code int64
		var playTime string
		if err := rows.Scan(&item.ID, &code, &item.RoomID, &item.Anchor,
			&item.Category, &item.LastTitle, &playTime); err != nil {
			return nil, err
		}
		platform, err := types.FromCode(code)
		if err != nil {
			return nil, err
		}
		item.Platform = platform
		if t, err := time.Parse("2006-01-02 15:04:05", playTime); err == nil {
			item.LastPlayTime = t
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete 按 id 删除，不存在时不报错
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
