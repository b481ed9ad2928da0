package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// Apply TTL only for guest identities
	var ttl time.Duration
	if account.IsGuest {
		ttl = s.cfg.GuestAccountTTL
	}

	return s.client.Set(ctx, accountKey(account.ID), data, ttl).Err()
}

func (s *Storage) GetAccount(ctx context.Context, id model.PlayerID) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.PlayerID) error {
	return s.client.Del(ctx, accountKey(id)).Err()
}

// Registered account operations

func (s *Storage) SaveRegisteredAccount(ctx context.Context, ra *model.RegisteredAccount) error {
	data, err := json.Marshal(ra)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, registeredAccountKey(ra.PlayerID), data, 0) // No TTL
	pipe.Set(ctx, usernameIndexKey(ra.Username), string(ra.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredAccount(ctx context.Context, playerID model.PlayerID) (*model.RegisteredAccount, error) {
	data, err := s.client.Get(ctx, registeredAccountKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var ra model.RegisteredAccount
	if err := json.Unmarshal(data, &ra); err != nil {
		return nil, err
	}
	return &ra, nil
}

func (s *Storage) GetRegisteredAccountByUsername(ctx context.Context, username string) (*model.RegisteredAccount, error) {
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetRegisteredAccount(ctx, model.PlayerID(playerIDStr))
}

// Room operations

func (s *Storage) SaveNewRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	// SETNX claims the id; only the winner updates the activity index
	set, err := s.client.SetNX(ctx, roomKey(room.ID), data, s.cfg.RoomTTL).Result()
	if err != nil {
		return err
	}
	if !set {
		return model.ErrDuplicateRoomID
	}

	score := float64(room.LastActivity.Unix())
	return s.client.ZAdd(ctx, activeRoomsIndexKey(), redis.Z{Score: score, Member: string(room.ID)}).Err()
}

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	score := float64(room.LastActivity.Unix())

	// Pipeline the document write with the index flip so the room is
	// always in exactly one of the two activity indexes
	pipe := s.client.Pipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	if room.Active {
		pipe.ZAdd(ctx, activeRoomsIndexKey(), redis.Z{Score: score, Member: string(room.ID)})
		pipe.ZRem(ctx, inactiveRoomsIndexKey(), string(room.ID))
	} else {
		pipe.ZAdd(ctx, inactiveRoomsIndexKey(), redis.Z{Score: score, Member: string(room.ID)})
		pipe.ZRem(ctx, activeRoomsIndexKey(), string(room.ID))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.ZRem(ctx, activeRoomsIndexKey(), string(id))
	pipe.ZRem(ctx, inactiveRoomsIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	exists, err := s.client.Exists(ctx, roomKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) ListActiveRooms(ctx context.Context) ([]*model.Room, error) {
	// Highest score first: most recent activity leads the listing
	ids, err := s.client.ZRevRange(ctx, activeRoomsIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*model.Room{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(model.RoomID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*model.Room, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Document may have expired under the index
		}
		var room model.Room
		if err := json.Unmarshal([]byte(val.(string)), &room); err != nil {
			continue // Skip invalid data
		}
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

func (s *Storage) DeactivateRoom(ctx context.Context, id model.RoomID) error {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	room.Active = false
	return s.SaveRoom(ctx, room)
}

func (s *Storage) DeleteInactiveRoomsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	max := strconv.FormatInt(cutoff.Unix(), 10)
	ids, err := s.client.ZRangeByScore(ctx, inactiveRoomsIndexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + max,
	}).Result()
	if err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, roomKey(model.RoomID(id)))
		pipe.ZRem(ctx, inactiveRoomsIndexKey(), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Hall of fame operations

func (s *Storage) SaveHallOfFameEntry(ctx context.Context, entry *model.HallOfFameEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, hallOfFameKey(entry.Username), data, 0)
	pipe.SAdd(ctx, hallOfFameIndexKey(), entry.Username)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetHallOfFameEntry(ctx context.Context, username string) (*model.HallOfFameEntry, error) {
	data, err := s.client.Get(ctx, hallOfFameKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var entry model.HallOfFameEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Storage) ListHallOfFame(ctx context.Context) ([]*model.HallOfFameEntry, error) {
	usernames, err := s.client.SMembers(ctx, hallOfFameIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(usernames) == 0 {
		return []*model.HallOfFameEntry{}, nil
	}

	keys := make([]string, len(usernames))
	for i, u := range usernames {
		keys[i] = hallOfFameKey(u)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.HallOfFameEntry, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var entry model.HallOfFameEntry
		if err := json.Unmarshal([]byte(val.(string)), &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Points > entries[j].Points
	})
	return entries, nil
}
