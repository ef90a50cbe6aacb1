package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"userapi/internal/cache"
	"userapi/internal/model"
	"userapi/internal/repository"
)

var (
	ErrInvalidID    = errors.New("id must be a positive integer")
	ErrNameRequired = errors.New("name is required")
)

// UserService is the user-facing CRUD service.
type UserService interface {
	CRUD[model.User, int64]
}

// userService validates input and fronts GetByID with an optional read-through cache.
// Writes that can change or remove a cached row evict it.
type userService struct {
	CRUD[model.User, int64]

	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger

	// mu guards gen, which evict bumps. A load only fills the cache if gen did not move while it read.
	mu  sync.Mutex
	gen uint64
}

// NewUserService constructs a UserService. A nil cache disables caching.
func NewUserService(mapper repository.UserMapper, c cache.Cache, ttl time.Duration, log zerolog.Logger) UserService {
	return &userService{
		CRUD:  NewCRUD[model.User, int64](mapper, "id"),
		cache: c,
		ttl:   ttl,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if s.cache == nil {
		return s.CRUD.GetByID(ctx, id)
	}

	key := cacheKey(id)
	if b, err := s.cache.Get(ctx, key); err == nil {
		var u model.User
		if err := json.Unmarshal(b, &u); err == nil {
			return &u, nil
		}
		s.log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
	} else if !errors.Is(err, cache.ErrKeyNotFound) {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to database")
	}

	// Concurrent misses for the same id share one database round trip. The load is detached
	// from the caller's cancellation since other callers may be waiting on it.
	v, err, _ := s.group.Do(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		gen := s.generation()
		u, err := s.CRUD.GetByID(loadCtx, id)
		if err != nil {
			return nil, err
		}
		s.fill(loadCtx, key, u, gen)
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	u := *v.(*model.User)
	return &u, nil
}

func (s *userService) Save(ctx context.Context, u *model.User) (int64, error) {
	if err := validate(u); err != nil {
		return 0, err
	}
	return s.CRUD.Save(ctx, u)
}

func (s *userService) SaveBatch(ctx context.Context, users []model.User) (int64, error) {
	for i := range users {
		if err := validate(&users[i]); err != nil {
			return 0, err
		}
	}
	return s.CRUD.SaveBatch(ctx, users)
}

func (s *userService) UpdateByID(ctx context.Context, u *model.User) (int64, error) {
	if err := validate(u); err != nil {
		return 0, err
	}
	n, err := s.CRUD.UpdateByID(ctx, u)
	s.evict(ctx, u.ID)
	return n, err
}

func (s *userService) RemoveByID(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		return 0, ErrInvalidID
	}
	n, err := s.CRUD.RemoveByID(ctx, id)
	s.evict(ctx, id)
	return n, err
}

func (s *userService) RemoveByIDs(ctx context.Context, ids []int64) (int64, error) {
	for _, id := range ids {
		if id <= 0 {
			return 0, ErrInvalidID
		}
	}
	n, err := s.CRUD.RemoveByIDs(ctx, ids)
	s.evict(ctx, ids...)
	return n, err
}

func (s *userService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// fill stores u unless an eviction happened since the load that produced it started.
func (s *userService) fill(ctx context.Context, key string, u *model.User, gen uint64) {
	b, err := json.Marshal(u)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.log.Debug().Str("key", key).Msg("row changed during load, not caching")
		return
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// evict runs after a write. Bumping gen first keeps loads that read the old row from caching it,
// and Forget makes later readers start a fresh load instead of joining one in flight.
func (s *userService) evict(ctx context.Context, ids ...int64) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()

	for _, id := range ids {
		key := cacheKey(id)
		s.group.Forget(key)
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Int64("id", id).Msg("cache evict failed")
		}
	}
}

func validate(u *model.User) error {
	if u == nil || u.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

func cacheKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}
