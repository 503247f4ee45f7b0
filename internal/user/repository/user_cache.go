package repository

import (
	"encoding/json"
	"time"

	"campusdesk/internal/user/model"
)

const (
	userIDKeyPrefix  = "user:id:"
	userSidKeyPrefix = "user:sid:"

	defaultUserCacheTTL      = 30 * time.Minute
	defaultUserCacheEmptyTTL = 5 * time.Minute
)

// cachedUser is the cache representation of a user; the password hash never leaves the database.
type cachedUser struct {
	ID        string     `json:"id"`
	SID       string     `json:"sid"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
}

func userIDKey(id string) string {
	return userIDKeyPrefix + id
}

func userSidKey(sid string) string {
	return userSidKeyPrefix + sid
}

func marshalUser(user *model.User) string {
	if user == nil {
		return ""
	}
	payload, err := json.Marshal(cachedUser{
		ID:        user.ID,
		SID:       user.SID,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: toMicros(user.CreatedAt),
		UpdatedAt: toMicros(user.UpdatedAt),
	})
	if err != nil {
		return ""
	}
	return string(payload)
}

func unmarshalUser(data string) (*model.User, error) {
	if data == "" {
		return nil, nil
	}
	var cu cachedUser
	if err := json.Unmarshal([]byte(data), &cu); err != nil {
		return nil, err
	}
	return &model.User{
		ID:        cu.ID,
		SID:       cu.SID,
		Name:      cu.Name,
		Role:      cu.Role,
		CreatedAt: fromMicros(cu.CreatedAt),
		UpdatedAt: fromMicros(cu.UpdatedAt),
	}, nil
}
