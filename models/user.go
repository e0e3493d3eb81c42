package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID       int      `gorm:"primary_key" json:"id"`
	Username string   `gorm:"size:100;not null;unique" json:"username"`
	Password string   `gorm:"size:255;not null" json:"password"`
	Role     UserRole `gorm:"size:20;not null;default:user" json:"role"`
	Center   string   `gorm:"size:100;not null;default:''" json:"center"`
	// SessionVersion goes up on every password change. Tokens carrying an
	// older version are rejected.
	SessionVersion int       `gorm:"not null;default:0" json:"session_version"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
	Center   string `json:"center"`
}

/*
caches:
	User:$username
*/

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

func (user User) Principal() Principal {
	return NewPrincipal(user.Username, string(user.Role), user.Center)
}

// storedPassword is what goes in the password column for plain.
func storedPassword(plain string) (string, error) {
	if !config.PasswordHashingEnabled() {
		return plain, nil
	}
	hashed, err := utils.HashPassword(plain)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// GetUserByUsername reads through the User:$username cache.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		config.LogError(config.GetLogger(), "user.go", "GetUserByUsername", "redis get", username, err)
	}
	if exists {
		return &user, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, utils.NewStorageError("get user", err)
	}
	if err := config.SetRedisObject("User:"+username, &user, utils.TokenLifespan()); err != nil {
		config.LogError(config.GetLogger(), "user.go", "GetUserByUsername", "redis set", username, err)
	}
	return &user, nil
}

// SaveUser creates the user or overwrites password, role and center of an existing one.
func SaveUser(ctx context.Context, input *NewUser) (*User, bool, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Password = strings.TrimSpace(input.Password)
	if labels, err := utils.ValidateStructLabels(input); err != nil {
		return nil, false, err
	} else if len(labels) > 0 {
		return nil, false, utils.NewValidationError(labels...)
	}

	password, err := storedPassword(input.Password)
	if err != nil {
		return nil, false, err
	}

	db := config.GetDB()
	var user User
	created := false
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("username = ?", input.Username).Take(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = User{
				Username: input.Username,
				Password: password,
				Role:     ParseUserRole(input.Role),
				Center:   strings.TrimSpace(input.Center),
			}
			created = true
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		changes := map[string]interface{}{
			"password": password,
			"role":     ParseUserRole(input.Role),
			"center":   strings.TrimSpace(input.Center),
		}
		if !utils.CheckPassword(user.Password, input.Password) {
			changes["session_version"] = gorm.Expr("session_version + 1")
		}
		return tx.Model(&user).Updates(changes).Error
	})
	if err != nil {
		return nil, false, utils.NewStorageError("save user", err)
	}
	if err := user.RemoveInstanceRedis(); err != nil {
		config.LogError(config.GetLogger(), "user.go", "SaveUser", "redis del", user.Username, err)
	}
	return &user, created, nil
}

func CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := config.GetDB().WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return 0, utils.NewStorageError("count users", err)
	}
	return count, nil
}
