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

/*
sessions (only with Redis):
	Token:$jti        -> username, expires with the token
	Tokens:$username  -> set of live jti
*/

type LoginInfo struct {
	Token     string    `json:"-"`
	Username  string    `json:"username"`
	Role      UserRole  `json:"role"`
	Center    string    `json:"center"`
	ExpiresAt time.Time `json:"expires_at"`
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, utils.ErrMissingCredentials
	}

	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, utils.ErrInvalidCredentials
		}
		return nil, err
	}

	// check login credentials
	if !utils.CheckPassword(user.Password, password) {
		return nil, utils.ErrInvalidCredentials
	}

	principal := user.Principal()
	token, jti, err := utils.JwtGenerate(user.Username, user.SessionVersion)
	if err != nil {
		return nil, err
	}
	lifespan := utils.TokenLifespan()

	// add new token to the user's tokens set
	if err := config.AddRedisSet("Tokens:"+user.Username, jti); err != nil {
		return nil, err
	}
	if err := config.SetRedisValue("Token:"+jti, user.Username, lifespan); err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token:     token,
		Username:  principal.Username,
		Role:      principal.Role,
		Center:    principal.Center,
		ExpiresAt: time.Now().Add(lifespan),
	}, nil
}

// ValidateSession resolves a token to its principal. The token only names
// the user; role and center come from the stored user, so changes apply to
// live sessions. With Redis, a token whose id was revoked is rejected even if
// its signature is still good.
func ValidateSession(ctx context.Context, token string) (Principal, error) {
	claims, err := utils.ParseClaims(token)
	if err != nil {
		return Principal{}, utils.ErrUnauthenticated
	}
	if config.RedisEnabled() {
		username, exists, err := config.GetRedisValue("Token:" + claims.Id)
		if err != nil {
			return Principal{}, err
		}
		if !exists || username != claims.Username {
			return Principal{}, utils.ErrUnauthenticated
		}
	}

	user, err := GetUserByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return Principal{}, utils.ErrUnauthenticated
		}
		return Principal{}, err
	}
	// password changed since the token was issued
	if claims.Version != user.SessionVersion {
		return Principal{}, utils.ErrUnauthenticated
	}

	p := user.Principal()
	if !p.Authenticated() {
		return Principal{}, utils.ErrUnauthenticated
	}
	return p, nil
}

// Logout revokes token. Unknown, expired or empty tokens are not an error.
func Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := utils.ParseClaims(token)
	if err != nil {
		return nil
	}
	if err := config.RemoveRedisKey("Token:" + claims.Id); err != nil {
		return err
	}
	// remove current token from tokens list
	return config.RemoveRedisSetMember("Tokens:"+claims.Username, claims.Id)
}

// ResetPassword overwrites the credential of username without checking the
// old one, then drops every session of that user. An unknown username,
// blank included, is NotFound.
func ResetPassword(ctx context.Context, username string, newPassword string) error {
	username = strings.TrimSpace(username)
	newPassword = strings.TrimSpace(newPassword)

	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return utils.NewStorageError("get user", err)
	}
	if newPassword == "" {
		return utils.NewRequestError("Please enter username and new password")
	}

	password, err := storedPassword(newPassword)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(&user).UpdateColumns(map[string]interface{}{
		"password":        password,
		"session_version": gorm.Expr("session_version + 1"),
	}).Error; err != nil {
		return utils.NewStorageError("reset password", err)
	}
	if err := user.RemoveInstanceRedis(); err != nil {
		return err
	}
	// destroying all session tokens
	return user.DestroyAllSessions(ctx)
}

func (user *User) DestroyAllSessions(ctx context.Context) error {
	allTokens, err := config.GetRedisSetMembers("Tokens:" + user.Username)
	if err != nil {
		return err
	}
	for _, token := range allTokens {
		if err := config.RemoveRedisKey("Token:" + token); err != nil {
			return err
		}
	}
	return config.RemoveRedisKey("Tokens:" + user.Username)
}
