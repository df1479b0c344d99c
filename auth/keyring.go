// Package auth provides a high-level API for persisting and retrieving the player access token from the system keyring.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/zalando/go-keyring"
)

const user = "access-token"

// SetToken persists the access token to the system keyring.
func SetToken(token string) error {
	return keyring.Set(constant.Vidtune, user, strings.TrimSpace(token))
}

// GetToken retrieves the access token from the system keyring.
// A missing entry is not an error, it yields an empty token.
func GetToken() (string, error) {
	token, err := keyring.Get(constant.Vidtune, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// DeleteToken removes the access token from the system keyring.
func DeleteToken() error {
	err := keyring.Delete(constant.Vidtune, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Provider hands the current token to the player bridge on every load,
// preferring the configured token over the keyring.
type Provider struct{}

func (Provider) CurrentToken(context.Context) (string, error) {
	if token := strings.TrimSpace(viper.GetString(key.AuthToken)); token != "" {
		return token, nil
	}
	return GetToken()
}
