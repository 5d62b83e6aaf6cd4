// Package players resolves in-game player handles to the identifier the
// storefront binds coupons to.
package players

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.mojang.com"

var ErrPlayerNotFound = errors.New("player not found")

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

type Resolver interface {
	// Resolve returns the player's UUID or ErrPlayerNotFound.
	Resolve(ctx context.Context, handle string) (string, error)
}

type Mojang struct {
	http *resty.Client
}

var _ Resolver = (*Mojang)(nil)

func NewMojang(baseURL string, timeout time.Duration) *Mojang {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Mojang{http: rc}
}

type profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (m *Mojang) Resolve(ctx context.Context, handle string) (string, error) {
	if !handlePattern.MatchString(handle) {
		return "", fmt.Errorf("%w: invalid handle %q", ErrPlayerNotFound, handle)
	}

	var out profile

	resp, err := m.http.R().
		SetContext(ctx).
		SetPathParam("name", handle).
		SetResult(&out).
		Get("/users/profiles/minecraft/{name}")
	if err != nil {
		return "", fmt.Errorf("lookup player %s: %w", handle, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNoContent, resp.StatusCode() == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrPlayerNotFound, handle)
	case resp.IsError():
		return "", fmt.Errorf("lookup player %s: status %d", handle, resp.StatusCode())
	case out.ID == "":
		return "", fmt.Errorf("%w: %s", ErrPlayerNotFound, handle)
	}

	return out.ID, nil
}
