package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/remote"
)

var ErrProfileNotFound = errors.New("profile not found")

type Update struct {
	FirstName   string
	LastName    string
	Address     string
	PhoneNumber string
	Image       io.Reader
	ImageName   string
}

type PasswordChange struct {
	UserID          string `json:"userId"`
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate rejects a change before it reaches the network.
func (p PasswordChange) Validate() error {
	switch {
	case p.OldPassword == "":
		return domain.NewValidationError("oldPassword", "current password is required")
	case p.NewPassword == "":
		return domain.NewValidationError("newPassword", "new password is required")
	case p.ConfirmPassword == "":
		return domain.NewValidationError("confirmPassword", "password confirmation is required")
	case p.NewPassword != p.ConfirmPassword:
		return domain.NewValidationError("confirmPassword", "new passwords do not match")
	}
	return nil
}

type Client struct {
	remote *remote.Client
}

func NewClient(r *remote.Client) *Client {
	return &Client{remote: r}
}

func (c *Client) Get(ctx context.Context, token, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := c.remote.GetJSON(ctx, "/profile/"+url.PathEscape(userID), nil, token, &p)
	if err != nil {
		var remoteErr *remote.Error
		if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return &p, nil
}

// Update edits the profile with a multipart form; the image is optional.
func (c *Client) Update(ctx context.Context, token string, u Update) (*domain.Profile, error) {
	fields := map[string]string{
		"firstName":   strings.TrimSpace(u.FirstName),
		"lastName":    strings.TrimSpace(u.LastName),
		"address":     strings.TrimSpace(u.Address),
		"phoneNumber": strings.TrimSpace(u.PhoneNumber),
	}
	var files []remote.File
	if u.Image != nil {
		files = append(files, remote.File{Field: "profileImage", Name: u.ImageName, Contents: u.Image})
	}

	var p domain.Profile
	if err := c.remote.SendMultipart(ctx, http.MethodPut, "/profile/edit", token, fields, files, &p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &p, nil
}

func (c *Client) ChangePassword(ctx context.Context, token string, change PasswordChange) error {
	if err := change.Validate(); err != nil {
		return err
	}
	if err := c.remote.SendJSON(ctx, http.MethodPut, "/auths/change-password", token, change, nil); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}
