package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/flicky/rabbit-store-api/internal/config"
)

var ErrNotConfigured = errors.New("image host not configured")

// Cloudinary uploads images with the signed upload API.
type Cloudinary struct {
	cfg config.ImageHostConfig
}

func NewCloudinary(cfg config.ImageHostConfig) *Cloudinary {
	return &Cloudinary{cfg: cfg}
}

func (c *Cloudinary) client() (*cloudinary.Cloudinary, error) {
	if c.cfg.CloudName == "" || c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(c.cfg.CloudName, c.cfg.APIKey, c.cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("image host client: %w", err)
	}
	if c.cfg.BaseURL != "" {
		cld.Config.API.UploadPrefix = c.cfg.BaseURL
	}
	return cld, nil
}

func (c *Cloudinary) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	cld, err := c.client()
	if err != nil {
		return "", err
	}

	resp, err := cld.Upload.Upload(ctx, r, uploader.UploadParams{
		ResourceType:     "image",
		FilenameOverride: filename,
		UseFilename:      api.Bool(true),
		UniqueFilename:   api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload image: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("upload image: empty secure_url")
	}
	return resp.SecureURL, nil
}
