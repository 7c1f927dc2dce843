package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore implements Store against Cloudinary. resource_type auto
// lets one endpoint accept both images and videos.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(url string) (*CloudinaryStore, error) {
	if url == "" {
		return nil, errors.New("cloudinary URL is empty")
	}
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file Upload, folder string) (string, error) {
	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(file.Data), uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", file.Filename, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload %s: %s", file.Filename, resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, url string) error {
	publicID := ExtractPublicID(url)
	if publicID == "" {
		return fmt.Errorf("no public id in url %q", url)
	}
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("destroy %s: %s", publicID, resp.Result)
	}
	return nil
}

var versionPrefix = regexp.MustCompile(`^v\d+/`)

// ExtractPublicID recovers the asset identifier from a delivery URL:
// everything after /upload/, minus the version prefix and file extension.
// Malformed URLs fall back to the last two path segments.
func ExtractPublicID(url string) string {
	if i := strings.Index(url, "/upload/"); i >= 0 {
		path := versionPrefix.ReplaceAllString(url[i+len("/upload/"):], "")
		if dot := strings.LastIndexByte(path, '.'); dot >= 0 {
			path = path[:dot]
		}
		return path
	}
	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return ""
	}
	name := parts[len(parts)-1]
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		name = name[:dot]
	}
	if name == "" {
		return ""
	}
	return parts[len(parts)-2] + "/" + name
}
