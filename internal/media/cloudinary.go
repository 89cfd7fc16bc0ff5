// Package media wraps the Cloudinary SDK for podcast audio hosting.
// Cloudinary treats audio as the "video" resource type.
package media

import (
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader uploads and deletes podcast audio on Cloudinary.
type Uploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// UploadResult carries the fields the podcast record needs.
type UploadResult struct {
	SecureURL string  // public HTTPS URL of the hosted file
	PublicID  string  // asset id needed for later deletion
	Duration  float64 // duration in seconds as reported by the host
	Bytes     int64   // stored size
}

// NewUploader builds an Uploader from a cloudinary:// credential URL.
func NewUploader(credentialURL string) (*Uploader, error) {
	cld, err := cloudinary.NewFromURL(credentialURL)
	if err != nil {
		return nil, err
	}
	return &Uploader{cld: cld, folder: "podcasts"}, nil
}

// UploadAudio pushes a local file to the media host under the given
// public id.  The local file is the caller's to clean up; UploadAudio
// never leaves host-side state on error.
func (u *Uploader) UploadAudio(ctx context.Context, localPath, publicID string) (UploadResult, error) {
	resp, err := u.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       u.folder,
		ResourceType: "video",
		Format:       "mp3",
	})
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{
		SecureURL: resp.SecureURL,
		PublicID:  resp.PublicID,
		Duration:  resp.Duration,
		Bytes:     int64(resp.Bytes),
	}, nil
}

// Destroy removes a hosted file.  Callers treat failures as
// best-effort: the database record wins, the orphaned file is logged.
func (u *Uploader) Destroy(ctx context.Context, publicID string) error {
	_, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "video",
	})
	return err
}
