package handler

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/studenthub/outreach-api/internal/media"
	"github.com/studenthub/outreach-api/internal/model"
	"github.com/studenthub/outreach-api/internal/repository"
)

// PodcastHandler serves podcast CRUD and play counting.  Audio lives on
// the external media host; the database holds metadata only.
type PodcastHandler struct {
	Podcasts *repository.PodcastRepo
	Media    *media.Uploader
}

func NewPodcastHandler(podcasts *repository.PodcastRepo, uploader *media.Uploader) *PodcastHandler {
	if podcasts == nil || uploader == nil {
		panic("nil dependency passed to NewPodcastHandler")
	}
	return &PodcastHandler{Podcasts: podcasts, Media: uploader}
}

type podcastView struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Duration    float64  `json:"duration"`
	FileSize    int64    `json:"file_size"`
	FileType    string   `json:"file_type"`
	UploadedBy  uint64   `json:"uploaded_by"`
	IsPublished bool     `json:"is_published"`
	PlayCount   uint64   `json:"play_count"`
	Tags        []string `json:"tags"`
}

func toPodcastView(p model.Podcast) podcastView {
	return podcastView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		URL:         p.URL,
		Duration:    p.Duration,
		FileSize:    p.FileSize,
		FileType:    p.FileType,
		UploadedBy:  p.UploadedBy,
		IsPublished: p.IsPublished,
		PlayCount:   p.PlayCount,
		Tags:        p.Tags,
	}
}

func toPodcastViews(podcasts []model.Podcast) []podcastView {
	out := make([]podcastView, 0, len(podcasts))
	for _, p := range podcasts {
		out = append(out, toPodcastView(p))
	}
	return out
}

// List handles GET /api/podcasts: published podcasts, paginated, with
// search/tag/uploader filters.
func (h *PodcastHandler) List(c echo.Context) error {
	f := repository.PodcastFilter{
		Search:        strings.TrimSpace(c.QueryParam("search")),
		Tag:           strings.TrimSpace(c.QueryParam("tag")),
		Uploader:      uint64(queryInt(c, "uploader", 0)),
		PublishedOnly: true,
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 10),
	}
	podcasts, total, err := h.Podcasts.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load podcasts")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"podcasts":   toPodcastViews(podcasts),
		"pagination": paginate(f.Page, f.Limit, total),
	})
}

// Popular handles GET /api/podcasts/popular?limit=: published podcasts
// by play count.
func (h *PodcastHandler) Popular(c echo.Context) error {
	podcasts, err := h.Podcasts.Popular(c.Request().Context(), queryInt(c, "limit", 10))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load podcasts")
	}
	return ok(c, http.StatusOK, "", echo.Map{"podcasts": toPodcastViews(podcasts)})
}

// Recent handles GET /api/podcasts/recent?limit=: newest published
// podcasts.
func (h *PodcastHandler) Recent(c echo.Context) error {
	podcasts, err := h.Podcasts.Recent(c.Request().Context(), queryInt(c, "limit", 10))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load podcasts")
	}
	return ok(c, http.StatusOK, "", echo.Map{"podcasts": toPodcastViews(podcasts)})
}

// MyPodcasts handles GET /api/podcasts/my-podcasts (admin only): the
// caller's uploads including unpublished ones.
func (h *PodcastHandler) MyPodcasts(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	f := repository.PodcastFilter{
		Uploader: uid,
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 10),
	}
	podcasts, total, err := h.Podcasts.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load podcasts")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"podcasts":   toPodcastViews(podcasts),
		"pagination": paginate(f.Page, f.Limit, total),
	})
}

// Get handles GET /api/podcasts/:id.  Unpublished podcasts are only
// visible to admins and their uploader, and read as 404 for everyone
// else so their existence leaks nothing.
func (h *PodcastHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid podcast id")
	}
	p, err := h.Podcasts.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPodcastNotFound) {
			return fail(c, http.StatusNotFound, "podcast not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load podcast")
	}
	if !p.IsPublished {
		uid, _ := getUserID(c)
		if getRole(c) != model.RoleAdmin && p.UploadedBy != uid {
			return fail(c, http.StatusNotFound, "podcast not found")
		}
	}
	return ok(c, http.StatusOK, "", echo.Map{"podcast": toPodcastView(p)})
}

// Create handles POST /api/podcasts (admin only): multipart upload of
// an audio file plus metadata fields.  The file is spooled to a temp
// path, pushed to the media host and the temp artifact removed on
// every exit path.
func (h *PodcastHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	title := strings.TrimSpace(c.FormValue("title"))
	description := strings.TrimSpace(c.FormValue("description"))
	var errs []string
	if n := len(title); n < 3 || n > 200 {
		errs = append(errs, "title must be between 3 and 200 characters")
	}
	if n := len(description); n < 10 || n > 2000 {
		errs = append(errs, "description must be between 10 and 2000 characters")
	}
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		errs = append(errs, "audio file is required")
	}
	if len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "validation failed", errs...)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "failed to read audio file")
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "podcast-upload-*")
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to stage upload")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // temp artifact never survives the request
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fail(c, http.StatusInternalServerError, "failed to stage upload")
	}
	if err := tmp.Close(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to stage upload")
	}

	ctx := c.Request().Context()
	result, err := h.Media.UploadAudio(ctx, tmpPath, "podcast_"+uuid.NewString())
	if err != nil {
		c.Logger().Errorf("cloudinary upload failed: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to upload podcast file")
	}

	var tags []string
	if raw := strings.TrimSpace(c.FormValue("tags")); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	if tags == nil {
		tags = []string{}
	}

	p := model.Podcast{
		Title:       title,
		Description: description,
		URL:         result.SecureURL,
		PublicID:    result.PublicID,
		Duration:    result.Duration,
		FileSize:    fileHeader.Size,
		FileType:    fileHeader.Header.Get("Content-Type"),
		UploadedBy:  uid,
		IsPublished: true,
		Tags:        tags,
	}
	if err := h.Podcasts.Create(ctx, &p); err != nil {
		// The hosted file is orphaned; remove it so the failure leaves
		// no state behind on either side.
		if derr := h.Media.Destroy(ctx, result.PublicID); derr != nil {
			c.Logger().Errorf("cloudinary cleanup failed for %s: %v", result.PublicID, derr)
		}
		return fail(c, http.StatusInternalServerError, "failed to create podcast")
	}
	return ok(c, http.StatusCreated, "podcast created successfully", echo.Map{"podcast": toPodcastView(p)})
}

type podcastUpdateReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IsPublished *bool    `json:"is_published"`
}

// Update handles PUT /api/podcasts/:id: metadata edits only, by admin
// or uploader.
func (h *PodcastHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid podcast id")
	}
	var req podcastUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	p, err := h.Podcasts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPodcastNotFound) {
			return fail(c, http.StatusNotFound, "podcast not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load podcast")
	}
	if getRole(c) != model.RoleAdmin && p.UploadedBy != uid {
		return fail(c, http.StatusForbidden, "access denied")
	}

	var errs []string
	if req.Title != "" {
		title := strings.TrimSpace(req.Title)
		if n := len(title); n < 3 || n > 200 {
			errs = append(errs, "title must be between 3 and 200 characters")
		} else {
			p.Title = title
		}
	}
	if req.Description != "" {
		desc := strings.TrimSpace(req.Description)
		if n := len(desc); n < 10 || n > 2000 {
			errs = append(errs, "description must be between 10 and 2000 characters")
		} else {
			p.Description = desc
		}
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	if req.IsPublished != nil {
		p.IsPublished = *req.IsPublished
	}
	if len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "validation failed", errs...)
	}

	if err := h.Podcasts.UpdateMetadata(ctx, &p); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to update podcast")
	}
	return ok(c, http.StatusOK, "podcast updated successfully", echo.Map{"podcast": toPodcastView(p)})
}

// Delete handles DELETE /api/podcasts/:id.  The hosted file removal is
// best-effort: a media host failure is logged and the record still
// goes away.
func (h *PodcastHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid podcast id")
	}
	ctx := c.Request().Context()
	p, err := h.Podcasts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPodcastNotFound) {
			return fail(c, http.StatusNotFound, "podcast not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load podcast")
	}
	if getRole(c) != model.RoleAdmin && p.UploadedBy != uid {
		return fail(c, http.StatusForbidden, "access denied")
	}

	if p.PublicID != "" {
		if err := h.Media.Destroy(ctx, p.PublicID); err != nil {
			c.Logger().Errorf("cloudinary delete failed for %s: %v", p.PublicID, err)
		}
	}
	if err := h.Podcasts.Delete(ctx, id); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to delete podcast")
	}
	return ok(c, http.StatusOK, "podcast deleted successfully", nil)
}

// Play handles POST /api/podcasts/:id/play: bumps the monotonic play
// counter and returns the new value.
func (h *PodcastHandler) Play(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid podcast id")
	}
	count, err := h.Podcasts.IncrementPlayCount(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPodcastNotFound) {
			return fail(c, http.StatusNotFound, "podcast not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to record play")
	}
	return ok(c, http.StatusOK, "", echo.Map{"play_count": count})
}
