package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/studenthub/outreach-api/internal/model"
)

// PodcastRepo persists podcast metadata.  The audio itself lives on the
// external media host; rows carry the URL and the host's public id.
type PodcastRepo struct{ db *sql.DB }

func NewPodcastRepo(db *sql.DB) *PodcastRepo { return &PodcastRepo{db: db} }

// PodcastFilter narrows List results.
type PodcastFilter struct {
	Search        string
	Tag           string
	Uploader      uint64
	PublishedOnly bool
	Page          int
	Limit         int
}

const podcastCols = `id, title, description, url, public_id, duration, file_size, file_type,
	uploaded_by, is_published, play_count, tags, created_at, updated_at`

func scanPodcast(row rowScanner) (model.Podcast, error) {
	var (
		p        model.Podcast
		tagsJSON []byte
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.URL, &p.PublicID, &p.Duration,
		&p.FileSize, &p.FileType, &p.UploadedBy, &p.IsPublished, &p.PlayCount,
		&tagsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if len(tagsJSON) > 0 {
		_ = json.Unmarshal(tagsJSON, &p.Tags)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}

// Create inserts a podcast row and populates the generated ID and
// DB-default fields.
func (r *PodcastRepo) Create(ctx context.Context, p *model.Podcast) error {
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}
	const q = `INSERT INTO podcasts
		(title, description, url, public_id, duration, file_size, file_type, uploaded_by, is_published, tags)
		VALUES (?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		p.Title, p.Description, p.URL, p.PublicID, p.Duration, p.FileSize, p.FileType,
		p.UploadedBy, p.IsPublished, tagsJSON)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	got, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = got
	return nil
}

// GetByID fetches a single podcast.
func (r *PodcastRepo) GetByID(ctx context.Context, id uint64) (model.Podcast, error) {
	p, err := scanPodcast(r.db.QueryRowContext(ctx,
		"SELECT "+podcastCols+" FROM podcasts WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return p, ErrPodcastNotFound
	}
	return p, err
}

// List returns a filtered, paginated page of podcasts plus the total
// count for the filter, newest first.
func (r *PodcastRepo) List(ctx context.Context, f PodcastFilter) ([]model.Podcast, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.PublishedOnly {
		where = append(where, "is_published = true")
	}
	if f.Search != "" {
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if f.Tag != "" {
		where = append(where, "JSON_CONTAINS(tags, JSON_QUOTE(?))")
		args = append(args, f.Tag)
	}
	if f.Uploader != 0 {
		where = append(where, "uploaded_by = ?")
		args = append(args, f.Uploader)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM podcasts WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+podcastCols+" FROM podcasts WHERE "+cond+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		append(args, f.Limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collectPodcasts(rows)
	return out, total, err
}

// Popular returns published podcasts with the highest play counts.
func (r *PodcastRepo) Popular(ctx context.Context, limit int) ([]model.Podcast, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+podcastCols+" FROM podcasts WHERE is_published = true ORDER BY play_count DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPodcasts(rows)
}

// Recent returns the newest published podcasts.
func (r *PodcastRepo) Recent(ctx context.Context, limit int) ([]model.Podcast, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+podcastCols+" FROM podcasts WHERE is_published = true ORDER BY created_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPodcasts(rows)
}

func collectPodcasts(rows *sql.Rows) ([]model.Podcast, error) {
	out := []model.Podcast{}
	for rows.Next() {
		p, err := scanPodcast(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateMetadata writes editable fields; the hosted file is immutable.
func (r *PodcastRepo) UpdateMetadata(ctx context.Context, p *model.Podcast) error {
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE podcasts SET title=?, description=?, is_published=?, tags=? WHERE id=?",
		p.Title, p.Description, p.IsPublished, tagsJSON, p.ID)
	return err
}

// Delete removes a podcast row.
func (r *PodcastRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM podcasts WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPodcastNotFound
	}
	return nil
}

// IncrementPlayCount bumps the monotonic counter atomically in SQL and
// returns the new value.
func (r *PodcastRepo) IncrementPlayCount(ctx context.Context, id uint64) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE podcasts SET play_count = play_count + 1 WHERE id=?", id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrPodcastNotFound
	}
	var count uint64
	err = r.db.QueryRowContext(ctx,
		"SELECT play_count FROM podcasts WHERE id=?", id).Scan(&count)
	return count, err
}
