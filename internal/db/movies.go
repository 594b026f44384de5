package db

import (
	"context"
	"time"

	"github.com/cinehub/backoffice/internal/db/models"
)

const movieColumns = "id, title, description, genre, release_year, video_path, thumbnail_path, subtitle_path, file_size, duration, created_at, updated_at"

func scanMovie(s interface{ Scan(...any) error }) (*models.Movie, error) {
	m := &models.Movie{}
	err := s.Scan(&m.ID, &m.Title, &m.Description, &m.Genre, &m.ReleaseYear, &m.VideoPath,
		&m.ThumbnailPath, &m.SubtitlePath, &m.FileSize, &m.Duration, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

// ListMovies returns movies newest first.
func (d *Database) ListMovies(ctx context.Context) ([]*models.Movie, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]*models.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

func (d *Database) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	return scanMovie(d.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id))
}

func (d *Database) CreateMovie(ctx context.Context, m *models.Movie) error {
	now := time.Now()
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO movies (title, description, genre, release_year, video_path, thumbnail_path, subtitle_path, file_size, duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Description, m.Genre, m.ReleaseYear, m.VideoPath, m.ThumbnailPath, m.SubtitlePath,
		m.FileSize, m.Duration, now, now,
	)
	if err != nil {
		return mapErr(err)
	}
	m.ID, err = res.LastInsertId()
	m.CreatedAt, m.UpdatedAt = now, now
	return err
}

// UpdateMovie writes every editable column of m.
func (d *Database) UpdateMovie(ctx context.Context, m *models.Movie) error {
	m.UpdatedAt = time.Now()
	res, err := d.db.ExecContext(ctx, `
		UPDATE movies SET title = ?, description = ?, genre = ?, release_year = ?, video_path = ?,
			thumbnail_path = ?, subtitle_path = ?, file_size = ?, duration = ?, updated_at = ?
		WHERE id = ?`,
		m.Title, m.Description, m.Genre, m.ReleaseYear, m.VideoPath, m.ThumbnailPath, m.SubtitlePath,
		m.FileSize, m.Duration, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectOne(res)
}

func (d *Database) DeleteMovie(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (d *Database) CountMovies(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&count)
	return count, err
}
