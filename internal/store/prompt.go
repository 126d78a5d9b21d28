package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/sqi/internal/model"
)

// DefaultVersionTag is reported while no prompt has been saved.
const DefaultVersionTag = "v1"

// VersionTag formats a prompt revision as the tag carried in score metadata.
func VersionTag(p model.Prompt) string {
	if p.Version < 1 {
		return DefaultVersionTag
	}
	return "v" + strconv.Itoa(p.Version)
}

// SavePrompt stores content as the next prompt revision.
func (s *Store) SavePrompt(ctx context.Context, content string) (model.Prompt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Prompt{}, err
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM prompt_revisions`,
	).Scan(&version); err != nil {
		return model.Prompt{}, fmt.Errorf("next prompt version: %w", err)
	}

	p := model.Prompt{
		ID:        uuid.NewString(),
		Version:   version,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO prompt_revisions (id, version, content, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Version, p.Content, p.CreatedAt,
	); err != nil {
		return model.Prompt{}, fmt.Errorf("insert prompt revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Prompt{}, err
	}

	slog.Info("saved diagnostic prompt", "id", p.ID, "version", p.Version, "bytes", len(content))
	return p, nil
}

// CurrentPrompt returns the latest prompt revision.
// Returns a zero Prompt and nil error if none has been saved.
func (s *Store) CurrentPrompt(ctx context.Context) (model.Prompt, error) {
	var p model.Prompt
	err := s.db.QueryRowContext(ctx,
		`SELECT id, version, content, created_at FROM prompt_revisions ORDER BY version DESC LIMIT 1`,
	).Scan(&p.ID, &p.Version, &p.Content, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prompt{}, nil
	}
	return p, err
}

// ListPrompts returns up to limit revisions, newest first.
func (s *Store) ListPrompts(ctx context.Context, limit int) ([]model.Prompt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version, content, created_at FROM prompt_revisions ORDER BY version DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	prompts := []model.Prompt{}
	for rows.Next() {
		var p model.Prompt
		if err := rows.Scan(&p.ID, &p.Version, &p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}
