package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bisa-app/factcheck/internal/model"
)

// ErrPostNotFound is returned when the post does not exist
var ErrPostNotFound = errors.New("post not found")

// Accessor reads the text and tags of a post
type Accessor interface {
	PostContent(ctx context.Context, postID string) (content string, tags []string, err error)
}

// Post is the part of a Bisa post the fact-checker reads
type Post struct {
	ID       string   `json:"id" yaml:"id"`
	Question string   `json:"question" yaml:"question"`
	Answer   string   `json:"answer" yaml:"answer"`
	MediaURL string   `json:"mediaUrl,omitempty" yaml:"media_url,omitempty"`
	Tags     []string `json:"tags" yaml:"tags"`
}

// Content joins question and answer with a blank line, skipping empty parts
func (p Post) Content() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{p.Question, p.Answer} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// New creates the accessor selected by cfg.Source
func New(cfg model.PostsConfig) (Accessor, error) {
	switch cfg.Source {
	case "", "file":
		d, err := LoadDirectory(cfg.Path)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "http":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("posts: http source requires base_url")
		}
		return NewHTTPAccessor(cfg), nil
	default:
		return nil, fmt.Errorf("unknown posts source: %s (supported: file, http)", cfg.Source)
	}
}
