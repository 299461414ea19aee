package posts

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Directory serves posts from a YAML file
type Directory struct {
	mu    sync.RWMutex
	path  string
	posts map[string]Post
}

type directoryFile struct {
	Posts []Post `yaml:"posts"`
}

// LoadDirectory reads the posts file at path
func LoadDirectory(path string) (*Directory, error) {
	d := &Directory{path: path}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewDirectory creates a directory over in-memory posts
func NewDirectory(posts ...Post) *Directory {
	d := &Directory{posts: make(map[string]Post, len(posts))}
	for _, p := range posts {
		d.posts[p.ID] = p
	}
	return d
}

// Reload re-reads the posts file
func (d *Directory) Reload() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("read posts file: %w", err)
	}

	var file directoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse posts file %s: %w", d.path, err)
	}

	posts := make(map[string]Post, len(file.Posts))
	for i, p := range file.Posts {
		if p.ID == "" {
			return fmt.Errorf("parse posts file %s: post %d has no id", d.path, i)
		}
		if _, dup := posts[p.ID]; dup {
			return fmt.Errorf("parse posts file %s: duplicate post id %q", d.path, p.ID)
		}
		posts[p.ID] = p
	}

	d.mu.Lock()
	d.posts = posts
	d.mu.Unlock()
	return nil
}

func (d *Directory) PostContent(ctx context.Context, postID string) (string, []string, error) {
	d.mu.RLock()
	p, ok := d.posts[postID]
	d.mu.RUnlock()

	if !ok {
		return "", nil, fmt.Errorf("post %s: %w", postID, ErrPostNotFound)
	}
	return p.Content(), append([]string(nil), p.Tags...), nil
}

// IDs returns every post id, sorted
func (d *Directory) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.posts))
	for id := range d.posts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
