package providers

import (
	"fmt"

	"questionnaire/internal/domains"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultSnapshotCacheSize = 256

type snapshotKey struct {
	name    string
	version int
}

// snapshotCache tracks template trees already read by this process. Template
// content is immutable once persisted, so entries only go stale on publish
// or when a caller explicitly resets tracked state.
type snapshotCache struct {
	entries *lru.Cache[snapshotKey, domains.Template]
}

func newSnapshotCache(size int) (*snapshotCache, error) {
	if size <= 0 {
		size = defaultSnapshotCacheSize
	}
	entries, err := lru.New[snapshotKey, domains.Template](size)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	return &snapshotCache{entries: entries}, nil
}

// get and add copy the tree so callers never share slices with the cache.
func (c *snapshotCache) get(name string, version int) (domains.Template, bool) {
	t, ok := c.entries.Get(snapshotKey{name, version})
	if !ok {
		return domains.Template{}, false
	}
	return cloneTemplate(t), true
}

func (c *snapshotCache) add(t domains.Template) {
	c.entries.Add(snapshotKey{t.Name, t.Version}, cloneTemplate(t))
}

func (c *snapshotCache) remove(name string, version int) {
	c.entries.Remove(snapshotKey{name, version})
}

func (c *snapshotCache) purge() {
	c.entries.Purge()
}

func cloneTemplate(t domains.Template) domains.Template {
	out := t
	if t.PublishedAt != nil {
		published := *t.PublishedAt
		out.PublishedAt = &published
	}
	out.Sections = make([]domains.Section, len(t.Sections))
	for i, section := range t.Sections {
		questions := make([]domains.Question, len(section.Questions))
		for j, q := range section.Questions {
			q.MediaURL = cloneString(q.MediaURL)
			options := make([]domains.Option, len(q.Options))
			for k, o := range q.Options {
				o.MediaURL = cloneString(o.MediaURL)
				options[k] = o
			}
			q.Options = options
			questions[j] = q
		}
		section.Questions = questions
		out.Sections[i] = section
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
