// Package catalog loads the static game content: classes, items, enemies and
// the story graph. A Catalog is read-only once loaded.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Document file names, relative to the content root.
const (
	ClassesDoc = "classes.yaml"
	ItemsDoc   = "items.yaml"
	EnemiesDoc = "enemies.yaml"
	StoryDoc   = "story.yaml"
)

//go:embed content/*.yaml
var embeddedFS embed.FS

// ErrUnknownID is wrapped by ContentError when a reference does not resolve.
var ErrUnknownID = errors.New("unknown id")

// ContentError reports a fault in a content document. ID names the
// offending entry when there is one.
type ContentError struct {
	Doc string
	ID  string
	Err error
}

func (e *ContentError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("content %s: %v", e.Doc, e.Err)
	}
	return fmt.Sprintf("content %s: %s: %v", e.Doc, e.ID, e.Err)
}

func (e *ContentError) Unwrap() error { return e.Err }

// Catalog holds every content table.
type Catalog struct {
	Classes     map[string]*Class
	Items       map[string]*Item
	Enemies     map[string]*Enemy
	Nodes       map[string]*Node
	NPCs        map[string]*NPC
	Start       string
	Advancement []Step
}

type classesFile struct {
	Classes     map[string]*Class `yaml:"classes"`
	Advancement []Step            `yaml:"advancement"`
}

type itemsFile struct {
	Items map[string]*Item `yaml:"items"`
}

type enemiesFile struct {
	Enemies map[string]*Enemy `yaml:"enemies"`
}

type storyFile struct {
	Start string           `yaml:"start"`
	Nodes map[string]*Node `yaml:"nodes"`
	NPCs  map[string]*NPC  `yaml:"npcs"`
}

// LoadEmbedded loads the content shipped with the binary.
func LoadEmbedded() (*Catalog, error) {
	sub, err := fs.Sub(embeddedFS, "content")
	if err != nil {
		return nil, fmt.Errorf("embedded content: %w", err)
	}
	return Load(sub)
}

// LoadDir loads content from a directory on disk.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// Load reads the four documents from fsys and validates every cross
// reference. Any failure is returned as a *ContentError.
func Load(fsys fs.FS) (*Catalog, error) {
	var (
		classes classesFile
		items   itemsFile
		enemies enemiesFile
		story   storyFile
	)
	docs := []struct {
		name string
		dst  any
	}{
		{ClassesDoc, &classes},
		{ItemsDoc, &items},
		{EnemiesDoc, &enemies},
		{StoryDoc, &story},
	}
	for _, d := range docs {
		if err := decodeDoc(fsys, d.name, d.dst); err != nil {
			return nil, err
		}
	}

	c := &Catalog{
		Classes:     classes.Classes,
		Items:       items.Items,
		Enemies:     enemies.Enemies,
		Nodes:       story.Nodes,
		NPCs:        story.NPCs,
		Start:       story.Start,
		Advancement: classes.Advancement,
	}
	if c.NPCs == nil {
		c.NPCs = map[string]*NPC{}
	}
	for id, v := range c.Classes {
		if v == nil {
			return nil, &ContentError{Doc: ClassesDoc, ID: id, Err: errors.New("empty entry")}
		}
		v.ID = id
	}
	for id, v := range c.Items {
		if v == nil {
			return nil, &ContentError{Doc: ItemsDoc, ID: id, Err: errors.New("empty entry")}
		}
		v.ID = id
	}
	for id, v := range c.Enemies {
		if v == nil {
			return nil, &ContentError{Doc: EnemiesDoc, ID: id, Err: errors.New("empty entry")}
		}
		v.ID = id
	}
	for id, v := range c.Nodes {
		if v == nil {
			return nil, &ContentError{Doc: StoryDoc, ID: id, Err: errors.New("empty entry")}
		}
		v.ID = id
	}
	for id, v := range c.NPCs {
		if v == nil {
			return nil, &ContentError{Doc: StoryDoc, ID: id, Err: errors.New("empty entry")}
		}
		v.ID = id
	}
	sort.Slice(c.Advancement, func(i, j int) bool {
		return c.Advancement[i].Experience < c.Advancement[j].Experience
	})

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeDoc(fsys fs.FS, name string, dst any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return &ContentError{Doc: name, Err: err}
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		return &ContentError{Doc: name, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// Class returns the class with the given id.
func (c *Catalog) Class(id string) (*Class, bool) {
	v, ok := c.Classes[id]
	return v, ok
}

// Item returns the item with the given id.
func (c *Catalog) Item(id string) (*Item, bool) {
	v, ok := c.Items[id]
	return v, ok
}

// Enemy returns the enemy with the given id.
func (c *Catalog) Enemy(id string) (*Enemy, bool) {
	v, ok := c.Enemies[id]
	return v, ok
}

// Node returns the story node with the given id.
func (c *Catalog) Node(id string) (*Node, bool) {
	v, ok := c.Nodes[id]
	return v, ok
}

// NPC returns the NPC with the given id.
func (c *Catalog) NPC(id string) (*NPC, bool) {
	v, ok := c.NPCs[id]
	return v, ok
}

// ItemName returns the display name of an item, or its id when unknown.
func (c *Catalog) ItemName(id string) string {
	if it, ok := c.Items[id]; ok {
		return it.Name
	}
	return id
}

// ClassList returns the classes sorted by display name.
func (c *Catalog) ClassList() []*Class {
	out := make([]*Class, 0, len(c.Classes))
	for _, v := range c.Classes {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StepFor returns the advancement row for level.
func (c *Catalog) StepFor(level int) (Step, bool) {
	for _, step := range c.Advancement {
		if step.Level == level {
			return step, true
		}
	}
	return Step{}, false
}
