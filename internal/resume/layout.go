// Package resume renders the resume and CV layouts to markdown. A layout is
// a list of typed blocks; blocks may pull their content from a shared store
// by key.
package resume

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Block types understood by the markdown renderer.
const (
	HeaderBlock       = "header_block"
	SectionTitleBlock = "section_title_block"
	CompoundTextBlock = "compound_text_block"
	TextBlock         = "text_block"
	GridBlock         = "grid_block"
	ListBlock         = "list_block"
	PlainListBlock    = "plain_list_block"
	CompactListBlock  = "compact_list_block"
	TextGridBlock     = "text_grid_block"
	ProjectBlock      = "project_block"
	StripeBlock       = "stripe_block"
)

// StoreFile is the shared content store inside the data directory.
const StoreFile = "store.yaml"

// Section is one block as written in a layout file.
type Section struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// Layout is an ordered list of sections. The file may be a mapping with a
// sections key or a bare list.
type Layout struct {
	Sections []Section `yaml:"sections"`
}

// Store maps content keys to block configuration fragments.
type Store map[string]map[string]any

// Block is a section with its configuration resolved and typed.
type Block struct {
	Type   string
	Config BlockConfig
}

// BlockConfig is the union of the fields any block type reads.
type BlockConfig struct {
	ContentKey      string   `yaml:"content_key"`
	PageBreakBefore bool     `yaml:"page_break_before"`
	Title           string   `yaml:"title"`
	Subtitle        string   `yaml:"subtitle"`
	Content         string   `yaml:"content"`
	Style           string   `yaml:"style"`
	Tags            []string `yaml:"tags"`
	Items           []Item   `yaml:"items"`
}

// Item is an entry of a block's item list. Scalar entries become Text.
type Item struct {
	Text      string   `yaml:"text"`
	Link      string   `yaml:"link"`
	Header    string   `yaml:"header"`
	Content   Lines    `yaml:"content"`
	Date      string   `yaml:"date"`
	LeftText  string   `yaml:"left_text"`
	RightText string   `yaml:"right_text"`
	SubText   string   `yaml:"sub_text"`
	Details   []string `yaml:"details"`
}

// UnmarshalYAML accepts either a scalar or a mapping.
func (it *Item) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*it = Item{Text: value.Value}
		return nil
	}
	type plain Item
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*it = Item(p)
	return nil
}

// Lines is a list of strings that may be written as a single string.
type Lines []string

// UnmarshalYAML accepts either a scalar or a sequence.
func (l *Lines) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = Lines{value.Value}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

// UnmarshalYAML accepts the mapping and bare-list layout forms.
func (l *Layout) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		return value.Decode(&l.Sections)
	}
	type plain Layout
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*l = Layout(p)
	return nil
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("resume: read layout: %w", err)
	}
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("resume: parse layout %s: %w", path, err)
	}
	return l, nil
}

// LoadStore reads the content store. A missing file yields an empty store.
func LoadStore(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Store{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resume: read store: %w", err)
	}
	store := Store{}
	if err := yaml.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("resume: parse store %s: %w", path, err)
	}
	return store, nil
}

// Resolve merges store content into every section that names a content_key
// and types the result. Layout settings win over store values. Unknown keys
// are logged and the section keeps its layout configuration.
func Resolve(layout Layout, store Store, logger *zap.Logger) ([]Block, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	blocks := make([]Block, 0, len(layout.Sections))
	for i, s := range layout.Sections {
		merged := map[string]any{}
		if key, _ := s.Config["content_key"].(string); key != "" {
			if item, ok := store[key]; ok {
				for k, v := range item {
					merged[k] = v
				}
			} else {
				logger.Warn("content key not found in store", zap.String("key", key), zap.Int("section", i))
			}
		}
		for k, v := range s.Config {
			merged[k] = v
		}
		cfg, err := decodeConfig(merged)
		if err != nil {
			return nil, fmt.Errorf("resume: section %d (%s): %w", i, s.Type, err)
		}
		blocks = append(blocks, Block{Type: s.Type, Config: cfg})
	}
	return blocks, nil
}

func decodeConfig(m map[string]any) (BlockConfig, error) {
	var cfg BlockConfig
	if len(m) == 0 {
		return cfg, nil
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(data, &cfg)
	return cfg, err
}

// LayoutPath is the web layout file for target inside dataDir.
func LayoutPath(dataDir, target string) string {
	return filepath.Join(dataDir, target+".yaml")
}
