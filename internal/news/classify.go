package news

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"tickerdesk/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

type keywordFile struct {
	Stock struct {
		ZH []string `yaml:"zh"`
		EN []string `yaml:"en"`
	} `yaml:"stock"`
}

// ParseKeywords decodes a keyword YAML document into a flat term list.
func ParseKeywords(data []byte) ([]string, error) {
	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	out := make([]string, 0, len(f.Stock.ZH)+len(f.Stock.EN))
	out = append(out, f.Stock.ZH...)
	out = append(out, f.Stock.EN...)
	if len(out) == 0 {
		return nil, fmt.Errorf("keyword file lists no stock terms")
	}
	return out, nil
}

// DefaultKeywords returns the embedded keyword set.
func DefaultKeywords() []string {
	kw, err := ParseKeywords(defaultKeywordsYAML)
	if err != nil {
		panic(err)
	}
	return kw
}

// LoadKeywords reads path, or the embedded set when path is empty.
func LoadKeywords(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultKeywords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords %s: %w", path, err)
	}
	return ParseKeywords(data)
}

// Classifier tags raw items. It holds no mutable state.
type Classifier struct {
	keywords []string
}

func NewClassifier(keywords []string) *Classifier {
	norm := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if k := Normalize(kw); k != "" {
			norm = append(norm, k)
		}
	}
	return &Classifier{keywords: norm}
}

// Tag reports stock when the normalized title or summary contains any
// keyword as a substring.
func (c *Classifier) Tag(it domain.RawItem) domain.Tag {
	text := Normalize(it.Title + " " + it.Summary)
	for _, kw := range c.keywords {
		if strings.Contains(text, kw) {
			return domain.TagStock
		}
	}
	return domain.TagGeneral
}

// Lang follows the language of the feed the item came from.
func (c *Classifier) Lang(it domain.RawItem) domain.Lang {
	if it.Provenance.Lang == domain.LangEN {
		return domain.LangEN
	}
	return domain.LangZH
}

// Classify turns a raw item into a feed entry.
func (c *Classifier) Classify(it domain.RawItem) domain.NewsItem {
	return domain.NewsItem{
		Title:  strings.TrimSpace(it.Title),
		URL:    it.URL,
		Source: it.Source,
		Tag:    c.Tag(it),
		Lang:   c.Lang(it),
		Time:   it.Time,
	}
}
