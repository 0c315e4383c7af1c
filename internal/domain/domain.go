package domain

import (
	"strings"
	"time"
)

// Tag marks whether a news item is about the security's market activity.
type Tag string

const (
	TagStock   Tag = "stock"
	TagGeneral Tag = "general"
)

// Lang is the language of the feed an item came from.
type Lang string

const (
	LangZH Lang = "zh"
	LangEN Lang = "en"
)

// Provenance records which configured feed produced a raw item.
type Provenance struct {
	Feed string
	Lang Lang
}

// RawItem is an unprocessed news candidate from one upstream source.
type RawItem struct {
	Title      string
	URL        string
	Source     string
	Summary    string
	Time       string
	Provenance Provenance
}

// NewsItem is a deduplicated, classified feed entry exposed to clients.
type NewsItem struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
	Tag    Tag    `json:"tag"`
	Lang   Lang   `json:"lang"`
	Time   string `json:"time,omitempty"`
}

// Rating is the once-a-day model verdict on the security.
type Rating struct {
	Date    string        `json:"date"`
	Rating  string        `json:"rating"`
	Score   int           `json:"score"`
	Summary string        `json:"summary"`
	Factors RatingFactors `json:"factors"`
}

type RatingFactors struct {
	Technical   string `json:"technical"`
	Fundamental string `json:"fundamental"`
	Sentiment   string `json:"sentiment"`
}

// RatingLabels lists the accepted rating labels, strongest first.
var RatingLabels = []string{"强烈推荐", "推荐", "中性", "谨慎", "回避"}

const RatingNeutral = "中性"

// Security identifies the single instrument the dashboard tracks.
type Security struct {
	Symbol  string // upstream symbol, e.g. hk00700
	Name    string
	NameEN  string // English search name, e.g. Tencent
	Code    string // display code, e.g. 00700.HK
	Keyword string // news search keyword
}

// DashboardContext is the cached market context handed to prompt builders.
type DashboardContext struct {
	Security Security
	Quote    *Quote
	News     []NewsItem
	Candles  []Candle
	AsOf     time.Time
}

// Ticker is the bare exchange code, e.g. 00700 for 00700.HK.
func (s Security) Ticker() string {
	if i := strings.IndexByte(s.Code, '.'); i > 0 {
		return s.Code[:i]
	}
	return s.Code
}
