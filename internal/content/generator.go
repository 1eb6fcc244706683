// Package content derives tone, caption, hashtag, and image-brief text
// for backlog topics. Everything here is pure and deterministic: the
// same topic and row key always produce the same strings, which keeps
// pipeline re-runs idempotent.
package content

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"loomvale/internal/backlog"
)

// BrandThemes is the Loomvale palette. Each generate-mode brief commits
// to exactly one color focus, picked deterministically per row.
var BrandThemes = []string{
	"Mizu blue",
	"Soft sage green",
	"War lantern orange",
	"Karma beige",
	"Charcoal gray",
}

var toneTiers = []struct {
	tone     string
	keywords []string
}{
	{
		tone:     "Nostalgic, cozy, empathic",
		keywords: []string{"ghibli", "mononoke", "nausicaä", "nausicaa", "shinkai", "your name", "frieren", "magus"},
	},
	{
		tone:     "Dramatic, bold with emotional depth",
		keywords: []string{"chainsaw man", "demon slayer", "bleach", "attack on titan", "trigun", "solo leveling", "hells paradise", "blue exorcist", "jujutsu"},
	},
	{
		tone:     "Informative, cozy-tech, empathic",
		keywords: []string{"ai", "tool", "design", "trend", "creative", "tech", "innovation"},
	},
	{
		tone:     "Tender, poetic, heartfelt",
		keywords: []string{"romance", "love", "heart", "emotion", "connection"},
	},
}

// ToneFor maps a topic to its caption tone. The baseline is cozy and
// empathic; franchise and category keywords select sharper variants.
func ToneFor(topic string) string {
	lowered := strings.ToLower(topic)
	for _, tier := range toneTiers {
		for _, keyword := range tier.keywords {
			if strings.Contains(lowered, keyword) {
				return tier.tone
			}
		}
	}
	return "Cozy, empathic"
}

// CaptionPrompt builds the long cinematic caption brief for a topic.
func CaptionPrompt(topic, tone string) string {
	return fmt.Sprintf(
		"Write a cinematic Instagram caption about: %s. Tone: %s, Loomvale's cozy-empathic voice. "+
			"Start with a short emotional hook, then 2-3 concise lines (world, craft, or story stakes), "+
			"end with a subtle CTA (e.g., 'save for later'). Max ~300 chars, up to 2 emojis, no hashtags.",
		topic, tone,
	)
}

var hashtagTechKeywords = []string{"ai", "tool", "design", "trend", "creative", "tech"}

// HashtagPrompt builds the hashtag brief. Tech-flavored topics get
// keyword tokens; everything else gets franchise-style hashtags.
func HashtagPrompt(topic string) string {
	lowered := strings.ToLower(topic)
	for _, keyword := range hashtagTechKeywords {
		if strings.Contains(lowered, keyword) {
			return "Create 20 instagram hashtag keywords about the topic; lowercase tokens, no #, comma-separated, broad+niche."
		}
	}
	return fmt.Sprintf("Create 10 hashtags with # included, space-separated, about %s. Mix franchise, genre, aesthetic.", topic)
}

// ThemeFor picks the brand color focus for a row. The choice hashes the
// row key together with the topic so re-runs land on the same color.
func ThemeFor(rowKey int64, topic string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", rowKey, topic)))
	index := binary.BigEndian.Uint64(sum[:8]) % uint64(len(BrandThemes))
	return BrandThemes[index]
}

// ImageBrief builds the five-image cinematic series brief for a
// generate-mode row.
func ImageBrief(topic, theme string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q — 5-Image Cinematic Series (Loomvale brand)\n", topic)
	b.WriteString("Overall Style & Tone:\n")
	b.WriteString("* Lo-fi, painterly, soft film-grain texture\n")
	b.WriteString("* Soft colours (cozy, cinematic warmth)\n")
	b.WriteString("* East Asian character type\n")
	b.WriteString("* Mixed text style: Manga dialogue + gray handwritten narration\n")
	b.WriteString("* Text integrated naturally within the artwork\n\n")
	fmt.Fprintf(&b, "Brand Color Focus: %s — use tasteful variations of %s; ", theme, theme)
	fmt.Fprintf(&b, "subtle accents from (%s) only if needed.\n\n", strings.Join(BrandThemes, ", "))
	b.WriteString("1) Walk Home — shared umbrella, gentle rain\n")
	b.WriteString("2) Crosswalk — puddle reflections, quiet city glow\n")
	b.WriteString("3) Shelter — bus stop glass, rain streaks, shared earbuds\n")
	b.WriteString("4) Goodbye — bus arriving, soft motion blur\n")
	b.WriteString("5) After the Rain — intimate close, soft gradients\n")
	return b.String()
}

// Prompts bundles the derived text fields for one row.
type Prompts struct {
	Tone          string
	CaptionPrompt string
	HashtagPrompt string
	ImageBrief    string
}

// PromptsFor derives every text field a row of the given mode needs.
// ImageBrief is only produced for generate-mode rows.
func PromptsFor(rowKey int64, topic string, mode backlog.Mode) Prompts {
	tone := ToneFor(topic)
	prompts := Prompts{
		Tone:          tone,
		CaptionPrompt: CaptionPrompt(topic, tone),
		HashtagPrompt: HashtagPrompt(topic),
	}
	if mode == backlog.ModeGenerate {
		prompts.ImageBrief = ImageBrief(topic, ThemeFor(rowKey, topic))
	}
	return prompts
}
