// Package imagegen renders generate-mode briefs through the OpenAI
// images API. It runs as a separate pass over the backlog: the state
// machine marks generate rows content-complete, and this pass turns
// their briefs into hosted image links.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"loomvale/internal/config"
)

// Client wraps the images endpoint for brief rendering.
type Client struct {
	model        string
	size         string
	imagesPerRow int
	opts         []option.RequestOption
}

// New builds a generation client from config. The imagegen section must
// be enabled and carry an API key.
func New(cfg config.ImageGen) (*Client, error) {
	if !cfg.Enabled {
		return nil, errors.New("imagegen is disabled; enable it in the [imagegen] config section")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("imagegen api key missing; provide imagegen.api_key")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("imagegen model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	imagesPerRow := cfg.ImagesPerRow
	if imagesPerRow < 1 {
		imagesPerRow = 1
	}
	return &Client{
		model:        cfg.Model,
		size:         cfg.Size,
		imagesPerRow: imagesPerRow,
		opts:         opts,
	}, nil
}

// RenderBrief generates one image per series panel described by the
// brief and returns the hosted URLs.
func (c *Client) RenderBrief(ctx context.Context, brief string) ([]string, error) {
	client := openai.NewClient(c.opts...)

	urls := make([]string, 0, c.imagesPerRow)
	for panel := 1; panel <= c.imagesPerRow; panel++ {
		prompt := brief
		if c.imagesPerRow > 1 {
			prompt = fmt.Sprintf("%s\n\nRender image %d of %d from the series above.", brief, panel, c.imagesPerRow)
		}
		params := openai.ImageGenerateParams{
			Prompt: prompt,
			Model:  openai.ImageModel(c.model),
			N:      openai.Int(1),
		}
		if strings.TrimSpace(c.size) != "" {
			params.Size = openai.ImageGenerateParamsSize(c.size)
		}
		resp, err := client.Images.Generate(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("generate panel %d: %w", panel, err)
		}
		if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].URL) == "" {
			return nil, fmt.Errorf("generate panel %d: response carried no image url", panel)
		}
		urls = append(urls, resp.Data[0].URL)
	}
	return urls, nil
}
