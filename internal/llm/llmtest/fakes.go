// Package llmtest provides scripted generators for tests.
package llmtest

import (
	"casaideal/internal/llm"
	"context"
	"sync"
	"time"
)

// TextCall records one GenerateText invocation.
type TextCall struct {
	Prompt  string
	Options llm.TextGenerationOptions
}

// ImageCall records one GenerateImages invocation.
type ImageCall struct {
	Prompt  string
	Options llm.ImageGenerationOptions
}

// TextFunc produces a response for a prompt.
type TextFunc func(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)

// ImageFunc produces images for a prompt.
type ImageFunc func(ctx context.Context, prompt string, options llm.ImageGenerationOptions) ([]llm.Image, error)

// FakeText is a TextGenerator driven by a function. Calls are recorded.
type FakeText struct {
	Fn TextFunc

	mu    sync.Mutex
	calls []TextCall
}

// GenerateText implements llm.TextGenerator
func (f *FakeText) GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, TextCall{Prompt: prompt, Options: options})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Fn == nil {
		return "", nil
	}
	return f.Fn(ctx, prompt, options)
}

// Calls returns a copy of the recorded calls.
func (f *FakeText) Calls() []TextCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TextCall(nil), f.calls...)
}

// FakeImages is an ImageGenerator driven by a function. Calls are recorded.
type FakeImages struct {
	Fn ImageFunc

	mu    sync.Mutex
	calls []ImageCall
}

// GenerateImages implements llm.ImageGenerator
func (f *FakeImages) GenerateImages(ctx context.Context, prompt string, options llm.ImageGenerationOptions) ([]llm.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ImageCall{Prompt: prompt, Options: options})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Fn == nil {
		return nil, nil
	}
	return f.Fn(ctx, prompt, options)
}

// Calls returns a copy of the recorded calls.
func (f *FakeImages) Calls() []ImageCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ImageCall(nil), f.calls...)
}

// StaticText always answers with response.
func StaticText(response string) *FakeText {
	return &FakeText{Fn: func(context.Context, string, llm.TextGenerationOptions) (string, error) {
		return response, nil
	}}
}

// FailingText always fails with err.
func FailingText(err error) *FakeText {
	return &FakeText{Fn: func(context.Context, string, llm.TextGenerationOptions) (string, error) {
		return "", err
	}}
}

// FailingImages always fails with err.
func FailingImages(err error) *FakeImages {
	return &FakeImages{Fn: func(context.Context, string, llm.ImageGenerationOptions) ([]llm.Image, error) {
		return nil, err
	}}
}

// JPEGs returns n distinct tiny images.
func JPEGs(n int) []llm.Image {
	images := make([]llm.Image, n)
	for i := range images {
		images[i] = llm.Image{Data: []byte{0xff, 0xd8, byte(i)}, MIMEType: "image/jpeg"}
	}
	return images
}

// StaticImages answers every request with options.Count generated images.
func StaticImages() *FakeImages {
	return &FakeImages{Fn: func(_ context.Context, _ string, options llm.ImageGenerationOptions) ([]llm.Image, error) {
		return JPEGs(options.Count), nil
	}}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
