package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
	"github.com/appraisily/appraisals-backend/internal/platform/pubsub"
	"github.com/appraisily/appraisals-backend/internal/platform/wordpress"
	"github.com/appraisily/appraisals-backend/internal/types"
)

func testLogger() *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		panic(err)
	}
	return log
}

// fakeSheets serves a fixed set of data rows and records every write.
type fakeSheets struct {
	mu        sync.Mutex
	rows      [][]string
	getErr    error
	updateErr error
	failFor   map[string]error
	updates   []sheetUpdate
}

type sheetUpdate struct {
	a1Range string
	values  [][]any
}

func (f *fakeSheets) GetValues(_ context.Context, a1Range string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if strings.HasSuffix(a1Range, "!A2:O") {
		out := make([][]string, len(f.rows))
		copy(out, f.rows)
		return out, nil
	}
	// Single-row range like "Sheet!A5:O5".
	var from, to int
	ref := a1Range[strings.Index(a1Range, "!")+1:]
	if n, _ := fmt.Sscanf(ref, "A%d:O%d", &from, &to); n == 2 {
		idx := from - types.DataStartRow
		if idx >= 0 && idx < len(f.rows) {
			return [][]string{f.rows[idx]}, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("fakeSheets: unsupported range %q", a1Range)
}

func (f *fakeSheets) UpdateValues(_ context.Context, a1Range string, values [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if err, ok := f.failFor[a1Range]; ok {
		return err
	}
	f.updates = append(f.updates, sheetUpdate{a1Range: a1Range, values: values})
	return nil
}

func (f *fakeSheets) updateFor(a1Range string) (sheetUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.updates {
		if u.a1Range == a1Range {
			return u, true
		}
	}
	return sheetUpdate{}, false
}

func (f *fakeSheets) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

// fakeWordPress keeps posts in memory and counts write kinds so tests
// can assert how many content vs flag updates happened.
type fakeWordPress struct {
	mu            sync.Mutex
	posts         map[int]*wordpress.Post
	getErr        error
	updateErr     error
	contentWrites int
	acfWrites     int
	titleWrites   int
}

func newFakeWordPress(posts ...*wordpress.Post) *fakeWordPress {
	m := make(map[int]*wordpress.Post)
	for _, p := range posts {
		m[p.ID] = p
	}
	return &fakeWordPress{posts: m}
}

func (f *fakeWordPress) GetPost(_ context.Context, postID int) (*wordpress.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.posts[postID]
	if !ok {
		return nil, fmt.Errorf("fakeWordPress: post %d not found", postID)
	}
	cp := *p
	if p.ACF != nil {
		cp.ACF = make(map[string]any, len(p.ACF))
		for k, v := range p.ACF {
			cp.ACF[k] = v
		}
	}
	return &cp, nil
}

func (f *fakeWordPress) UpdatePost(_ context.Context, postID int, patch wordpress.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	p, ok := f.posts[postID]
	if !ok {
		p = &wordpress.Post{ID: postID}
		f.posts[postID] = p
	}
	if patch.Title != nil {
		p.Title = *patch.Title
		f.titleWrites++
	}
	if patch.Content != nil {
		p.Content = *patch.Content
		f.contentWrites++
	}
	if len(patch.ACF) > 0 {
		if p.ACF == nil {
			p.ACF = make(map[string]any)
		}
		for k, v := range patch.ACF {
			p.ACF[k] = v
		}
		f.acfWrites++
	}
	return nil
}

// fakeAI implements the openai.Client surface.
type fakeAI struct {
	description string
	merged      string
	describeErr error
	mergeErr    error
	describes   int
}

func (f *fakeAI) DescribeImage(_ context.Context, _ string) (string, error) {
	f.describes++
	if f.describeErr != nil {
		return "", f.describeErr
	}
	return f.description, nil
}

func (f *fakeAI) MergeDescriptions(_ context.Context, ai, human string) (string, error) {
	if f.mergeErr != nil {
		return "", f.mergeErr
	}
	if f.merged != "" {
		return f.merged, nil
	}
	return ai + " | " + human, nil
}

// fakeEmail records notification sends.
type fakeEmail struct {
	mu        sync.Mutex
	updates   []string
	completed []string
	sendErr   error
}

func (f *fakeEmail) SendAppraisalUpdate(_ context.Context, to, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.updates = append(f.updates, to)
	return nil
}

func (f *fakeEmail) SendAppraisalCompleted(_ context.Context, to, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.completed = append(f.completed, to)
	return nil
}

// fakePublisher records completion events.
type fakePublisher struct {
	mu     sync.Mutex
	events []pubsub.CompletedEvent
}

func (f *fakePublisher) PublishCompleted(_ context.Context, event pubsub.CompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }
