package services

import (
	"context"
	"errors"
	"testing"

	"github.com/appraisily/appraisals-backend/internal/platform/wordpress"
	"github.com/appraisily/appraisals-backend/internal/types"
)

const testSheet = "Pending Appraisals"

func pendingRequest() types.UpdatePendingRequest {
	return types.UpdatePendingRequest{
		SessionID:     "S-bbb",
		CustomerEmail: "cust@example.com",
		PostID:        42,
		PostEditURL:   "https://resources.example.com/wp-admin/post.php?post=42&action=edit",
		Description:   "Family heirloom, bought in 1970.",
		Images:        map[string]string{"main": "https://img.example.com/main.jpg"},
	}
}

func pipelineFixture() (*fakeSheets, *fakeWordPress, *fakeAI, *fakeEmail) {
	fs := &fakeSheets{rows: [][]string{
		sheetRow("S-aaa", "Alice"),
		sheetRow("S-bbb", "Bob"),
	}}
	wp := newFakeWordPress(&wordpress.Post{ID: 42, Title: "Draft"})
	ai := &fakeAI{description: "A bronze figurine"}
	em := &fakeEmail{}
	return fs, wp, ai, em
}

func TestProcessPendingUpdateHappyPath(t *testing.T) {
	fs, wp, ai, em := pipelineFixture()
	caps := NewCapabilities(true, true, false)
	rs := NewResolverService(testLogger(), fs, testSheet)
	ps := NewPipelineService(testLogger(), caps, ai, wp, fs, rs, em, testSheet)

	if err := ps.ProcessPendingUpdate(context.Background(), pendingRequest()); err != nil {
		t.Fatalf("ProcessPendingUpdate: %v", err)
	}

	post, _ := wp.GetPost(context.Background(), 42)
	if post.Title != "Preliminary Analysis: A bronze figurine" {
		t.Fatalf("title: got=%q", post.Title)
	}

	// S-bbb resolves to sheet row 3. The three column writes land in
	// H, I and O of that row.
	if u, ok := fs.updateFor(types.Cell(testSheet, types.ColAIDescription, 3)); !ok {
		t.Fatalf("missing AI description write")
	} else if u.values[0][0] != "A bronze figurine" {
		t.Fatalf("AI description value: got=%v", u.values[0][0])
	}
	if u, ok := fs.updateFor(types.Cell(testSheet, types.ColCustomerDescription, 3)); !ok {
		t.Fatalf("missing customer description write")
	} else if u.values[0][0] != "Family heirloom, bought in 1970." {
		t.Fatalf("customer description value: got=%v", u.values[0][0])
	}
	if u, ok := fs.updateFor(types.Cell(testSheet, types.ColImages, 3)); !ok {
		t.Fatalf("missing images write")
	} else if u.values[0][0] != `{"main":"https://img.example.com/main.jpg"}` {
		t.Fatalf("images value: got=%v", u.values[0][0])
	}
	if n := fs.updateCount(); n != 3 {
		t.Fatalf("sheet writes: want=3 got=%d", n)
	}

	if len(em.updates) != 1 || em.updates[0] != "cust@example.com" {
		t.Fatalf("update notification: got=%v", em.updates)
	}
}

func TestProcessPendingUpdateAIGatedOff(t *testing.T) {
	fs, wp, ai, em := pipelineFixture()
	caps := NewCapabilities(false, true, false)
	rs := NewResolverService(testLogger(), fs, testSheet)
	ps := NewPipelineService(testLogger(), caps, nil, wp, fs, rs, em, testSheet)

	if err := ps.ProcessPendingUpdate(context.Background(), pendingRequest()); err != nil {
		t.Fatalf("ProcessPendingUpdate: %v", err)
	}

	if ai.describes != 0 {
		t.Fatalf("gated AI was still invoked %d times", ai.describes)
	}
	// The placeholder titles the post like any real description would.
	post, _ := wp.GetPost(context.Background(), 42)
	if post.Title != "Preliminary Analysis: AI service unavailable" {
		t.Fatalf("title with gated AI: got=%q", post.Title)
	}
	u, ok := fs.updateFor(types.Cell(testSheet, types.ColAIDescription, 3))
	if !ok {
		t.Fatalf("missing AI description write")
	}
	if u.values[0][0] != "AI service unavailable" {
		t.Fatalf("placeholder: got=%v", u.values[0][0])
	}
	// Remaining steps still ran.
	if n := fs.updateCount(); n != 3 {
		t.Fatalf("sheet writes: want=3 got=%d", n)
	}
	if len(em.updates) != 1 {
		t.Fatalf("update notification: got=%v", em.updates)
	}
}

func TestProcessPendingUpdateAIFailureDegrades(t *testing.T) {
	fs, wp, _, em := pipelineFixture()
	ai := &fakeAI{describeErr: errors.New("rate limited")}
	caps := NewCapabilities(true, false, false)
	rs := NewResolverService(testLogger(), fs, testSheet)
	ps := NewPipelineService(testLogger(), caps, ai, wp, fs, rs, em, testSheet)

	if err := ps.ProcessPendingUpdate(context.Background(), pendingRequest()); err != nil {
		t.Fatalf("ProcessPendingUpdate: %v", err)
	}

	post, _ := wp.GetPost(context.Background(), 42)
	if post.Title != "Preliminary Analysis: AI description unavailable" {
		t.Fatalf("title after AI failure: got=%q", post.Title)
	}
	u, ok := fs.updateFor(types.Cell(testSheet, types.ColAIDescription, 3))
	if !ok {
		t.Fatalf("missing AI description write")
	}
	if u.values[0][0] != "AI description unavailable" {
		t.Fatalf("placeholder: got=%v", u.values[0][0])
	}
}

func TestProcessPendingUpdateEmptyDescriptionPendingTitle(t *testing.T) {
	fs, wp, _, em := pipelineFixture()
	ai := &fakeAI{description: ""}
	caps := NewCapabilities(true, false, false)
	rs := NewResolverService(testLogger(), fs, testSheet)
	ps := NewPipelineService(testLogger(), caps, ai, wp, fs, rs, em, testSheet)

	if err := ps.ProcessPendingUpdate(context.Background(), pendingRequest()); err != nil {
		t.Fatalf("ProcessPendingUpdate: %v", err)
	}

	post, _ := wp.GetPost(context.Background(), 42)
	if post.Title != "Pending Analysis" {
		t.Fatalf("title for empty description: got=%q", post.Title)
	}
}

func TestProcessPendingUpdateUnknownSessionAborts(t *testing.T) {
	fs, wp, ai, em := pipelineFixture()
	caps := NewCapabilities(true, true, false)
	rs := NewResolverService(testLogger(), fs, testSheet)
	ps := NewPipelineService(testLogger(), caps, ai, wp, fs, rs, em, testSheet)

	req := pendingRequest()
	req.SessionID = "S-missing"
	if err := ps.ProcessPendingUpdate(context.Background(), req); err == nil {
		t.Fatalf("expected error for unknown session")
	}

	if n := fs.updateCount(); n != 0 {
		t.Fatalf("sheet writes after failed resolution: want=0 got=%d", n)
	}
	if len(em.updates) != 0 {
		t.Fatalf("notification sent after failed resolution: %v", em.updates)
	}
}

func TestProcessPendingUpdateTitleWriteFailureAborts(t *testing.T) {
	fs, wp, ai, em := pipelineFixture()
	wp.updateErr = errors.New("502")
	caps := NewCapabilities(true, true, false)
	rs := NewResolverService(testLogger(), fs, testSheet)
	ps := NewPipelineService(testLogger(), caps, ai, wp, fs, rs, em, testSheet)

	if err := ps.ProcessPendingUpdate(context.Background(), pendingRequest()); err == nil {
		t.Fatalf("expected error when title write fails")
	}
	if n := fs.updateCount(); n != 0 {
		t.Fatalf("sheet writes after failed title step: want=0 got=%d", n)
	}
}

func TestProcessPendingUpdateEmailFailureSwallowed(t *testing.T) {
	fs, wp, ai, em := pipelineFixture()
	em.sendErr = errors.New("smtp down")
	caps := NewCapabilities(true, true, false)
	rs := NewResolverService(testLogger(), fs, testSheet)
	ps := NewPipelineService(testLogger(), caps, ai, wp, fs, rs, em, testSheet)

	if err := ps.ProcessPendingUpdate(context.Background(), pendingRequest()); err != nil {
		t.Fatalf("notification failure must not fail the pipeline: %v", err)
	}
	if n := fs.updateCount(); n != 3 {
		t.Fatalf("sheet writes: want=3 got=%d", n)
	}
}

func TestProcessPendingUpdateSheetWriteFailure(t *testing.T) {
	fs, wp, ai, em := pipelineFixture()
	fs.updateErr = errors.New("quota")
	caps := NewCapabilities(true, true, false)
	rs := NewResolverService(testLogger(), fs, testSheet)
	ps := NewPipelineService(testLogger(), caps, ai, wp, fs, rs, em, testSheet)

	if err := ps.ProcessPendingUpdate(context.Background(), pendingRequest()); err == nil {
		t.Fatalf("expected error when tabular writes fail")
	}
	if len(em.updates) != 0 {
		t.Fatalf("notification sent after failed writes: %v", em.updates)
	}
}

func TestProcessPendingUpdateFailedWriteDoesNotCancelSiblings(t *testing.T) {
	fs, wp, ai, em := pipelineFixture()
	fs.failFor = map[string]error{
		types.Cell(testSheet, types.ColAIDescription, 3): errors.New("quota"),
	}
	caps := NewCapabilities(true, true, false)
	rs := NewResolverService(testLogger(), fs, testSheet)
	ps := NewPipelineService(testLogger(), caps, ai, wp, fs, rs, em, testSheet)

	if err := ps.ProcessPendingUpdate(context.Background(), pendingRequest()); err == nil {
		t.Fatalf("expected error when a column write fails")
	}

	// The other two columns still land.
	if _, ok := fs.updateFor(types.Cell(testSheet, types.ColCustomerDescription, 3)); !ok {
		t.Fatalf("customer description write cancelled by sibling failure")
	}
	if _, ok := fs.updateFor(types.Cell(testSheet, types.ColImages, 3)); !ok {
		t.Fatalf("images write cancelled by sibling failure")
	}
}
