package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduquiz/export"
	"eduquiz/generator"
	"eduquiz/store"
)

// stubExporter records calls and returns canned results.
type stubExporter struct {
	path  string
	err   error
	calls int
}

func (f *stubExporter) Export(text string, meta export.Metadata) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

// fileExporter writes a real artifact so cleanup behavior is observable.
type fileExporter struct {
	dir string
}

func (f *fileExporter) Export(text string, meta export.Metadata) (string, error) {
	path := filepath.Join(f.dir, "mcqs_test.pdf")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// blockingLLM answers only once its context is done.
type blockingLLM struct{}

func (b *blockingLLM) Complete(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func newTestController(t *testing.T, llm *generator.MockLLM, exp Exporter) (*Controller, *store.Store) {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	agent, err := generator.NewAgent(llm)
	require.NoError(t, err)

	if exp == nil {
		exp = &stubExporter{path: "/out/p1.pdf"}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewController(st, agent, exp, 5*time.Second, log), st
}

func login(t *testing.T, c *Controller, email, password string) *Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Signup(ctx, email, password))
	sess, err := c.Login(ctx, email, password)
	require.NoError(t, err)
	return sess
}

func TestSignupValidation(t *testing.T) {
	c, _ := newTestController(t, &generator.MockLLM{}, nil)
	ctx := context.Background()

	assert.ErrorIs(t, c.Signup(ctx, "", "secret1"), ErrValidation)
	assert.ErrorIs(t, c.Signup(ctx, "a@x.com", ""), ErrValidation)
	assert.ErrorIs(t, c.Signup(ctx, "a@x.com", "short"), ErrValidation)
}

func TestSignupDuplicateSurfacesDistinctly(t *testing.T) {
	c, _ := newTestController(t, &generator.MockLLM{}, nil)
	ctx := context.Background()

	require.NoError(t, c.Signup(ctx, "a@x.com", "secret1"))
	err := c.Signup(ctx, "a@x.com", "secret2")
	assert.ErrorIs(t, err, store.ErrEmailTaken)
	assert.NotErrorIs(t, err, store.ErrInvalidCredentials)
}

func TestLoginRejectionIsGeneric(t *testing.T) {
	c, _ := newTestController(t, &generator.MockLLM{}, nil)
	ctx := context.Background()
	require.NoError(t, c.Signup(ctx, "a@x.com", "secret1"))

	_, errUnknown := c.Login(ctx, "b@x.com", "secret1")
	_, errWrong := c.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, errUnknown, store.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, store.ErrInvalidCredentials)
}

func TestGenerateEmptyTopicNoCollaboratorCall(t *testing.T) {
	llm := &generator.MockLLM{Response: "new text"}
	c, _ := newTestController(t, llm, nil)
	sess := login(t, c, "a@x.com", "secret1")
	sess.mcqText = "previous output"

	err := sess.Generate(context.Background(), "   ", 5, generator.LevelEasy)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, llm.Calls())
	assert.Equal(t, "previous output", sess.mcqText)
}

func TestGenerateCountOutOfRange(t *testing.T) {
	llm := &generator.MockLLM{Response: "text"}
	c, _ := newTestController(t, llm, nil)
	sess := login(t, c, "a@x.com", "secret1")

	assert.ErrorIs(t, sess.Generate(context.Background(), "Biology", 0, generator.LevelEasy), ErrValidation)
	assert.ErrorIs(t, sess.Generate(context.Background(), "Biology", 21, generator.LevelEasy), ErrValidation)
	assert.Empty(t, llm.Calls())
}

func TestGenerateSetsTransientState(t *testing.T) {
	llm := &generator.MockLLM{Response: "1. Q?\nAnswer: A"}
	c, _ := newTestController(t, llm, nil)
	sess := login(t, c, "a@x.com", "secret1")

	require.NoError(t, sess.Generate(context.Background(), "Biology", 5, generator.LevelMedium))
	assert.Equal(t, "Biology", sess.topic)
	assert.Equal(t, 5, sess.count)
	assert.Equal(t, generator.LevelMedium, sess.level)
	assert.Equal(t, "1. Q?\nAnswer: A", sess.mcqText)
}

func TestGenerateFailurePreservesPriorOutput(t *testing.T) {
	llm := &generator.MockLLM{Err: errors.New("model unreachable")}
	c, _ := newTestController(t, llm, nil)
	sess := login(t, c, "a@x.com", "secret1")
	sess.topic = "Old"
	sess.mcqText = "old output"

	err := sess.Generate(context.Background(), "Biology", 5, generator.LevelEasy)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Old", sess.topic)
	assert.Equal(t, "old output", sess.mcqText)
}

func TestExportAndSave(t *testing.T) {
	exp := &stubExporter{path: "/out/p1.pdf"}
	c, st := newTestController(t, &generator.MockLLM{Response: "text"}, exp)
	sess := login(t, c, "a@x.com", "secret1")
	require.NoError(t, sess.Generate(context.Background(), "Biology", 5, generator.LevelEasy))

	path, id, err := sess.ExportAndSave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/out/p1.pdf", path)
	assert.Equal(t, 1, exp.calls)

	rec, err := st.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Biology", rec.Topic)
	assert.Equal(t, "text", rec.MCQText)
	assert.Equal(t, "/out/p1.pdf", rec.PDFPath)
}

func TestExportWithoutGeneratedText(t *testing.T) {
	exp := &stubExporter{path: "/out/p1.pdf"}
	c, _ := newTestController(t, &generator.MockLLM{}, exp)
	sess := login(t, c, "a@x.com", "secret1")

	_, _, err := sess.ExportAndSave(context.Background())
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Zero(t, exp.calls)
}

func TestExportFailureDoesNotAppend(t *testing.T) {
	exp := &stubExporter{err: errors.New("disk full")}
	c, _ := newTestController(t, &generator.MockLLM{Response: "text"}, exp)
	sess := login(t, c, "a@x.com", "secret1")
	require.NoError(t, sess.Generate(context.Background(), "Biology", 5, generator.LevelEasy))

	_, _, err := sess.ExportAndSave(context.Background())
	require.Error(t, err)

	entries, err := sess.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendFailureRemovesArtifact(t *testing.T) {
	dir := t.TempDir()
	c, _ := newTestController(t, &generator.MockLLM{Response: "text"}, &fileExporter{dir: dir})
	sess := login(t, c, "a@x.com", "secret1")
	require.NoError(t, sess.Generate(context.Background(), "Biology", 5, generator.LevelEasy))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := sess.ExportAndSave(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNothingToExport)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files, "failed save should not leave the artifact behind")

	entries, err := sess.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateTimeoutIsRecoverable(t *testing.T) {
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	agent, err := generator.NewAgent(&blockingLLM{})
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewController(st, agent, &stubExporter{path: "/out/p1.pdf"}, 20*time.Millisecond, log)
	sess := login(t, c, "a@x.com", "secret1")
	sess.mcqText = "previous output"

	err = sess.Generate(context.Background(), "Biology", 5, generator.LevelEasy)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "previous output", sess.mcqText)
}

func TestConcurrentGeneratesSerialized(t *testing.T) {
	llm := &generator.MockLLM{Response: "output"}
	c, _ := newTestController(t, llm, nil)
	sess := login(t, c, "a@x.com", "secret1")

	var wg sync.WaitGroup
	for _, topic := range []string{"Alpha", "Beta"} {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			assert.NoError(t, sess.Generate(context.Background(), topic, 5, generator.LevelEasy))
		}(topic)
	}
	wg.Wait()

	assert.Len(t, llm.Calls(), 2)
	state := sess.State()
	assert.Contains(t, []string{"Alpha", "Beta"}, state.Topic)
	assert.Equal(t, "output", state.MCQText)
}

func TestLoadSessionReplay(t *testing.T) {
	c, st := newTestController(t, &generator.MockLLM{}, nil)
	sess := login(t, c, "a@x.com", "secret1")

	id, err := st.AppendHistory(context.Background(), "a@x.com", "Biology", "<text>", "/out/p1.pdf")
	require.NoError(t, err)

	require.NoError(t, sess.LoadSession(context.Background(), id))
	assert.Equal(t, "Biology", sess.topic)
	assert.Equal(t, "<text>", sess.mcqText)
}

func TestLoadSessionMissLeavesStateUnchanged(t *testing.T) {
	c, _ := newTestController(t, &generator.MockLLM{}, nil)
	sess := login(t, c, "a@x.com", "secret1")
	sess.topic = "Old"
	sess.mcqText = "old output"

	err := sess.LoadSession(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, "Old", sess.topic)
	assert.Equal(t, "old output", sess.mcqText)
}

func TestLoadSessionOtherOwnerReportedAsNotFound(t *testing.T) {
	c, st := newTestController(t, &generator.MockLLM{}, nil)
	sess := login(t, c, "a@x.com", "secret1")

	id, err := st.AppendHistory(context.Background(), "b@x.com", "Physics", "<text>", "/out/p2.pdf")
	require.NoError(t, err)

	err = sess.LoadSession(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, sess.mcqText)
}

func TestLogoutClearsTransientState(t *testing.T) {
	c, _ := newTestController(t, &generator.MockLLM{Response: "text"}, nil)
	sess := login(t, c, "a@x.com", "secret1")
	require.NoError(t, sess.Generate(context.Background(), "Biology", 5, generator.LevelHard))

	sess.Logout()
	assert.Empty(t, sess.owner)
	assert.Empty(t, sess.topic)
	assert.Empty(t, sess.mcqText)
	assert.Zero(t, sess.count)
}
