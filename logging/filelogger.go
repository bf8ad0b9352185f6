// Package logging writes one run's results to disk as plain log files,
// grounded on the teacher's filelogger.go: the same AsyncFile non-blocking
// writer and per-runID directory layout, trimmed from the teacher's
// gate/suite/HTML dashboard to the flat test list this domain schedules.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/toolproof/toolproof/types"
)

const RunDirectoryPrefix = "testrun-"

// AsyncFile provides non-blocking file writing, queuing writes onto a
// background goroutine so a slow disk never blocks a step handler.
type AsyncFile struct {
	file    *os.File
	queue   chan []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewAsyncFile creates a new AsyncFile for non-blocking writes.
func NewAsyncFile(path string) (*AsyncFile, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	af := &AsyncFile{file: file, queue: make(chan []byte, 100)}
	af.wg.Add(1)
	go af.processQueue()
	return af, nil
}

func (af *AsyncFile) Write(data []byte) error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if af.stopped {
		return fmt.Errorf("async file is closed")
	}
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	af.queue <- dataCopy
	return nil
}

func (af *AsyncFile) processQueue() {
	defer af.wg.Done()
	for data := range af.queue {
		if _, err := af.file.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "error writing to file: %v\n", err)
		}
	}
}

func (af *AsyncFile) Close() error {
	af.mu.Lock()
	if !af.stopped {
		af.stopped = true
		close(af.queue)
	}
	af.mu.Unlock()
	af.wg.Wait()
	return af.file.Close()
}

// FileLogger writes a run's results under baseDir/testrun-<runID>/: one
// combined all.log, and one file per failed or flaky test holding its
// attempt/step trace.
type FileLogger struct {
	baseDir   string
	runDir    string
	failedDir string
	runID     string

	mu      sync.Mutex
	all     *AsyncFile
	writers map[string]*AsyncFile
}

// NewFileLogger creates the run directory tree and opens the combined log.
func NewFileLogger(baseDir, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	runDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	failedDir := filepath.Join(runDir, "failed")
	for _, dir := range []string{baseDir, runDir, failedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	all, err := NewAsyncFile(filepath.Join(runDir, "all.log"))
	if err != nil {
		return nil, err
	}

	return &FileLogger{
		baseDir: baseDir, runDir: runDir, failedDir: failedDir, runID: runID,
		all: all, writers: make(map[string]*AsyncFile),
	}, nil
}

// LogTestResult appends a one-line summary to all.log, and for a failing or
// flaky test writes its full attempt/step trace to failed/<name>.log.
func (l *FileLogger) LogTestResult(result *types.TestResult) error {
	line := fmt.Sprintf("%s %s duration=%s attempts=%d\n",
		result.Status, result.Name, result.Duration, len(result.Attempts))
	if err := l.all.Write([]byte(line)); err != nil {
		return err
	}

	if (result.Status == types.TestStatusPass && !result.IsFlaky()) || result.Status == types.TestStatusSkip {
		return nil
	}

	path := filepath.Join(l.failedDir, safeFilename(result.Name)+".log")
	writer, err := l.getWriter(path)
	if err != nil {
		return err
	}
	return writer.Write([]byte(formatAttempts(result)))
}

func (l *FileLogger) getWriter(path string) (*AsyncFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.writers[path]; ok {
		return w, nil
	}
	w, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}
	l.writers[path] = w
	return w, nil
}

// Complete closes every open writer; call once after the run finishes.
func (l *FileLogger) Complete() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	if err := l.all.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, w := range l.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.writers = make(map[string]*AsyncFile)
	return firstErr
}

// RunDir returns the directory this logger writes into.
func (l *FileLogger) RunDir() string {
	return l.runDir
}

func formatAttempts(result *types.TestResult) string {
	out := fmt.Sprintf("test: %s\nstatus: %s\n", result.Name, result.Status)
	for _, attempt := range result.Attempts {
		out += fmt.Sprintf("attempt %d: %s (%s)\n", attempt.Number, attempt.Status, attempt.Duration)
		for _, step := range attempt.Steps {
			if step.Err != nil {
				out += fmt.Sprintf("  step %d: %v\n", step.Index, step.Err)
			}
		}
	}
	return out
}

func safeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	return replacer.Replace(s)
}
