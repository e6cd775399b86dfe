package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LineWriter handles async writing of decision entries to date-organized
// JSONL files.
type LineWriter struct {
	baseDir     string
	maxSizeMB   int
	writeCh     chan Entry
	done        chan struct{}
	wg          sync.WaitGroup
	currentDate string
	sink        *lumberjack.Logger
	mu          sync.Mutex
}

// NewLineWriter creates a new async JSONL writer rooted at baseDir.
func NewLineWriter(baseDir string, bufferSize int, maxSizeMB int) *LineWriter {
	w := &LineWriter{
		baseDir:   baseDir,
		maxSizeMB: maxSizeMB,
		writeCh:   make(chan Entry, bufferSize),
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.writeLoop()

	return w
}

// Write queues an entry for async writing.
func (w *LineWriter) Write(e Entry) error {
	select {
	case w.writeCh <- e:
		return nil
	case <-w.done:
		return fmt.Errorf("writer is closed")
	default:
		// Channel full, log warning but don't block
		slog.Warn("decision journal buffer full, dropping entry",
			"tab", e.TabID)
		return fmt.Errorf("buffer full")
	}
}

// Close shuts down the writer and flushes pending data.
func (w *LineWriter) Close() error {
	close(w.done)

	// Drain remaining items with timeout
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-w.writeCh:
			w.writeEntry(e)
		case <-timeout:
			slog.Warn("decision journal close timeout, some entries may be lost")
			goto done
		default:
			goto done
		}
	}

done:
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sink != nil {
		return w.sink.Close()
	}
	return nil
}

func (w *LineWriter) writeLoop() {
	defer w.wg.Done()

	for {
		select {
		case e := <-w.writeCh:
			w.writeEntry(e)
		case <-w.done:
			return
		}
	}
}

func (w *LineWriter) writeEntry(e Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("Failed to marshal journal entry",
			"error", err,
			"tab", e.TabID)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Check if we need to rotate to a new date directory
	currentDate := time.Now().UTC().Format("2006-01-02")
	if currentDate != w.currentDate || w.sink == nil {
		w.rotateForDate(currentDate)
	}
	if w.sink == nil {
		return
	}

	_, err = w.sink.Write(append(data, '\n'))
	if err != nil {
		slog.Error("Failed to write journal entry",
			"error", err)
	}
}

func (w *LineWriter) rotateForDate(date string) {
	if w.sink != nil {
		w.sink.Close()
		w.sink = nil
	}

	dir := filepath.Join(w.baseDir, date)
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("Failed to create journal directory",
			"error", err,
			"dir", dir)
		return
	}

	filename := filepath.Join(dir, "decisions.jsonl")
	w.sink = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    w.maxSizeMB,
		MaxBackups: 100, // Keep many backups
		MaxAge:     30,  // 30 days
		Compress:   false,
		LocalTime:  false, // Use UTC
	}

	w.currentDate = date
	slog.Info("Opened new journal file",
		"file", filename)
}
