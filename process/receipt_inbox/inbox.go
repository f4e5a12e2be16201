package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"finboard/models"
	"finboard/pkg/receipt"
	"finboard/pkg/store"

	"github.com/fsnotify/fsnotify"
)

// maxInboxFile bounds what is read from disk. Images up to this size are
// downscaled to fit receipt.MaxSize before they are stored.
const maxInboxFile = 8 * receipt.MaxSize

// expenseWriter is the slice of the store the inbox touches.
type expenseWriter interface {
	GetExpense(ctx context.Context, userID, id string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, userID, id string, upd models.ExpenseUpdate) (*models.Expense, error)
}

// stats counts outcomes across workers.
type stats struct {
	attached, skipped, rejected atomic.Int64
}

func (s *stats) String() string {
	return fmt.Sprintf("attached=%d skipped=%d rejected=%d", s.attached.Load(), s.skipped.Load(), s.rejected.Load())
}

// inbox attaches files named <expenseId>.<ext> to the user's expenses.
type inbox struct {
	dir     string
	userID  string
	st      expenseWriter
	logger  *slog.Logger
	dryRun  bool
	verbose bool
	stats   stats
}

func (in *inbox) processedDir() string { return filepath.Join(in.dir, "processed") }
func (in *inbox) rejectedDir() string  { return filepath.Join(in.dir, "rejected") }

func (in *inbox) logV(msg string, args ...any) {
	if in.verbose {
		in.logger.Info(msg, args...)
	}
}

// isCandidate reports whether name looks like an inbox file.
func isCandidate(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return receipt.TypeByExtension(name) != ""
}

func listInboxFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isCandidate(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

// scan processes every file currently in the inbox and returns when done.
func (in *inbox) scan(ctx context.Context, workers int) {
	files := listInboxFiles(in.dir)
	in.logger.Info("scanning inbox", "dir", in.dir, "files", len(files), "workers", effectiveWorkers(workers))
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, f := range files {
			select {
			case ch <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	in.runWorkerPool(ctx, ch, workers)
}

// runWorkerPool drains names with the given number of workers.
func (in *inbox) runWorkerPool(ctx context.Context, names <-chan string, workers int) {
	var wg sync.WaitGroup
	for i := 0; i < effectiveWorkers(workers); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range names {
				in.processFile(ctx, name)
			}
		}()
	}
	wg.Wait()
}

// watch feeds newly created files to the worker pool until ctx ends. A file is
// picked up once it has not changed for settle.
func (in *inbox) watch(ctx context.Context, workers int, settle time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(in.dir); err != nil {
		return err
	}
	in.logger.Info("watching inbox", "dir", in.dir)

	fileCh := make(chan string, 256)
	go func() {
		defer close(fileCh)
		pending := map[string]time.Time{}
		ticker := time.NewTicker(settle / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				name := filepath.Base(ev.Name)
				if filepath.Dir(ev.Name) != filepath.Clean(in.dir) || !isCandidate(name) {
					continue
				}
				pending[name] = time.Now()
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > settle {
						delete(pending, name)
						select {
						case fileCh <- name:
						case <-ctx.Done():
							return
						}
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				in.logger.Warn("watch error", "error", err)
			}
		}
	}()

	in.runWorkerPool(ctx, fileCh, workers)
	return nil
}

// processFile attaches one file. It is idempotent: processed files leave the inbox.
func (in *inbox) processFile(ctx context.Context, name string) {
	path := filepath.Join(in.dir, name)
	expenseID := strings.TrimSuffix(name, filepath.Ext(name))
	log := in.logger.With("file", name)

	if !models.ValidID(expenseID) {
		in.stats.skipped.Add(1)
		log.Warn("file name is not an expense id")
		return
	}
	if _, err := in.st.GetExpense(ctx, in.userID, expenseID); err != nil {
		in.stats.skipped.Add(1)
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("no such expense for user", "expense_id", expenseID)
		} else {
			log.Error("expense lookup failed", "expense_id", expenseID, "error", err)
		}
		return
	}

	rec, err := readReceipt(path)
	if err != nil {
		in.stats.rejected.Add(1)
		log.Warn("receipt rejected", "error", err)
		if !in.dryRun {
			if err := moveInto(path, in.rejectedDir()); err != nil {
				log.Error("move to rejected failed", "error", err)
			}
		}
		return
	}
	if in.dryRun {
		in.stats.attached.Add(1)
		log.Info("would attach receipt", "expense_id", expenseID, "content_type", rec.ContentType, "bytes", len(rec.Data))
		return
	}

	if _, err := in.st.UpdateExpense(ctx, in.userID, expenseID, models.ExpenseUpdate{Receipt: rec}); err != nil {
		in.stats.skipped.Add(1)
		log.Error("attach failed", "expense_id", expenseID, "error", err)
		return
	}
	in.stats.attached.Add(1)
	log.Info("receipt attached", "expense_id", expenseID, "content_type", rec.ContentType, "bytes", len(rec.Data))
	if err := moveInto(path, in.processedDir()); err != nil {
		log.Warn("move to processed failed", "error", err)
	} else {
		in.logV("moved to processed", "dir", in.processedDir())
	}
}

// readReceipt loads a file, shrinks oversized images and applies the same
// allow-list as the upload endpoint.
func readReceipt(path string) (*models.Receipt, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Size() > maxInboxFile {
		return nil, receipt.ErrTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ct := receipt.Detect(filepath.Base(path), data)
	if ct == "" {
		return nil, receipt.ErrType
	}
	rec, err := receipt.Shrink(&models.Receipt{Data: data, ContentType: ct}, receipt.MaxSize)
	if err != nil {
		return nil, err
	}
	ct, err = receipt.Check(rec.Data, rec.ContentType)
	if err != nil {
		return nil, err
	}
	rec.ContentType = ct
	return rec, nil
}

// moveInto moves src into dir, keeping its name.
func moveInto(src, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
