package csvfile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

// Defaults for file names derived from the source path.
const (
	DefaultBackupSuffix   = ".bak"
	DefaultAuditName      = "removed_duplicates.csv"
	DefaultFallbackSuffix = "_cleaned.csv"
)

// AuditColumns are appended to the source header in the audit file.
var AuditColumns = []string{"Reason", "KeptIndex", "KeptFamilyName", "KeptGivenName", "KeptEmail", "KeptPhone"}

// Options configures a Store. Empty fields get defaults derived from Path.
type Options struct {
	Path         string
	BackupSuffix string
	// FallbackPath replaces the default fallback files when set.
	FallbackPath string
	AuditPath    string
	Logger       *slog.Logger
}

// Store rewrites the contact file after every confirmed removal and appends
// each removal to an audit CSV.
type Store struct {
	path         string
	backupSuffix string
	fallbacks    []string
	auditPath    string
	logger       *slog.Logger
}

// NewStore creates a Store for the contact file at opts.Path.
//
// Without an explicit FallbackPath, a failed write goes to <stem>_cleaned.csv
// next to the source and, if that directory is not writable either, to the
// same name in the working directory.
func NewStore(opts Options) *Store {
	dir := filepath.Dir(opts.Path)
	stem := strings.TrimSuffix(filepath.Base(opts.Path), filepath.Ext(opts.Path))

	s := &Store{
		path:         opts.Path,
		backupSuffix: opts.BackupSuffix,
		auditPath:    opts.AuditPath,
		logger:       opts.Logger,
	}
	if s.backupSuffix == "" {
		s.backupSuffix = DefaultBackupSuffix
	}
	if opts.FallbackPath != "" {
		s.fallbacks = []string{opts.FallbackPath}
	} else {
		name := stem + DefaultFallbackSuffix
		s.fallbacks = []string{filepath.Join(dir, name)}
		if wd := absPath(name); wd != absPath(s.fallbacks[0]) {
			s.fallbacks = append(s.fallbacks, wd)
		}
	}
	if s.auditPath == "" {
		s.auditPath = filepath.Join(dir, DefaultAuditName)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Path returns the contact file path.
func (s *Store) Path() string { return s.path }

// BackupPath returns where the previous contents are copied before each write.
func (s *Store) BackupPath() string { return s.path + s.backupSuffix }

// FallbackPath returns the first file tried when the contact file cannot be written.
func (s *Store) FallbackPath() string { return s.fallbacks[0] }

// AuditPath returns the audit CSV path.
func (s *Store) AuditPath() string { return s.auditPath }

// PersistLiveSet backs up the contact file and atomically replaces it with
// header plus the live rows. When that fails the same content goes to the
// first writable fallback file and the result is flagged; an error means
// every write failed.
func (s *Store) PersistLiveSet(ctx context.Context, header []string, live [][]string) (models.WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return models.WriteResult{}, err
	}
	content := Encode(header, live)
	perm := s.fileMode()

	backup, err := s.backup(perm)
	if err == nil {
		err = writeAtomic(s.path, content, perm)
	}
	if err == nil {
		return models.WriteResult{Path: s.path, BackupPath: backup, Rows: len(live)}, nil
	}

	errs := []error{fmt.Errorf("write %s: %w", s.path, err)}
	for _, fallback := range s.fallbacks {
		s.logger.Warn("contact file write failed, using fallback",
			"path", s.path,
			"fallback", fallback,
			"error", errs[len(errs)-1],
		)
		ferr := writeAtomic(fallback, content, perm)
		if ferr == nil {
			return models.WriteResult{Path: fallback, BackupPath: backup, Fallback: true, Rows: len(live)}, nil
		}
		errs = append(errs, fmt.Errorf("fallback %s: %w", fallback, ferr))
	}
	return models.WriteResult{}, errors.Join(errs...)
}

// fileMode returns the permissions of the contact file, or 0644 when it
// cannot be read.
func (s *Store) fileMode() os.FileMode {
	info, err := os.Stat(s.path)
	if err != nil || !info.Mode().IsRegular() {
		return 0o644
	}
	return info.Mode().Perm()
}

// backup copies the current contact file next to it. A missing file is not an error.
func (s *Store) backup(perm os.FileMode) (string, error) {
	prior, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read for backup: %w", err)
	}
	dest := s.BackupPath()
	if err := writeAtomic(dest, prior, perm); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dest, nil
}

// AppendRemovalAudit appends one row describing entry, writing the audit
// header first when the file is new or empty.
func (s *Store) AppendRemovalAudit(ctx context.Context, entry models.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat audit file: %w", err)
	}

	var buf bytes.Buffer
	if info.Size() == 0 {
		writeRow(&buf, append(append([]string{}, entry.Header...), AuditColumns...))
	}
	writeRow(&buf, auditRow(entry))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return f.Sync()
}

func auditRow(entry models.AuditEntry) []string {
	row := make([]string, 0, len(entry.Header)+len(AuditColumns))
	removed := entry.RemovedRow
	if removed == nil {
		for _, h := range entry.Header {
			removed = append(removed, entry.Removed[h])
		}
	}
	row = append(row, models.PadRow(removed, len(entry.Header))...)
	cols := entry.Columns
	return append(row,
		entry.Reason,
		strconv.Itoa(entry.KeptIndex),
		entry.Kept.Get(cols.FamilyName),
		entry.Kept.Get(cols.GivenName),
		entry.Kept.Get(cols.Email),
		entry.Kept.Get(cols.Phone),
	)
}

// Encode renders header and rows as CSV text, one line per row. Every line
// gets the width of the widest of them: the header is extended with blank
// names and short rows with empty cells.
func Encode(header []string, rows [][]string) []byte {
	width := len(header)
	for _, row := range rows {
		width = max(width, len(row))
	}

	var buf bytes.Buffer
	writeRow(&buf, models.PadRow(header, width))
	for _, row := range rows {
		writeRow(&buf, models.PadRow(row, width))
	}
	return buf.Bytes()
}

func writeRow(w io.StringWriter, cells []string) {
	for i, c := range cells {
		if i > 0 {
			_, _ = w.WriteString(",")
		}
		_, _ = w.WriteString(Escape(c))
	}
	_, _ = w.WriteString("\n")
}

// Escape quotes a value containing a comma, a double quote or a line break,
// doubling inner quotes. Other values are written verbatim.
func Escape(v string) string {
	if !strings.ContainsAny(v, ",\"\n\r") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// writeAtomic replaces dest with content through a synced temp file in the
// same directory. The result gets permissions perm.
func writeAtomic(dest string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, perm)

	bw := bufio.NewWriter(tmp)
	if _, err := bw.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = syncDir(dir)
	return nil
}
