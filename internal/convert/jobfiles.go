package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
	"diagconv/internal/mdd"
)

// JobFileChunks reads every code file the database's jobs refer to from dir
// and wraps each as a JAR_FILE chunk, in name order. A file that does not
// exist is reported and skipped; any other read error fails.
func JobFileChunks(db *ir.DiagDatabase, dir string, rep diag.Reporter) ([]mdd.Chunk, error) {
	names := db.CodeFiles()
	chunks := make([]mdd.Chunk, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, filepath.FromSlash(name))
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			diag.ReportWarning(rep, diag.CnvMissingJobFile, name, "job file not found: "+p).
				WithNote(dir, "--include-job-files directory").
				Emit()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("job file %s: %w", name, err)
		}
		chunks = append(chunks, mdd.CodeFileChunk(name, data))
	}
	return chunks, nil
}
