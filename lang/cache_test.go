package lang

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// Cache tests share the package-global program cache, so they do not
// run in parallel and each uses a distinct source string.

func TestCachedProgram_SharedResult(t *testing.T) {
	source := "let cache_shared = 1;"

	p1, err := cachedProgram(source)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}

	p2, err := cachedProgram(source)
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}

	if p1 != p2 {
		t.Error("identical source parsed twice")
	}
}

func TestCachedProgram_ErrorsCached(t *testing.T) {
	source := "let cache_bad = );"

	_, err1 := cachedProgram(source)
	if err1 == nil {
		t.Fatal("malformed source parsed without error")
	}

	_, err2 := cachedProgram(source)
	if err2 == nil {
		t.Fatal("cached outcome lost the error")
	}

	if err1.Error() != err2.Error() {
		t.Errorf("errors differ: %v vs %v", err1, err2)
	}
}

func TestCachedProgram_Concurrent(t *testing.T) {
	source := "let cache_racer = 2;"

	var (
		wg    sync.WaitGroup
		progs [8]*Program
	)

	for i := range progs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			prog, err := cachedProgram(source)
			if err != nil {
				t.Errorf("parse: %v", err)

				return
			}

			progs[i] = prog
		}()
	}

	wg.Wait()

	for i := 1; i < len(progs); i++ {
		if progs[i] != progs[0] {
			t.Fatalf("goroutine %d saw a different program", i)
		}
	}
}

func TestClearCache(t *testing.T) {
	source := "let cache_cleared = 3;"

	p1, err := cachedProgram(source)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}

	ClearCache()

	p2, err := cachedProgram(source)
	if err != nil {
		t.Fatalf("parse after clear: %v", err)
	}

	if p1 == p2 {
		t.Error("cleared cache returned the old program")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer.nxs")

	if err := os.WriteFile(path, []byte("let x = 40;\nx + 2"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	prog, err := loadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(prog.Decls) != 2 {
		t.Errorf("parsed %d statements, want 2", len(prog.Decls))
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := loadFile(filepath.Join(t.TempDir(), "absent.nxs"))
	if !errors.Is(err, ErrReadInput) {
		t.Errorf("error = %v, want read failure", err)
	}
}

// Parse diagnostics from a file name the file, so multi-file sessions
// can tell inputs apart.
func TestLoadFile_DiagnosticPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.nxs")

	if err := os.WriteFile(path, []byte("let x = );"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := loadFile(path)
	if err == nil {
		t.Fatal("malformed file loaded without error")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type %T, want *ParseError", err)
	}

	if pe.Path != path {
		t.Errorf("diagnostic path = %q, want %q", pe.Path, path)
	}

	if !strings.Contains(err.Error(), "broken.nxs") {
		t.Errorf("message %q does not name the file", err.Error())
	}
}

func TestLoadReader(t *testing.T) {
	prog, err := loadReader(strings.NewReader("let from_reader = 4;"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(prog.Decls) != 1 {
		t.Errorf("parsed %d statements, want 1", len(prog.Decls))
	}
}

func TestEvalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.nxs")

	source := `
		let base = node "Platform";
		let base.slots = 4;
		base.slots * 10
	`

	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	interp := New()

	val, err := interp.EvalFile(path)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	if val.Num != 40 {
		t.Errorf("value = %v, want 40", val)
	}
}
