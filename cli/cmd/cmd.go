package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nexus/lang"
	"github.com/ardnew/nexus/log"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	sourcesKey  struct{}
	includesKey struct{}
)

// WithSources returns a new context.Context carrying the source paths
// named by the global --source flags.
func WithSources(ctx context.Context, paths []string) context.Context {
	return context.WithValue(ctx, sourcesKey{}, paths)
}

func sourcePathsFrom(ctx context.Context) []string {
	paths, _ := ctx.Value(sourcesKey{}).([]string)

	return paths
}

// WithIncludes returns a new context.Context carrying the directories
// searched by use declarations.
func WithIncludes(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, includesKey{}, dirs)
}

func includeDirsFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(includesKey{}).([]string)

	return dirs
}

// Source is one input to scan, parse, or evaluate. Stdin sources carry
// the path "-".
type Source struct {
	Path string
	Text string
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// sourceExt is the conventional extension of nexus source files.
const sourceExt = ".nxs"

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// gatherSources resolves the command's positional arguments together with
// the global --source flags into a deduplicated, ordered input set.
//
// Files are read in full. Duplicates are detected by resolving symlinks
// and comparing device/inode pairs, so the same file named twice is read
// once. All occurrences of "-" (and any named path that turns out to be
// stdin) collapse into a single stdin source placed last. With no sources
// named anywhere, input defaults to stdin.
func gatherSources(ctx context.Context, args []string) ([]Source, error) {
	paths := append(append([]string{}, sourcePathsFrom(ctx)...), args...)
	if len(paths) == 0 {
		paths = []string{stdinSource}
	}

	srcs := make([]Source, 0, len(paths))
	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, _ := makeFileKey(stdinInfo)

	for _, path := range paths {
		if path == stdinSource {
			seen[stdinKey] = struct{}{}

			continue
		}

		resolved, key, err := resolveSource(path)
		if err != nil {
			return nil, ErrReadSource.Wrap(err).
				With(slog.String("path", path))
		}

		if _, dup := seen[key]; dup && key != (fileKey{}) {
			continue
		}

		seen[key] = struct{}{}

		if key == stdinKey && key != (fileKey{}) {
			continue
		}

		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, ErrReadSource.Wrap(err).
				With(slog.String("path", path))
		}

		srcs = append(srcs, Source{Path: path, Text: string(data)})
	}

	if _, ok := seen[stdinKey]; ok {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, ErrReadSource.Wrap(err).
				With(slog.String("path", stdinSource))
		}

		srcs = append(srcs, Source{Path: stdinSource, Text: string(data)})
	}

	return srcs, nil
}

// resolveSource resolves path through symlinks to its identity key.
// A zero key is returned on platforms without device/inode stat data,
// which disables deduplication for that file.
func resolveSource(path string) (resolved string, key fileKey, err error) {
	resolved, err = filepath.Abs(path)
	if err != nil {
		return "", fileKey{}, err
	}

	resolved, err = filepath.EvalSymlinks(resolved)
	if err != nil {
		return "", fileKey{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fileKey{}, err
	}

	key, _ = makeFileKey(info)

	return resolved, key, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: stat.Dev, ino: stat.Ino}, true
}

// loader returns a resolver for use declaration paths that searches the
// include directories. Relative paths try the working directory first,
// then each directory in order, and a path without the source extension
// is retried with it appended.
func loader(dirs []string) lang.Loader {
	return func(path string) (string, error) {
		for _, name := range candidatePaths(path, dirs) {
			data, err := os.ReadFile(name)
			if err == nil {
				return string(data), nil
			}

			if !errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
		}

		return "", fs.ErrNotExist
	}
}

// candidatePaths expands a use declaration path into the file names to
// try, in resolution order.
func candidatePaths(path string, dirs []string) []string {
	stems := []string{path}
	if filepath.Ext(path) == "" {
		stems = append(stems, path+sourceExt)
	}

	if filepath.IsAbs(path) {
		return stems
	}

	names := make([]string, 0, (len(dirs)+1)*len(stems))

	for _, dir := range append([]string{"."}, dirs...) {
		for _, stem := range stems {
			names = append(names, filepath.Join(dir, stem))
		}
	}

	return names
}

// newInterp returns an interpreter wired to the command context: print
// output to w, use declarations resolved through the include path, and
// evaluation traced through the package logger.
func newInterp(ctx context.Context, w io.Writer) *lang.Interp {
	return lang.New(
		lang.WithOutput(w),
		lang.WithLoader(loader(includeDirsFrom(ctx))),
		lang.WithLogger(log.Default().Logger),
	)
}

// evalSources evaluates each source in order against interp, so later
// sources observe the entities and bindings of earlier ones. Parse
// diagnostics are annotated with the file they came from.
func evalSources(
	ctx context.Context,
	interp *lang.Interp,
	srcs []Source,
) error {
	for _, src := range srcs {
		log.DebugContext(ctx, "evaluate source",
			slog.String("path", src.Path),
			slog.Int("bytes", len(src.Text)),
		)

		if _, err := interp.Eval(src.Text); err != nil {
			return atSource(err, src)
		}
	}

	return nil
}

// atSource annotates parse diagnostics with the source they came from.
// Stdin sources stay anonymous.
func atSource(err error, src Source) error {
	var parseErr *lang.ParseError

	if errors.As(err, &parseErr) && src.Path != stdinSource {
		return parseErr.WithPath(src.Path)
	}

	return err
}
