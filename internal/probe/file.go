package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// FileChecker verifies that Target.Path exists and optionally inspects its content.
type FileChecker struct {
	contains []string
	jsonKeys []string
}

type FileOption func(*FileChecker)

// Contains requires every sub to appear in the file.
func Contains(subs ...string) FileOption {
	return func(f *FileChecker) { f.contains = append(f.contains, subs...) }
}

// JSONKeys requires every dotted path (e.g. dependencies.react) to exist.
func JSONKeys(paths ...string) FileOption {
	return func(f *FileChecker) { f.jsonKeys = append(f.jsonKeys, paths...) }
}

func NewFileChecker(opts ...FileOption) *FileChecker {
	f := &FileChecker{}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *FileChecker) Check(ctx context.Context, t Target) domain.Outcome {
	if err := ctx.Err(); err != nil {
		return Classify(err, t.EffectiveTimeout())
	}
	st, err := os.Stat(t.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Failure(domain.TextError, "not found: "+t.Path)
	}
	if err != nil {
		return domain.Failure(domain.TextError, Truncate(err.Error()))
	}
	if st.IsDir() {
		if len(f.contains) > 0 || len(f.jsonKeys) > 0 {
			return domain.Failure(domain.TextError, t.Path+" is a directory")
		}
		return domain.Success("directory present")
	}
	size := humanize.Bytes(uint64(st.Size()))
	if len(f.contains) == 0 && len(f.jsonKeys) == 0 {
		return domain.Success("present (" + size + ")")
	}

	raw, err := os.ReadFile(t.Path)
	if err != nil {
		return domain.Failure(domain.TextError, Truncate(err.Error()))
	}
	var missing []string
	for _, sub := range f.contains {
		if !strings.Contains(string(raw), sub) {
			missing = append(missing, sub)
		}
	}
	if len(f.jsonKeys) > 0 {
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return domain.Failure(domain.TextError, "invalid JSON: "+Truncate(err.Error()))
		}
		for _, p := range f.jsonKeys {
			if _, ok := lookupPath(doc, p); !ok {
				missing = append(missing, p)
			}
		}
	}
	if len(missing) > 0 {
		return domain.Failure(domain.TextError, "missing "+strings.Join(missing, ", "))
	}
	return domain.Success(fmt.Sprintf("present (%s), %d checks passed", size, len(f.contains)+len(f.jsonKeys)))
}
