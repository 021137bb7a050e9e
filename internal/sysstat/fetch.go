package sysstat

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

// FetchReports runs the report for every file concurrently and returns the
// outputs in the order of files. The first failure cancels the rest.
func FetchReports(ctx context.Context, r Runner, files []string) ([][]byte, error) {
	out := make([][]byte, len(files))
	p := pool.New().WithContext(ctx).WithCancelOnError()

	for i, file := range files {
		p.Go(func(ctx context.Context) error {
			b, err := r.Report(ctx, file)
			if err != nil {
				return fmt.Errorf("report for %s: %w", file, err)
			}
			out[i] = b
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchExports runs one sadf export per (file, section) pair concurrently.
// The result is indexed like files, then like sections.
func FetchExports(ctx context.Context, r Runner, files []string, sections []model.Section) ([][][]byte, error) {
	out := make([][][]byte, len(files))
	for i := range out {
		out[i] = make([][]byte, len(sections))
	}
	p := pool.New().WithContext(ctx).WithCancelOnError()

	for i, file := range files {
		for j, sec := range sections {
			p.Go(func(ctx context.Context) error {
				b, err := r.Export(ctx, file, sec)
				if err != nil {
					return fmt.Errorf("%s export for %s: %w", sec, file, err)
				}
				out[i][j] = b
				return nil
			})
		}
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
