package persistence

import (
	"context"
	"fmt"
	"sync"
)

// fakeClient is an in-memory sheets.Client backed by a full grid per sheet
// (header row included), mirroring the positional semantics of the real
// backend: 1-based rows, deletions shift later rows up.
type fakeClient struct {
	mu     sync.Mutex
	grids  map[string][][]string
	calls  map[string]int
	failOp string
	err    error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		grids: make(map[string][][]string),
		calls: make(map[string]int),
	}
}

// failWith makes every subsequent call to op return err; op "" fails all ops
func (f *fakeClient) failWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOp = op
	f.err = err
}

func (f *fakeClient) failure(op string) error {
	if f.err != nil && (f.failOp == "" || f.failOp == op) {
		return f.err
	}
	return nil
}

func (f *fakeClient) EnsureSheet(ctx context.Context, title string, headers []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["EnsureSheet"]++
	if err := f.failure("EnsureSheet"); err != nil {
		return err
	}
	grid, ok := f.grids[title]
	if !ok || len(grid) == 0 {
		f.grids[title] = [][]string{append([]string(nil), headers...)}
		return nil
	}
	grid[0] = append([]string(nil), headers...)
	return nil
}

func (f *fakeClient) ReadRows(ctx context.Context, title string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ReadRows"]++
	if err := f.failure("ReadRows"); err != nil {
		return nil, err
	}
	grid := f.grids[title]
	rows := make([][]string, len(grid))
	for i, row := range grid {
		rows[i] = append([]string(nil), row...)
	}
	return rows, nil
}

func (f *fakeClient) AppendRow(ctx context.Context, title string, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AppendRow"]++
	if err := f.failure("AppendRow"); err != nil {
		return err
	}
	f.grids[title] = append(f.grids[title], append([]string(nil), row...))
	return nil
}

func (f *fakeClient) UpdateRow(ctx context.Context, title string, rowIndex int, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UpdateRow"]++
	if err := f.failure("UpdateRow"); err != nil {
		return err
	}
	grid := f.grids[title]
	if rowIndex < 1 || rowIndex > len(grid) {
		return fmt.Errorf("fake: update out of range: row %d of %d", rowIndex, len(grid))
	}
	grid[rowIndex-1] = append([]string(nil), row...)
	return nil
}

func (f *fakeClient) DeleteRow(ctx context.Context, title string, rowIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteRow"]++
	if err := f.failure("DeleteRow"); err != nil {
		return err
	}
	grid := f.grids[title]
	if rowIndex < 1 || rowIndex > len(grid) {
		return fmt.Errorf("fake: delete out of range: row %d of %d", rowIndex, len(grid))
	}
	f.grids[title] = append(grid[:rowIndex-1], grid[rowIndex:]...)
	return nil
}

// rawRows returns the data rows of a sheet (header stripped)
func (f *fakeClient) rawRows(title string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	grid := f.grids[title]
	if len(grid) == 0 {
		return nil
	}
	rows := make([][]string, len(grid)-1)
	for i, row := range grid[1:] {
		rows[i] = append([]string(nil), row...)
	}
	return rows
}

// seed replaces a sheet's grid wholesale, bypassing the client API, the way
// an external editor would
func (f *fakeClient) seed(title string, grid [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grids[title] = grid
}

func (f *fakeClient) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}
