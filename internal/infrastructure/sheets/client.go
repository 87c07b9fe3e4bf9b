package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Client is the remote tabular backend contract: one header-plus-data table
// per entity type, addressed by sheet title, with positional rows. Row
// indexes are 1-based physical positions including the header row, so the
// first data row is row 2. Every write is immediately visible to subsequent
// reads against the same backend.
type Client interface {
	// EnsureSheet creates the sheet with the given header row if it is
	// missing, and repairs a drifted header in place without touching data rows
	EnsureSheet(ctx context.Context, title string, headers []string) error
	// ReadRows returns every row of the sheet, header included, as cell strings
	ReadRows(ctx context.Context, title string) ([][]string, error)
	// AppendRow appends one data row after the last non-empty row
	AppendRow(ctx context.Context, title string, row []string) error
	// UpdateRow overwrites the cell range A<row>:<end><row> in one physical row
	UpdateRow(ctx context.Context, title string, rowIndex int, row []string) error
	// DeleteRow removes one physical row by position, shifting later rows up
	DeleteRow(ctx context.Context, title string, rowIndex int) error
}

// Config holds the connection settings for the Google Sheets backend
type Config struct {
	SpreadsheetID   string
	CredentialsJSON []byte
	CallTimeout     time.Duration
}

// GoogleClient implements Client against the Google Sheets v4 API. All calls
// go through a CallGuard so a hanging request surfaces as ErrTimeout instead
// of blocking the caller.
type GoogleClient struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	guard         *CallGuard
	logger        *zap.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewGoogleClient authenticates with the supplied service-account credentials
// and returns a client bound to one spreadsheet
func NewGoogleClient(ctx context.Context, cfg Config, logger *zap.Logger) (*GoogleClient, error) {
	if cfg.SpreadsheetID == "" {
		return nil, backendErr("configure", fmt.Errorf("spreadsheet id is required"))
	}
	if len(cfg.CredentialsJSON) == 0 {
		return nil, backendErr("configure", fmt.Errorf("service account credentials are required"))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(cfg.CredentialsJSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, backendErr("authenticate", err)
	}

	return &GoogleClient{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		guard:         NewCallGuard(cfg.CallTimeout, logger),
		logger:        logger,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// EnsureSheet implements Client
func (c *GoogleClient) EnsureSheet(ctx context.Context, title string, headers []string) error {
	if _, err := c.ensureSheetID(ctx, title, len(headers)); err != nil {
		return err
	}

	header, err := DoValue(c.guard, ctx, "values.get header", func(callCtx context.Context) ([][]interface{}, error) {
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!1:1", title)).
			Context(callCtx).Do()
		if err != nil {
			return nil, err
		}
		return resp.Values, nil
	})
	if err != nil {
		return classify("read header", err)
	}

	if headerMatches(header, headers) {
		return nil
	}

	c.logger.Info("Repairing sheet header",
		zap.String("sheet", title),
		zap.Int("columns", len(headers)))
	return c.writeRow(ctx, title, 1, headers)
}

// ReadRows implements Client
func (c *GoogleClient) ReadRows(ctx context.Context, title string) ([][]string, error) {
	values, err := DoValue(c.guard, ctx, "values.get", func(callCtx context.Context) ([][]interface{}, error) {
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, title).Context(callCtx).Do()
		if err != nil {
			return nil, err
		}
		return resp.Values, nil
	})
	if err != nil {
		return nil, classify("read rows", err)
	}

	rows := make([][]string, len(values))
	for i, raw := range values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = fmt.Sprint(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// AppendRow implements Client
func (c *GoogleClient) AppendRow(ctx context.Context, title string, row []string) error {
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{toCells(row)}}
	err := c.guard.Do(ctx, "values.append", func(callCtx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A1", title), vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(callCtx).Do()
		return err
	})
	if err != nil {
		return classify("append row", err)
	}
	return nil
}

// UpdateRow implements Client
func (c *GoogleClient) UpdateRow(ctx context.Context, title string, rowIndex int, row []string) error {
	return c.writeRow(ctx, title, rowIndex, row)
}

// DeleteRow implements Client
func (c *GoogleClient) DeleteRow(ctx context.Context, title string, rowIndex int) error {
	sheetID, err := c.ensureSheetID(ctx, title, 0)
	if err != nil {
		return err
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex - 1),
					EndIndex:   int64(rowIndex),
				},
			},
		}},
	}
	err = c.guard.Do(ctx, "batchUpdate deleteDimension", func(callCtx context.Context) error {
		_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(callCtx).Do()
		return err
	})
	if err != nil {
		return classify("delete row", err)
	}
	return nil
}

// writeRow overwrites the cell range of one physical row in header order
func (c *GoogleClient) writeRow(ctx context.Context, title string, rowIndex int, row []string) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", title, rowIndex, columnName(len(row)), rowIndex)
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{toCells(row)}}
	err := c.guard.Do(ctx, "values.update", func(callCtx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			Context(callCtx).Do()
		return err
	})
	if err != nil {
		return classify("update row", err)
	}
	return nil
}

// ensureSheetID resolves a sheet title to its numeric id, creating the sheet
// when it does not exist yet. Resolved ids are cached per title.
func (c *GoogleClient) ensureSheetID(ctx context.Context, title string, columns int) (int64, error) {
	c.mu.Lock()
	if id, ok := c.sheetIDs[title]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	meta, err := DoValue(c.guard, ctx, "spreadsheets.get", func(callCtx context.Context) (*sheetsapi.Spreadsheet, error) {
		return c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(callCtx).Do()
	})
	if err != nil {
		return 0, classify("open spreadsheet", err)
	}

	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			c.rememberSheetID(title, sheet.Properties.SheetId)
			return sheet.Properties.SheetId, nil
		}
	}

	if columns < 20 {
		columns = 20
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{
					Title: title,
					GridProperties: &sheetsapi.GridProperties{
						RowCount:    2000,
						ColumnCount: int64(columns),
					},
				},
			},
		}},
	}
	resp, err := DoValue(c.guard, ctx, "batchUpdate addSheet", func(callCtx context.Context) (*sheetsapi.BatchUpdateSpreadsheetResponse, error) {
		return c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(callCtx).Do()
	})
	if err != nil {
		return 0, classify("create sheet", err)
	}

	var id int64
	for _, r := range resp.Replies {
		if r.AddSheet != nil && r.AddSheet.Properties != nil {
			id = r.AddSheet.Properties.SheetId
		}
	}
	c.rememberSheetID(title, id)
	c.logger.Info("Created sheet", zap.String("sheet", title))
	return id, nil
}

func (c *GoogleClient) rememberSheetID(title string, id int64) {
	c.mu.Lock()
	c.sheetIDs[title] = id
	c.mu.Unlock()
}

func headerMatches(stored [][]interface{}, headers []string) bool {
	if len(stored) == 0 || len(stored[0]) < len(headers) {
		return false
	}
	for i, want := range headers {
		if strings.TrimSpace(fmt.Sprint(stored[0][i])) != want {
			return false
		}
	}
	return true
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// columnName converts a 1-based column count to its A1 column letters
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

var _ Client = (*GoogleClient)(nil)
