package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"

	ports "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// defaultCacheTTL bounds how long a fetched table is served from memory
// before the next ReadAll goes back to the API.
const defaultCacheTTL = 2 * time.Minute

const defaultTabName = "Lançamentos"

type Client struct {
	svc *gsheet.Service
	tab string

	mu                 sync.Mutex
	cacheValidDuration time.Duration
	cachedSheetID      string
	cachedRows         []core.Transaction
	cacheExpiresAt     time.Time
}

// Ensure interface conformance
var (
	_ ports.TableReader = (*Client)(nil)
	_ ports.TableWriter = (*Client)(nil)
	_ ports.Prober      = (*Client)(nil)
	_ ports.Backend     = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_TAB (default "Lançamentos").
func NewFromEnv(ctx context.Context) (*Client, error) {
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	tab := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_TAB"))
	if tab == "" {
		tab = defaultTabName
	}

	return &Client{
		svc:                svc,
		tab:                tab,
		cacheValidDuration: defaultCacheTTL,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// ReadAll fetches the full transaction table from the sheet. Rows that
// cannot be parsed are skipped with a warning; validation happens at
// load time, not in the transport. Results are cached per sheet for
// cacheValidDuration.
func (c *Client) ReadAll(ctx context.Context, sheetID string) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	if rows, ok := c.cachedFor(sheetID); ok {
		return rows, nil
	}

	resp, err := c.svc.Spreadsheets.Values.Get(sheetID, c.readRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetID, err)
	}

	rows, skipped := parseRows(ctx, resp.Values)
	if skipped > 0 {
		slog.WarnContext(ctx, "skipped unparseable sheet rows",
			"sheet_id", sheetID, "tab", c.tab, "skipped", skipped, "kept", len(rows))
	}

	c.storeCache(sheetID, rows)
	return rows, nil
}

// WriteAll replaces the whole tab with a header row plus one row per
// transaction. Values go in as USER_ENTERED so dates and numbers land
// as native sheet cells.
func (c *Client) WriteAll(ctx context.Context, sheetID string, rows []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearReq := &gsheet.ClearValuesRequest{}
	if _, err := c.svc.Spreadsheets.Values.Clear(sheetID, c.readRange(), clearReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", sheetID, err)
	}

	vr := &gsheet.ValueRange{Values: rowsToValues(rows)}
	_, err := c.svc.Spreadsheets.Values.Update(sheetID, c.writeRange(len(rows)), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet %s: %w", sheetID, err)
	}

	c.InvalidateRowCache()
	slog.InfoContext(ctx, "pushed table to sheet", "sheet_id", sheetID, "tab", c.tab, "rows", len(rows))
	return nil
}

// Probe checks reachability with a metadata-only request.
func (c *Client) Probe(ctx context.Context, sheetID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Get(sheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to reach sheet %s: %w", sheetID, err)
	}
	return nil
}

// InvalidateRowCache drops the cached table so the next ReadAll hits
// the API. Called after every write.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachedSheetID = ""
	c.cachedRows = nil
	c.cacheExpiresAt = time.Time{}
}

func (c *Client) cachedFor(sheetID string) ([]core.Transaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cachedSheetID != sheetID || !time.Now().Before(c.cacheExpiresAt) {
		return nil, false
	}
	rows := make([]core.Transaction, len(c.cachedRows))
	copy(rows, c.cachedRows)
	return rows, true
}

func (c *Client) storeCache(sheetID string, rows []core.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cacheValidDuration <= 0 {
		return
	}
	cached := make([]core.Transaction, len(rows))
	copy(cached, rows)
	c.cachedSheetID = sheetID
	c.cachedRows = cached
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
}

func (c *Client) readRange() string {
	return fmt.Sprintf("%s!A:G", c.tab)
}

func (c *Client) writeRange(rowCount int) string {
	// +1 for the header row
	return fmt.Sprintf("%s!A1:G%d", c.tab, rowCount+1)
}
