package ephem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/logging"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// DefaultChunk is the time span fetched per request.
	DefaultChunk = 30 * astro.Day

	// DefaultTableStep is the row spacing of fetched tables.
	DefaultTableStep = time.Hour

	// FailureTTL is how long a failed chunk is remembered before retrying.
	FailureTTL = time.Minute

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout = 30 * time.Second
)

var tracer = otel.Tracer("github.com/litescript/ls-synodic/internal/ephem")

// HorizonsConfig configures a HorizonsProvider. Zero values select defaults.
type HorizonsConfig struct {
	URL     string
	Timeout time.Duration
	Chunk   time.Duration
	Step    time.Duration
	Store   TableStore   // optional persistence
	Client  *http.Client // optional, overrides Timeout
	Logger  *logging.Logger
}

// HorizonsProvider queries JPL Horizons for geocentric ecliptic tables and
// interpolates between rows. Tables are fetched in fixed chunks and cached.
type HorizonsProvider struct {
	client *http.Client
	url    string
	chunk  time.Duration
	step   time.Duration
	store  TableStore
	log    *logging.Logger

	mu       sync.RWMutex
	tables   map[TableKey][]TableRow
	failures map[TableKey]failure
}

// failure remembers a failed fetch so fallbacks do not hammer the API.
type failure struct {
	err error
	at  time.Time
}

// NewHorizonsProvider creates a new Horizons API client.
func NewHorizonsProvider(cfg HorizonsConfig) *HorizonsProvider {
	p := &HorizonsProvider{
		client:   cfg.Client,
		url:      cfg.URL,
		chunk:    cfg.Chunk,
		step:     cfg.Step,
		store:    cfg.Store,
		log:      cfg.Logger,
		tables:   make(map[TableKey][]TableRow),
		failures: make(map[TableKey]failure),
	}
	if p.url == "" {
		p.url = HorizonsAPIURL
	}
	if p.chunk <= 0 {
		p.chunk = DefaultChunk
	}
	if p.step <= 0 {
		p.step = DefaultTableStep
	}
	if p.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = RequestTimeout
		}
		p.client = &http.Client{Timeout: timeout}
	}
	if p.log == nil {
		p.log = logging.Discard()
	} else {
		p.log = p.log.Named("horizons")
	}
	return p
}

// Name implements Provider.
func (p *HorizonsProvider) Name() string {
	return "Horizons"
}

// State implements Provider.
func (p *HorizonsProvider) State(body Body, t time.Time) (State, error) {
	info := body.Info()
	if info.NAIFID == 0 {
		return State{}, noData(body, t, "no Horizons target")
	}

	rows, err := p.table(context.Background(), p.chunkKey(body, t))
	if err != nil {
		return State{}, err
	}

	row, ok := interpolateRow(rows, t)
	if !ok {
		return State{}, noData(body, t, "outside fetched table")
	}

	return State{
		Body:   body,
		Time:   t,
		LonRad: astro.WrapTo2Pi(astro.DegToRad(row.LonDeg)),
		LatRad: astro.DegToRad(row.LatDeg),
		DistAU: row.DistAU,
	}, nil
}

// Cached returns the number of chunks held in memory.
func (p *HorizonsProvider) Cached() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tables)
}

// chunkKey aligns t to the chunk grid measured from the Unix epoch.
func (p *HorizonsProvider) chunkKey(body Body, t time.Time) TableKey {
	ms := t.UnixMilli()
	chunkMs := p.chunk.Milliseconds()
	start := int64(math.Floor(float64(ms)/float64(chunkMs))) * chunkMs
	return TableKey{Body: body, Start: time.UnixMilli(start).UTC(), Step: p.step}
}

// table returns the rows for a chunk from memory, the store, or the API.
func (p *HorizonsProvider) table(ctx context.Context, key TableKey) ([]TableRow, error) {
	p.mu.RLock()
	rows, ok := p.tables[key]
	failed, hasFailure := p.failures[key]
	p.mu.RUnlock()

	if ok {
		return rows, nil
	}
	if hasFailure && time.Since(failed.at) < FailureTTL {
		return nil, failed.err
	}

	if p.store != nil {
		stored, found, err := p.store.LoadTable(ctx, key)
		if err != nil {
			p.log.Warn("table store load %s: %v", key.Body, err)
		} else if found {
			p.remember(key, stored)
			return stored, nil
		}
	}

	rows, err := p.fetch(ctx, key)
	if err != nil {
		p.mu.Lock()
		p.failures[key] = failure{err: err, at: time.Now()}
		p.mu.Unlock()
		p.log.Warn("fetch %s from %s: %v", key.Body, key.Start.Format("2006-01-02"), err)
		return nil, err
	}

	p.remember(key, rows)
	if p.store != nil {
		if err := p.store.SaveTable(ctx, key, rows); err != nil {
			p.log.Warn("table store save %s: %v", key.Body, err)
		}
	}
	return rows, nil
}

func (p *HorizonsProvider) remember(key TableKey, rows []TableRow) {
	p.mu.Lock()
	p.tables[key] = rows
	delete(p.failures, key)
	p.mu.Unlock()
}

// fetch makes a request to the Horizons API for one chunk.
func (p *HorizonsProvider) fetch(ctx context.Context, key TableKey) ([]TableRow, error) {
	ctx, span := tracer.Start(ctx, "horizons.fetch", trace.WithAttributes(
		attribute.String("body", string(key.Body)),
		attribute.String("start", key.Start.Format(time.RFC3339)),
	))
	defer span.End()

	rows, err := p.query(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))
	p.log.Debug("fetched %d rows for %s from %s", len(rows), key.Body, key.Start.Format("2006-01-02"))
	return rows, nil
}

func (p *HorizonsProvider) query(ctx context.Context, key TableKey) ([]TableRow, error) {
	// The table runs one step past the chunk so the last interval has both ends.
	stop := key.Start.Add(p.chunk + key.Step)

	// Build request parameters - values must be quoted with single quotes
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", fmt.Sprintf("'%d'", key.Body.Info().NAIFID))
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "OBSERVER")
	params.Set("CENTER", "'500@399'") // geocenter
	params.Set("START_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(key.Start)))
	params.Set("STOP_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(stop)))
	params.Set("STEP_SIZE", fmt.Sprintf("'%s'", formatStepSize(key.Step)))
	params.Set("QUANTITIES", "'20,31'") // 20=range, 31=observer ecliptic lon/lat
	params.Set("ANG_FORMAT", "DEG")
	params.Set("CSV_FORMAT", "YES")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("horizons request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("horizons request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("horizons returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	rows, err := parseHorizonsResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoData, key.Body, err)
	}
	return rows, nil
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

var errNoMarkers = errors.New("could not find ephemeris data markers")

// parseHorizonsResponse parses the Horizons JSON response.
func parseHorizonsResponse(body []byte) ([]TableRow, error) {
	var resp horizonsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("horizons: %s", resp.Error)
	}

	// The actual ephemeris data is in resp.Result as a text blob
	return parseEphemerisTable(resp.Result)
}

// parseEphemerisTable extracts rows from the Horizons text output.
func parseEphemerisTable(result string) ([]TableRow, error) {
	// Find the data section between $$SOE and $$EOE markers
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, errNoMarkers
	}

	var rows []TableRow
	for _, line := range strings.Split(result[soeIdx+5:eoeIdx], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		row, err := parseEphemerisLine(line)
		if err != nil {
			continue // Skip unparseable lines
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.New("empty ephemeris table")
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows, nil
}

// parseEphemerisLine parses a single CSV data line.
// Format for QUANTITIES='20,31':
// 2025-Dec-05 00:00, , ,  1.52347814537580, -5.2314011,  245.1234567,  -1.2345678,
// Fields: date, solar/lunar presence flags, delta, deldot, ObsEcLon, ObsEcLat
func parseEphemerisLine(line string) (TableRow, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return TableRow{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	t, err := parseHorizonsDateTime(strings.TrimSpace(fields[0]))
	if err != nil {
		return TableRow{}, err
	}

	// Flags are blank or letters; the numbers follow in quantity order.
	var nums []float64
	for _, f := range fields[1:] {
		val, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			continue
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return TableRow{}, fmt.Errorf("non-finite value %q", strings.TrimSpace(f))
		}
		nums = append(nums, val)
	}
	if len(nums) < 4 {
		return TableRow{}, fmt.Errorf("expected 4 values, found %d", len(nums))
	}

	return TableRow{
		Time:   t,
		DistAU: nums[0],
		LonDeg: nums[2],
		LatDeg: nums[3],
	}, nil
}

// interpolateRow linearly interpolates a table at t. Longitude is unwrapped
// across the 0/360 seam before interpolating.
func interpolateRow(rows []TableRow, t time.Time) (TableRow, bool) {
	n := len(rows)
	if n == 0 || t.Before(rows[0].Time) || t.After(rows[n-1].Time) {
		return TableRow{}, false
	}

	// First row strictly after t
	i := sort.Search(n, func(i int) bool { return rows[i].Time.After(t) })
	if i == n {
		return rows[n-1], true
	}
	a, b := rows[i-1], rows[i]

	span := b.Time.Sub(a.Time)
	if span <= 0 {
		return a, true
	}
	f := float64(t.Sub(a.Time)) / float64(span)

	dLon := astro.RadToDeg(astro.WrapToPi(astro.DegToRad(b.LonDeg - a.LonDeg)))
	return TableRow{
		Time:   t,
		LonDeg: a.LonDeg + f*dLon,
		LatDeg: a.LatDeg + f*(b.LatDeg-a.LatDeg),
		DistAU: a.DistAU + f*(b.DistAU-a.DistAU),
	}, true
}

// parseHorizonsDateTime parses Horizons date format like "2025-Dec-05 00:00".
func parseHorizonsDateTime(s string) (time.Time, error) {
	s = strings.TrimPrefix(s, "A.D. ")

	// Horizons uses format like "2025-Dec-05 00:00"
	t, err := time.Parse("2006-Jan-02 15:04", s)
	if err == nil {
		return t.UTC(), nil
	}

	// Try with seconds
	t, err = time.Parse("2006-Jan-02 15:04:05", s)
	if err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// formatHorizonsTime formats a time for Horizons API.
func formatHorizonsTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// formatStepSize formats a duration as a Horizons step size.
func formatStepSize(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 && minutes%60 == 0 {
		return fmt.Sprintf("%d h", minutes/60)
	}
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d m", minutes)
}
