package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 1000
	defaultTTL      = 10 * time.Minute
)

// PG adapts a Postgres pool to the asynchronous Engine contract: Submit
// returns immediately with an execution id, the query runs in a goroutine,
// and results are served in header-first pages with offset continuation
// tokens. Finished executions are dropped once their final page is fetched;
// abandoned ones are swept after a TTL.
type PG struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	pageSize int
	ttl      time.Duration

	mu    sync.Mutex
	execs map[string]*execution
}

type execution struct {
	status  Status
	columns []string
	rows    [][]string
	started time.Time
}

func NewPG(pool *pgxpool.Pool, logger *slog.Logger) *PG {
	return &PG{
		pool:     pool,
		logger:   logger,
		pageSize: defaultPageSize,
		ttl:      defaultTTL,
		execs:    make(map[string]*execution),
	}
}

func (p *PG) Submit(_ context.Context, sql string) (string, error) {
	id := uuid.NewString()

	p.mu.Lock()
	p.sweepLocked()
	p.execs[id] = &execution{
		status:  Status{State: StateRunning},
		started: time.Now(),
	}
	p.mu.Unlock()

	// Detached from the caller's context: abandonment is fire-and-forget,
	// the execution either finishes or gets swept.
	go p.run(context.Background(), id, sql)

	return id, nil
}

func (p *PG) run(ctx context.Context, id, sql string) {
	columns, data, err := p.query(ctx, sql)

	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.execs[id]
	if !ok {
		return
	}
	if err != nil {
		e.status = Status{State: StateFailed, Reason: err.Error()}
		p.logger.Warn("query execution failed", "execution_id", id, "error", err)
		return
	}
	e.columns = columns
	e.rows = data
	e.status = Status{State: StateSucceeded}
}

func (p *PG) query(ctx context.Context, sql string) ([]string, [][]string, error) {
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var data [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		row := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, data, nil
}

func (p *PG) Status(_ context.Context, executionID string) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.execs[executionID]
	if !ok {
		return Status{}, fmt.Errorf("unknown execution %s", executionID)
	}
	return e.status, nil
}

func (p *PG) FetchPage(_ context.Context, executionID, token string) (Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.execs[executionID]
	if !ok {
		return Page{}, fmt.Errorf("unknown execution %s", executionID)
	}
	if e.status.State != StateSucceeded {
		return Page{}, fmt.Errorf("execution %s is %s, results unavailable", executionID, e.status.State)
	}

	offset := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 {
			return Page{}, fmt.Errorf("bad continuation token %q", token)
		}
		offset = n
	}

	// Row 0 of the virtual result set is the header row of column names.
	total := len(e.rows) + 1
	end := offset + p.pageSize
	if end > total {
		end = total
	}
	page := Page{Columns: e.columns}
	for i := offset; i < end; i++ {
		if i == 0 {
			page.Rows = append(page.Rows, e.columns)
		} else {
			page.Rows = append(page.Rows, e.rows[i-1])
		}
	}
	if end < total {
		page.NextToken = strconv.Itoa(end)
	} else {
		delete(p.execs, executionID)
	}
	return page, nil
}

// sweepLocked drops executions whose results were never fully fetched.
func (p *PG) sweepLocked() {
	cutoff := time.Now().Add(-p.ttl)
	for id, e := range p.execs {
		if e.started.Before(cutoff) {
			delete(p.execs, id)
		}
	}
}
